package admin

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/equisoins/clover/config"
	auditrepo "github.com/equisoins/clover/internal/repositories/audit"
	claimrepo "github.com/equisoins/clover/internal/repositories/claim"
	practitionerrepo "github.com/equisoins/clover/internal/repositories/practitioner"
	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/importer"
	"github.com/equisoins/clover/pkg/models"
)

// Register registers the back-office routes
func Register(g *echo.Group) {
	g.GET("/stats", Stats)
	g.POST("/import/preview", ImportPreview)
	g.POST("/import/publish", ImportPublish)
	g.GET("/audit", AuditList)
}

// Stats returns the data-health dashboard numbers
func Stats(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.Stats")
	defer span.End()

	ctx, practitioners, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	stats, err := practitioners.Stats(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate stats")
	}

	ctx, claims, err := ectoinject.GetContext[*claimrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	pending, err := claims.CountPending(ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to count pending claims")
	}
	stats.PendingClaims = pending

	return c.JSON(http.StatusOK, stats)
}

// ImportPreview parses an uploaded CSV and returns the classified rows
// without writing anything
func ImportPreview(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.ImportPreview")
	defer span.End()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "no file provided")
	}

	ctx, cfg, err := ectoinject.GetContext[*config.Config](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get config")
	}
	if cfg.ImportMaxUploadBytes > 0 && fileHeader.Size > int64(cfg.ImportMaxUploadBytes) {
		return httperror.NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()

	ctx, service, err := ectoinject.GetContext[*importer.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get import service")
	}

	rows, err := service.Preview(ctx, file)
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{"rows": rows})
}

// ImportPublishRequest is the body for an import publish
type ImportPublishRequest struct {
	Rows []models.ImportRow `json:"rows"`
}

// ImportPublish applies a previewed batch and returns the summary counters.
// The rows are the preview payload handed back by the administrator, not a
// server-side session.
func ImportPublish(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.ImportPublish")
	defer span.End()

	var req ImportPublishRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Rows) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "no rows to publish")
	}

	ctx, service, err := ectoinject.GetContext[*importer.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get import service")
	}

	summary := service.Publish(ctx, req.Rows)

	return c.JSON(http.StatusOK, map[string]any{"summary": summary})
}

// AuditList returns the admin action trail, newest first
func AuditList(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "admin_handler.AuditList")
	defer span.End()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	ctx, audits, err := ectoinject.GetContext[*auditrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	entries, err := audits.List(ctx, page, pageSize)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list audit entries")
	}

	return c.JSON(http.StatusOK, map[string]any{"items": entries})
}
