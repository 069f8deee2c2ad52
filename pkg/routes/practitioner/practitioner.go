package practitioner

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	auditrepo "github.com/equisoins/clover/internal/repositories/audit"
	practitionerrepo "github.com/equisoins/clover/internal/repositories/practitioner"
	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/events"
	"github.com/equisoins/clover/pkg/metrics"
	"github.com/equisoins/clover/pkg/models"
	"github.com/equisoins/clover/pkg/normalizers"
	"github.com/equisoins/clover/pkg/specialties"
)

var validate = validator.New()

// Register registers the public directory routes
func Register(g *echo.Group) {
	g.GET("", Search)
	g.GET("/:slug", GetBySlug)
}

// RegisterAdmin registers the back-office practitioner routes
func RegisterAdmin(g *echo.Group) {
	g.POST("", Create)
	g.GET("/:id", Get)
	g.PUT("/:id", Update)
	g.PUT("/:id/status", SetStatus)
}

// Search lists active practitioners with the public filters
func Search(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "practitioner_handler.Search")
	defer span.End()

	metrics.SearchRequestsTotal.Inc()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))

	req := models.SearchPractitionersRequest{
		Specialty: c.QueryParam("specialty"),
		City:      c.QueryParam("city"),
		Query:     c.QueryParam("q"),
		Sort:      c.QueryParam("sort"),
		Page:      page,
		PageSize:  pageSize,
	}

	ctx, repo, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Search(ctx, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to search practitioners")
	}

	return c.JSON(http.StatusOK, result)
}

// GetBySlug returns a single active profile for the public site
func GetBySlug(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "practitioner_handler.GetBySlug")
	defer span.End()

	slug := c.Param("slug")

	ctx, repo, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.GetBySlug(ctx, slug)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get practitioner")
	}
	if result == nil || result.Status != models.PractitionerStatusActive {
		return httperror.NewHTTPError(http.StatusNotFound, "practitioner not found")
	}

	return c.JSON(http.StatusOK, result)
}

// Create creates a practitioner from the back office
func Create(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "practitioner_handler.Create")
	defer span.End()

	var req models.CreatePractitionerRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resolved, ok := specialties.Resolve(req.Specialty)
	if !ok {
		return httperror.NewHTTPError(http.StatusBadRequest, "unknown specialty: "+req.Specialty)
	}
	req.Specialty = resolved

	if req.SlugSEO == "" {
		req.SlugSEO = normalizers.Slugify(req.Name)
	}
	if req.PhoneNorm != nil {
		normalized := normalizers.NormalizePhone(*req.PhoneNorm)
		req.PhoneNorm = &normalized
	}

	ctx, repo, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.Create(ctx, req)
	if err != nil {
		if errors.Is(err, practitionerrepo.ErrSlugTaken) {
			return httperror.NewHTTPError(http.StatusConflict, "slug already in use")
		}
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create practitioner")
	}

	if ctx, audits, err := ectoinject.GetContext[*auditrepo.Repository](ctx); err == nil {
		audits.Record(ctx, "practitioner.create", "practitioners", result.ID, nil, result)
	}
	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		emitter.EmitPractitionerCreated(ctx, result)
	}

	return c.JSON(http.StatusCreated, result)
}

// Get returns a practitioner by ID, regardless of status
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "practitioner_handler.Get")
	defer span.End()

	id := c.Param("id")

	ctx, repo, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	result, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get practitioner")
	}
	if result == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "practitioner not found")
	}

	return c.JSON(http.StatusOK, result)
}

// Update applies a sparse update from the back office
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "practitioner_handler.Update")
	defer span.End()

	id := c.Param("id")

	var req models.UpdatePractitionerRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Specialty != nil {
		resolved, ok := specialties.Resolve(*req.Specialty)
		if !ok {
			return httperror.NewHTTPError(http.StatusBadRequest, "unknown specialty: "+*req.Specialty)
		}
		req.Specialty = &resolved
	}
	if req.PhoneNorm != nil {
		normalized := normalizers.NormalizePhone(*req.PhoneNorm)
		req.PhoneNorm = &normalized
	}

	ctx, repo, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	before, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get practitioner")
	}
	if before == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "practitioner not found")
	}

	result, err := repo.Update(ctx, id, req)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update practitioner")
	}

	if ctx, audits, err := ectoinject.GetContext[*auditrepo.Repository](ctx); err == nil {
		audits.Record(ctx, "practitioner.update", "practitioners", id, before, result)
	}
	if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
		emitter.EmitPractitionerUpdated(ctx, result)
	}

	return c.JSON(http.StatusOK, result)
}

// SetStatusRequest is the body for status changes
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// SetStatus activates or deactivates a record. Deactivation replaces
// deletion: the record disappears from the public site but its history and
// claim trail are kept.
func SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "practitioner_handler.SetStatus")
	defer span.End()

	id := c.Param("id")

	var req SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	before, err := repo.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get practitioner")
	}
	if before == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "practitioner not found")
	}

	if err := repo.SetStatus(ctx, id, req.Status); err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update status")
	}

	if ctx, audits, err := ectoinject.GetContext[*auditrepo.Repository](ctx); err == nil {
		audits.Record(ctx, "practitioner.status", "practitioners", id,
			map[string]string{"status": before.Status},
			map[string]string{"status": req.Status},
		)
	}

	return c.NoContent(http.StatusNoContent)
}
