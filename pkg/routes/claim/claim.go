package claim

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/equisoins/clover/internal/appcontext"
	auditrepo "github.com/equisoins/clover/internal/repositories/audit"
	claimrepo "github.com/equisoins/clover/internal/repositories/claim"
	practitionerrepo "github.com/equisoins/clover/internal/repositories/practitioner"
	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/events"
	"github.com/equisoins/clover/pkg/metrics"
	"github.com/equisoins/clover/pkg/models"
	"github.com/equisoins/clover/pkg/redis"
)

var validate = validator.New()

// Register registers the public claim route
func Register(g *echo.Group) {
	g.POST("", Submit)
}

// RegisterAdmin registers the claim moderation routes
func RegisterAdmin(g *echo.Group) {
	g.GET("", List)
	g.POST("/:id/approve", Approve)
	g.POST("/:id/reject", Reject)
}

// Submit records a public claim request against a directory profile. The
// claim only marks the profile once an administrator approves it.
func Submit(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.Submit")
	defer span.End()

	var req models.SubmitClaimRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ip := appcontext.GetRemoteIP(ctx)

	if limiterCtx, limiter, err := ectoinject.GetContext[*redis.RateLimiter](ctx); err == nil && limiter != nil {
		ctx = limiterCtx
		result, err := limiter.Allow(ctx, ip)
		if err != nil {
			// A rate-limiter outage should not block legitimate claims.
			if _, logger, logErr := ectoinject.GetContext[ectologger.Logger](ctx); logErr == nil {
				logger.WithContext(ctx).WithError(err).Warn("rate limiter unavailable, allowing claim")
			}
		} else if !result.Allowed {
			return httperror.NewHTTPError(http.StatusTooManyRequests, "too many claim requests, try again later")
		}
	}

	ctx, practitioners, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	target, err := practitioners.GetByID(ctx, req.PractitionerID)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get practitioner")
	}
	if target == nil || target.Status != models.PractitionerStatusActive {
		return httperror.NewHTTPError(http.StatusNotFound, "practitioner not found")
	}

	ctx, claims, err := ectoinject.GetContext[*claimrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	created, err := claims.Create(ctx, req, ip)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to submit claim")
	}

	metrics.ClaimsSubmittedTotal.Inc()

	return c.JSON(http.StatusCreated, created)
}

// List returns claim requests for moderation, pending first by default
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.List")
	defer span.End()

	status := c.QueryParam("status")
	if status == "" {
		status = models.ClaimStatusPending
	}
	if status == "all" {
		status = ""
	}

	ctx, claims, err := ectoinject.GetContext[*claimrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, err := claims.List(ctx, status, 0)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list claims")
	}

	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Approve accepts a pending claim and marks the practitioner as claimed
func Approve(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.Approve")
	defer span.End()

	return resolve(c, ctx, models.ClaimStatusApproved)
}

// Reject declines a pending claim; the practitioner record is untouched
func Reject(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "claim_handler.Reject")
	defer span.End()

	return resolve(c, ctx, models.ClaimStatusRejected)
}

func resolve(c echo.Context, ctx context.Context, status string) error {
	id := c.Param("id")

	ctx, claims, err := ectoinject.GetContext[*claimrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	claim, err := claims.GetByID(ctx, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get claim")
	}
	if claim == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "claim not found")
	}

	rowsAffected, err := claims.Resolve(ctx, id, status)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve claim")
	}
	if rowsAffected == 0 {
		return httperror.NewHTTPError(http.StatusConflict, "claim already resolved")
	}

	if status == models.ClaimStatusApproved {
		ctx, practitioners, err := ectoinject.GetContext[*practitionerrepo.Repository](ctx)
		if err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
		}

		contact := models.ClaimContact{
			ClaimerName:  claim.ClaimerName,
			ClaimerEmail: claim.ClaimerEmail,
			ClaimerPhone: claim.ClaimerPhone,
			IP:           claim.IPAddress,
		}
		if err := practitioners.MarkClaimed(ctx, claim.PractitionerID, contact); err != nil {
			return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark practitioner as claimed")
		}

		if ctx, emitter, err := ectoinject.GetContext[*events.Emitter](ctx); err == nil {
			emitter.EmitPractitionerClaimed(ctx, claim.PractitionerID, claim)
		}
	}

	metrics.ClaimsResolvedTotal.WithLabelValues(status).Inc()

	if ctx, audits, err := ectoinject.GetContext[*auditrepo.Repository](ctx); err == nil {
		audits.Record(ctx, "claim."+status, "practitioner_claim_requests", id,
			map[string]string{"status": claim.Status},
			map[string]string{"status": status},
		)
	}

	return c.NoContent(http.StatusNoContent)
}
