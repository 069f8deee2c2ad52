package claim

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/equisoins/clover/internal/database"
	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/models"
)

const tableName = "practitioner_claim_requests"

var allColumns = []string{
	"id", "practitioner_id", "claimer_name", "claimer_email", "claimer_phone",
	"message", "consent", "ip_address", "status", "created_at", "resolved_at",
}

// Repository handles claim request persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new claim repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create records a new pending claim
func (r *Repository) Create(ctx context.Context, req models.SubmitClaimRequest, ipAddress string) (*models.ClaimRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "ClaimRepository.Create")
	defer span.End()

	id := uuid.New().String()
	now := time.Now()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "practitioner_id", "claimer_name", "claimer_email", "claimer_phone",
		"message", "consent", "ip_address", "status", "created_at")
	sb.Values(id, req.PractitionerID, req.ClaimerName, req.ClaimerEmail, req.ClaimerPhone,
		req.Message, req.Consent, ipAddress, models.ClaimStatusPending, now)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to create claim request")
		return nil, fmt.Errorf("failed to create claim request: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":              id,
		"practitioner_id": req.PractitionerID,
	}).Info("created claim request")

	return r.GetByID(ctx, id)
}

// GetByID gets a claim request by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.ClaimRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "ClaimRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var claim models.ClaimRequest
	err := r.db.GetContext(ctx, &claim, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get claim request")
		return nil, fmt.Errorf("failed to get claim request: %w", err)
	}

	return &claim, nil
}

// List returns claim requests filtered by status, newest first. An empty
// status returns everything.
func (r *Repository) List(ctx context.Context, status string, limit int) ([]models.ClaimRequest, error) {
	ctx, span := tracing.StartSpan(ctx, "ClaimRepository.List")
	defer span.End()

	if limit < 1 || limit > 200 {
		limit = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns...)
	sb.From(tableName)
	if status != "" {
		sb.Where(sb.Equal("status", status))
	}
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()

	var claims []models.ClaimRequest
	if err := r.db.SelectContext(ctx, &claims, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list claim requests")
		return nil, fmt.Errorf("failed to list claim requests: %w", err)
	}

	return claims, nil
}

// CountPending counts unresolved claims for the admin dashboard
func (r *Repository) CountPending(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "ClaimRepository.CountPending")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(tableName)
	sb.Where(sb.Equal("status", models.ClaimStatusPending))

	query, args := sb.Build()

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count pending claims")
		return 0, fmt.Errorf("failed to count pending claims: %w", err)
	}

	return count, nil
}

// Resolve moves a pending claim to approved or rejected. Returns the number
// of rows affected so the caller can detect double resolution.
func (r *Repository) Resolve(ctx context.Context, id string, status string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ClaimRepository.Resolve")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("resolved_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("status", models.ClaimStatusPending),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to resolve claim request")
		return 0, fmt.Errorf("failed to resolve claim request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":     id,
		"status": status,
	}).Info("resolved claim request")

	return rowsAffected, nil
}
