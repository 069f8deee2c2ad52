package practitioner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/equisoins/clover/internal/database"
	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/models"
)

// ErrSlugTaken is returned when an insert violates the slug_seo uniqueness
// constraint. Callers that generate slugs can retry with a different suffix.
var ErrSlugTaken = errors.New("slug already taken")

const tableName = "practitioners"

var allColumns = []string{
	"id", "name", "specialty", "region", "city", "address_full", "lat", "lng",
	"phone_norm", "website", "profile_url", "status", "is_claimed", "is_verified",
	"claimed_at", "claimed_contact", "quality_score", "slug_seo", "created_at", "updated_at",
}

// Repository handles practitioner persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new practitioner repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new practitioner. Returns ErrSlugTaken when the slug is
// already in use so the caller can disambiguate and retry.
func (r *Repository) Create(ctx context.Context, req models.CreatePractitionerRequest) (*models.Practitioner, error) {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	status := req.Status
	if status == "" {
		status = models.PractitionerStatusActive
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "name", "specialty", "region", "city", "address_full", "lat", "lng",
		"phone_norm", "website", "profile_url", "status", "is_verified", "slug_seo",
		"created_at", "updated_at")
	sb.Values(id, req.Name, req.Specialty, req.Region, req.City, req.AddressFull, req.Lat, req.Lng,
		req.PhoneNorm, req.Website, req.ProfileURL, status, req.IsVerified, req.SlugSEO,
		now, now)

	query, args := sb.Build()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if database.IsUniqueViolation(err, "slug") {
			return nil, ErrSlugTaken
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to create practitioner")
		return nil, fmt.Errorf("failed to create practitioner: %w", err)
	}

	selectSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	selectSb.Select(allColumns...)
	selectSb.From(tableName)
	selectSb.Where(selectSb.Equal("id", id))
	selectQuery, selectArgs := selectSb.Build()

	var created models.Practitioner
	if err := tx.GetContext(ctx, &created, selectQuery, selectArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to read back created practitioner")
		return nil, fmt.Errorf("failed to read back created practitioner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   id,
		"slug": req.SlugSEO,
	}).Info("created practitioner")

	return &created, nil
}

// GetByID gets a practitioner by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Practitioner, error) {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns...)
	sb.From(tableName)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	var p models.Practitioner
	err := r.db.GetContext(ctx, &p, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get practitioner by ID")
		return nil, fmt.Errorf("failed to get practitioner: %w", err)
	}

	return &p, nil
}

// GetBySlug gets an active practitioner by its SEO slug
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Practitioner, error) {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.GetBySlug")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns...)
	sb.From(tableName)
	sb.Where(sb.Equal("slug_seo", slug))

	query, args := sb.Build()

	var p models.Practitioner
	err := r.db.GetContext(ctx, &p, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get practitioner by slug")
		return nil, fmt.Errorf("failed to get practitioner: %w", err)
	}

	return &p, nil
}

// Search lists practitioners for the public directory. Only active records
// are returned; sorting follows the site's pertinence/alpha/recent modes.
func (r *Repository) Search(ctx context.Context, req models.SearchPractitionersRequest) (*models.PractitionerListResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.Search")
	defer span.End()

	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	buildWhere := func(sb *sqlbuilder.SelectBuilder) {
		where := []string{sb.Equal("status", models.PractitionerStatusActive)}
		if req.Specialty != "" {
			where = append(where, sb.Equal("specialty", req.Specialty))
		}
		if req.City != "" {
			where = append(where, sb.ILike("city", "%"+req.City+"%"))
		}
		if req.Query != "" {
			pattern := "%" + req.Query + "%"
			where = append(where, sb.Or(sb.ILike("name", pattern), sb.ILike("specialty", pattern)))
		}
		sb.Where(where...)
	}

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From(tableName)
	buildWhere(countSb)
	countQuery, countArgs := countSb.Build()

	var totalCount int
	if err := r.db.GetContext(ctx, &totalCount, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to count practitioners")
		return nil, fmt.Errorf("failed to count practitioners: %w", err)
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns...)
	sb.From(tableName)
	buildWhere(sb)

	switch req.Sort {
	case "alpha":
		sb.OrderBy("name ASC")
	case "recent":
		sb.OrderBy("created_at DESC", "name ASC")
	default: // pertinence
		sb.OrderBy("quality_score DESC NULLS LAST", "name ASC")
	}
	sb.Limit(pageSize)
	sb.Offset(offset)

	query, args := sb.Build()

	var items []models.Practitioner
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to search practitioners")
		return nil, fmt.Errorf("failed to search practitioners: %w", err)
	}

	return &models.PractitionerListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// Update applies a sparse admin update; nil fields are left untouched.
func (r *Repository) Update(ctx context.Context, id string, req models.UpdatePractitionerRequest) (*models.Practitioner, error) {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.Update")
	defer span.End()

	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Specialty != nil {
		patch["specialty"] = *req.Specialty
	}
	if req.Region != nil {
		patch["region"] = *req.Region
	}
	if req.City != nil {
		patch["city"] = *req.City
	}
	if req.AddressFull != nil {
		patch["address_full"] = *req.AddressFull
	}
	if req.Lat != nil {
		patch["lat"] = *req.Lat
	}
	if req.Lng != nil {
		patch["lng"] = *req.Lng
	}
	if req.PhoneNorm != nil {
		patch["phone_norm"] = *req.PhoneNorm
	}
	if req.Website != nil {
		patch["website"] = *req.Website
	}
	if req.ProfileURL != nil {
		patch["profile_url"] = *req.ProfileURL
	}
	if req.Status != nil {
		patch["status"] = *req.Status
	}
	if req.IsVerified != nil {
		patch["is_verified"] = *req.IsVerified
	}

	if len(patch) == 0 {
		return r.GetByID(ctx, id)
	}

	if err := r.SparsePatch(ctx, id, patch); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// SparsePatch writes only the given columns. Used by admin updates and the
// import publisher, where a blank source cell must never blank out good data.
func (r *Repository) SparsePatch(ctx context.Context, id string, patch map[string]any) error {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.SparsePatch")
	defer span.End()

	if len(patch) == 0 {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("updated_at", time.Now()))
	for col, val := range patch {
		sb.SetMore(sb.Assign(col, val))
	}
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to patch practitioner")
		return fmt.Errorf("failed to patch practitioner: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"columns":       len(patch),
		"rows_affected": rowsAffected,
	}).Info("patched practitioner")

	return nil
}

// SetStatus activates or deactivates a record. Records are never deleted.
func (r *Repository) SetStatus(ctx context.Context, id string, status string) error {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.SetStatus")
	defer span.End()

	return r.SparsePatch(ctx, id, map[string]any{"status": status})
}

// MarkClaimed flags a practitioner as claimed and stores the approved
// claimant contact payload.
func (r *Repository) MarkClaimed(ctx context.Context, id string, contact models.ClaimContact) error {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.MarkClaimed")
	defer span.End()

	contactJSON, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("failed to marshal claim contact: %w", err)
	}

	return r.SparsePatch(ctx, id, map[string]any{
		"is_claimed":      true,
		"claimed_at":      time.Now(),
		"claimed_contact": contactJSON,
	})
}

// MatchFields bulk-reads the fields used for import duplicate detection.
// One snapshot per import run; the caller builds its index from this.
func (r *Repository) MatchFields(ctx context.Context) ([]models.MatchFields, error) {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.MatchFields")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "slug_seo", "phone_norm", "profile_url")
	sb.From(tableName)

	query, args := sb.Build()

	var fields []models.MatchFields
	if err := r.db.SelectContext(ctx, &fields, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to read match fields")
		return nil, fmt.Errorf("failed to read match fields: %w", err)
	}

	return fields, nil
}

// Stats aggregates the data-health dashboard numbers.
func (r *Repository) Stats(ctx context.Context) (*models.DirectoryStats, error) {
	ctx, span := tracing.StartSpan(ctx, "PractitionerRepository.Stats")
	defer span.End()

	stats := &models.DirectoryStats{}

	counts := []struct {
		dest      *int
		condition string
	}{
		{&stats.ActiveCount, "status = 'active'"},
		{&stats.InactiveCount, "status <> 'active'"},
		{&stats.ClaimedCount, "is_claimed = TRUE"},
		{&stats.VerifiedCount, "is_verified = TRUE"},
		{&stats.MissingCoords, "status = 'active' AND (lat IS NULL OR lng IS NULL)"},
		{&stats.MissingCity, "status = 'active' AND (city IS NULL OR city = '')"},
		{&stats.MissingPhone, "status = 'active' AND (phone_norm IS NULL OR phone_norm = '')"},
	}

	for _, c := range counts {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", tableName, c.condition)
		if err := r.db.GetContext(ctx, c.dest, query); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to aggregate practitioner stats")
			return nil, fmt.Errorf("failed to aggregate stats: %w", err)
		}
	}
	stats.Total = stats.ActiveCount + stats.InactiveCount

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns...)
	sb.From(tableName)
	sb.OrderBy("created_at DESC")
	sb.Limit(5)

	query, args := sb.Build()
	if err := r.db.SelectContext(ctx, &stats.RecentPractitioners, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list recent practitioners")
		return nil, fmt.Errorf("failed to list recent practitioners: %w", err)
	}

	return stats, nil
}
