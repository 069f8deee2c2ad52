package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/equisoins/clover/internal/appcontext"
	"github.com/equisoins/clover/internal/database"
	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/models"
)

const tableName = "admin_audit_logs"

var allColumns = []string{
	"id", "action", "entity_type", "entity_id", "before_data", "after_data",
	"admin_label", "ip", "created_at",
}

// Repository handles audit log persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Record writes an audit entry for an admin action. Failures are logged and
// swallowed: an audit write must never fail the action it describes.
func (r *Repository) Record(ctx context.Context, action, entityType, entityID string, before, after any) {
	ctx, span := tracing.StartSpan(ctx, "AuditRepository.Record")
	defer span.End()

	entry := models.AuditEntry{
		ID:         uuid.New().String(),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		AdminLabel: appcontext.GetAdminLabel(ctx),
		IP:         appcontext.GetRemoteIP(ctx),
		CreatedAt:  time.Now(),
	}

	if before != nil {
		data, err := json.Marshal(before)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Warn("failed to marshal audit before data")
		} else {
			entry.BeforeData = data
		}
	}
	if after != nil {
		data, err := json.Marshal(after)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Warn("failed to marshal audit after data")
		} else {
			entry.AfterData = data
		}
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols(allColumns...)
	sb.Values(entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.BeforeData,
		entry.AfterData, entry.AdminLabel, entry.IP, entry.CreatedAt)

	query, args := sb.Build()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"action":      action,
			"entity_type": entityType,
			"entity_id":   entityID,
		}).Error("failed to write audit entry")
	}
}

// List returns audit entries newest first
func (r *Repository) List(ctx context.Context, page, pageSize int) ([]models.AuditEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "AuditRepository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(allColumns...)
	sb.From(tableName)
	sb.OrderBy("created_at DESC")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()

	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list audit entries")
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, nil
}
