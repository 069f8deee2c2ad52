// Package importer implements the CSV bulk-import pipeline: parse, normalize,
// match against the existing directory, then publish the accepted rows.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/equisoins/clover/internal/repositories/practitioner"
	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/events"
	"github.com/equisoins/clover/pkg/metrics"
	"github.com/equisoins/clover/pkg/models"
)

// PractitionerStore is the slice of the practitioner repository the importer
// needs. Create must return practitioner.ErrSlugTaken on slug conflicts.
type PractitionerStore interface {
	MatchFields(ctx context.Context) ([]models.MatchFields, error)
	Create(ctx context.Context, req models.CreatePractitionerRequest) (*models.Practitioner, error)
	SparsePatch(ctx context.Context, id string, patch map[string]any) error
}

// AuditRecorder records admin actions
type AuditRecorder interface {
	Record(ctx context.Context, action, entityType, entityID string, before, after any)
}

// Service runs import previews and publishes
type Service struct {
	store       PractitionerStore
	audits      AuditRecorder
	emitter     *events.Emitter
	logger      ectologger.Logger
	maxRows     int
	slugRetries int
}

// NewService creates a new import service
func NewService(store PractitionerStore, audits AuditRecorder, emitter *events.Emitter, logger ectologger.Logger, maxRows, slugRetries int) *Service {
	if slugRetries < 1 {
		slugRetries = 3
	}
	return &Service{
		store:       store,
		audits:      audits,
		emitter:     emitter,
		logger:      logger,
		maxRows:     maxRows,
		slugRetries: slugRetries,
	}
}

// Preview parses a CSV stream and classifies every row against a fresh
// snapshot of the directory. Nothing is written; the returned rows are the
// exact payload a subsequent Publish consumes.
func (s *Service) Preview(ctx context.Context, file io.Reader) ([]models.ImportRow, error) {
	ctx, span := tracing.StartSpan(ctx, "ImportService.Preview")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ImportBatchDuration.WithLabelValues("preview").Observe(time.Since(start).Seconds())
	}()

	records, err := parseCSV(file, s.maxRows)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.MatchFields(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing records for matching: %w", err)
	}
	index := newMatchIndex(existing)

	rows := make([]models.ImportRow, 0, len(records))
	for i, record := range records {
		candidate, status, reasons := normalizeRow(record)
		row := models.ImportRow{
			Status:        status,
			Reasons:       reasons,
			Data:          candidate,
			OriginalIndex: i,
		}
		index.classify(&row)
		metrics.ImportRowsTotal.WithLabelValues(string(row.Status)).Inc()
		rows = append(rows, row)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"rows": len(rows),
	}).Info("previewed import batch")

	return rows, nil
}

// Publish applies the accepted dispositions of a previewed batch. Row
// failures are isolated: each one increments the errors counter and the loop
// moves on. The match index may be stale by publish time; a fresh slug
// collision is absorbed by the insert retry.
func (s *Service) Publish(ctx context.Context, rows []models.ImportRow) *models.ImportSummary {
	ctx, span := tracing.StartSpan(ctx, "ImportService.Publish")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ImportBatchDuration.WithLabelValues("publish").Observe(time.Since(start).Seconds())
	}()

	summary := &models.ImportSummary{Total: len(rows)}

	for _, row := range rows {
		switch {
		case row.Status == models.RowStatusError || row.Status == models.RowStatusNeedsReview:
			summary.Skipped++
			metrics.ImportPublishResultsTotal.WithLabelValues("skipped").Inc()

		case row.Status == models.RowStatusUpdate && row.ExistingID != "":
			s.publishUpdate(ctx, row, summary)

		default:
			s.publishInsert(ctx, row, summary)
		}
	}

	s.audits.Record(ctx, "import.bulk", "practitioners", "batch",
		map[string]any{"count": len(rows)},
		map[string]any{"inserted": summary.Inserted, "updated": summary.Updated, "errors": summary.Errors},
	)
	s.emitter.EmitImportPublished(ctx, summary)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"total":    summary.Total,
		"inserted": summary.Inserted,
		"updated":  summary.Updated,
		"skipped":  summary.Skipped,
		"errors":   summary.Errors,
	}).Info("published import batch")

	return summary
}

// publishUpdate patches an existing record with the row's non-empty fields.
// Blank source cells never overwrite stored data, and the name is never
// touched by an update match.
func (s *Service) publishUpdate(ctx context.Context, row models.ImportRow, summary *models.ImportSummary) {
	patch := map[string]any{}
	setIf := func(column, value string) {
		if value != "" {
			patch[column] = value
		}
	}
	setIfPtr := func(column string, value *string) {
		if value != nil && *value != "" {
			patch[column] = *value
		}
	}

	setIf("specialty", row.Data.Specialty)
	setIf("region", row.Data.Region)
	setIfPtr("city", row.Data.City)
	setIfPtr("address_full", row.Data.AddressFull)
	if row.Data.Lat != nil {
		patch["lat"] = *row.Data.Lat
	}
	if row.Data.Lng != nil {
		patch["lng"] = *row.Data.Lng
	}
	setIfPtr("phone_norm", row.Data.PhoneNorm)
	setIfPtr("website", row.Data.Website)
	setIfPtr("profile_url", row.Data.ProfileURL)
	setIf("status", row.Data.Status)

	if len(patch) == 0 {
		summary.Skipped++
		metrics.ImportPublishResultsTotal.WithLabelValues("skipped").Inc()
		return
	}

	if err := s.store.SparsePatch(ctx, row.ExistingID, patch); err != nil {
		s.rowFailed(ctx, row, summary, err.Error())
		return
	}

	summary.Updated++
	metrics.ImportPublishResultsTotal.WithLabelValues("updated").Inc()
}

// publishInsert inserts a new record, regenerating the slug with a random
// numeric suffix when it collides with one created since the preview.
func (s *Service) publishInsert(ctx context.Context, row models.ImportRow, summary *models.ImportSummary) {
	slug := row.Data.SlugSEO

	for attempt := 0; attempt < s.slugRetries; attempt++ {
		req := models.CreatePractitionerRequest{
			Name:        row.Data.Name,
			Specialty:   row.Data.Specialty,
			Region:      row.Data.Region,
			City:        row.Data.City,
			AddressFull: row.Data.AddressFull,
			Lat:         row.Data.Lat,
			Lng:         row.Data.Lng,
			PhoneNorm:   row.Data.PhoneNorm,
			Website:     row.Data.Website,
			ProfileURL:  row.Data.ProfileURL,
			Status:      row.Data.Status,
			IsVerified:  row.Data.IsVerified,
			SlugSEO:     slug,
		}

		created, err := s.store.Create(ctx, req)
		if err == nil {
			summary.Inserted++
			metrics.ImportPublishResultsTotal.WithLabelValues("inserted").Inc()
			s.emitter.EmitPractitionerCreated(ctx, created)
			return
		}

		if errors.Is(err, practitioner.ErrSlugTaken) {
			slug = fmt.Sprintf("%s-%d", row.Data.SlugSEO, rand.Intn(1000))
			continue
		}

		s.rowFailed(ctx, row, summary, err.Error())
		return
	}

	s.rowFailed(ctx, row, summary, fmt.Sprintf("slug collision persisted after %d attempts", s.slugRetries))
}

func (s *Service) rowFailed(ctx context.Context, row models.ImportRow, summary *models.ImportSummary, reason string) {
	summary.Errors++
	summary.ErrorDetails = append(summary.ErrorDetails, models.RowError{
		OriginalIndex: row.OriginalIndex,
		Name:          row.Data.Name,
		Reason:        reason,
	})
	metrics.ImportPublishResultsTotal.WithLabelValues("errors").Inc()
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"original_index": row.OriginalIndex,
		"name":           row.Data.Name,
		"reason":         reason,
	}).Error("failed to publish import row")
}
