// Package events handles event emission for directory record changes.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/equisoins/clover/internal/tracing"
	"github.com/equisoins/clover/pkg/kafka"
	"github.com/equisoins/clover/pkg/models"
)

// Emitter publishes directory lifecycle events. Emission is best-effort:
// failures are logged and swallowed so a broker outage never fails an
// admin request.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil producer disables emission.
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitPractitionerCreated emits a practitioner.created event
func (e *Emitter) EmitPractitionerCreated(ctx context.Context, p *models.Practitioner) {
	e.emit(ctx, "practitioner.created", p.ID, p)
}

// EmitPractitionerUpdated emits a practitioner.updated event
func (e *Emitter) EmitPractitionerUpdated(ctx context.Context, p *models.Practitioner) {
	e.emit(ctx, "practitioner.updated", p.ID, p)
}

// EmitPractitionerClaimed emits a practitioner.claimed event
func (e *Emitter) EmitPractitionerClaimed(ctx context.Context, practitionerID string, claim *models.ClaimRequest) {
	e.emit(ctx, "practitioner.claimed", practitionerID, map[string]any{
		"claim_id":      claim.ID,
		"claimer_email": claim.ClaimerEmail,
	})
}

// EmitImportPublished emits an import.published event with the batch summary
func (e *Emitter) EmitImportPublished(ctx context.Context, summary *models.ImportSummary) {
	e.emit(ctx, "import.published", "", summary)
}

func (e *Emitter) emit(ctx context.Context, eventType, practitionerID string, payload any) {
	if e.producer == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("event_type", eventType).Error("Failed to marshal event payload")
		return
	}

	event := &kafka.DirectoryEvent{
		EventType:      eventType,
		PractitionerID: practitionerID,
		Data:           data,
	}

	if err := e.producer.PublishDirectoryEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithField("event_type", eventType).Error("Failed to emit directory event")
	}
}
