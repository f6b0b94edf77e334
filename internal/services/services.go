package services

import (
	"context"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

// EventPublisher announces record mutations. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishRecordEvent(ctx context.Context, ev *amqp.RecordEvent) error
}

// publishRecordEvent announces a committed change. Failures are only logged:
// the record is already stored and the export worker's pending pass picks it up.
func publishRecordEvent(ctx context.Context, publisher EventPublisher, logger *applog.Logger, event amqp.EventType, r core.Record) {
	if publisher == nil {
		logger.DebugContext(ctx, "No event publisher configured, skipping record event",
			applog.FieldRecordID, r.ID)
		return
	}
	ev := amqp.NewRecordEvent(event, r.ID, r.UserID, r.Version)
	if err := publisher.PublishRecordEvent(ctx, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish record event",
			applog.FieldRecordID, r.ID, applog.FieldError, err)
	}
}
