package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/quiz-service/internal/events"
)

// publishEvent emits an integration event after the unit of work committed.
// The state change already happened, so a failed publish is only logged.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, data interface{}) {
	if publisher == nil {
		return
	}
	event := events.NewEvent(eventType, data)
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("Failed to publish integration event",
			"event_type", eventType,
			"event_id", event.ID,
			"error", err)
	}
}
