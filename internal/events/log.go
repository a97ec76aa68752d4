package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes each event as a structured log record.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger uses slog.Default().
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &LogPublisher{log: log}
}

// Publish implements Publisher.
func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	attrs := []any{
		"type", e.Type,
		"entity_type", e.EntityType,
		"entity_id", e.EntityID,
	}
	if e.ActorUserID != "" {
		attrs = append(attrs, "actor_user_id", e.ActorUserID)
	}
	if len(e.Payload) > 0 {
		attrs = append(attrs, "payload", e.Payload)
	}
	p.log.InfoContext(ctx, "events: published", attrs...)
	return nil
}
