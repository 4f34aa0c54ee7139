package natsbus

import (
	"context"
	"log/slog"

	"github.com/shaiso/Colony/internal/events"
)

// EventPublisher — events.Notifier, публикующий события в NATS.
type EventPublisher struct {
	client *Client
	logger *slog.Logger
}

// NewEventPublisher создаёт EventPublisher.
func NewEventPublisher(client *Client, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{client: client, logger: logger}
}

// Notify реализует events.Notifier.
func (p *EventPublisher) Notify(_ context.Context, e events.Event) {
	subject := TopicFor(e)
	if subject == "" {
		p.logger.Debug("event without graph or swarm id skipped", "type", e.Type)
		return
	}

	if err := p.client.PublishJSON(subject, events.Stamp(e)); err != nil {
		p.logger.Warn("failed to publish event", "type", e.Type, "subject", subject, "error", err)
	}
}
