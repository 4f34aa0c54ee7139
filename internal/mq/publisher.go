package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Colony/internal/events"
)

// DefaultPublishTimeout — таймаут одной публикации события.
const DefaultPublishTimeout = 5 * time.Second

// Message — конверт публикуемого сообщения.
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, logger: logger}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange, routingKey string, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Type:         msg.Type,
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// EventPublisher — events.Notifier, публикующий события в topic exchange.
//
// Ошибки публикации логируются и не прерывают выполнение графа или swarm.
type EventPublisher struct {
	publisher *Publisher
	exchange  string
	timeout   time.Duration
	logger    *slog.Logger
}

// NewEventPublisher создаёт EventPublisher поверх соединения.
// Пустой exchange — DefaultExchange.
func NewEventPublisher(conn *Connection, exchange string, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &EventPublisher{
		publisher: NewPublisher(conn, logger),
		exchange:  exchange,
		timeout:   DefaultPublishTimeout,
		logger:    logger,
	}
}

// Notify реализует events.Notifier.
func (p *EventPublisher) Notify(ctx context.Context, e events.Event) {
	msg := EventMessage(e)

	// Отмена выполнения не должна терять событие о ней
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.publisher.Publish(pubCtx, p.exchange, RoutingKey(e), msg); err != nil {
		p.logger.Warn("failed to publish event",
			"type", e.Type,
			"exchange", p.exchange,
			"error", err,
		)
	}
}

// KeepTopology повторно объявляет топологию после каждого переподключения.
// Блокируется до отмены ctx.
func KeepTopology(ctx context.Context, conn *Connection, topo Topology, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-conn.ReconnectNotify():
			if err := SetupTopology(ctx, conn, topo); err != nil {
				logger.Warn("failed to restore topology", "error", err)
			}
		}
	}
}

// RoutingKey возвращает routing key события.
func RoutingKey(e events.Event) string {
	return string(e.Type)
}

// EventMessage упаковывает событие в конверт Message.
func EventMessage(e events.Event) *Message {
	e = events.Stamp(e)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return &Message{
		ID:        e.ID,
		Type:      string(e.Type),
		Payload:   e,
		Timestamp: e.Timestamp,
	}
}
