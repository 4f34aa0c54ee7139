package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange — topic exchange для событий.
const DefaultExchange = "colony.events"

// Binding — очередь и шаблон routing key.
type Binding struct {
	Queue   string
	Pattern string
}

// Topology описывает exchange и служебные очереди.
type Topology struct {
	Exchange string
	Bindings []Binding
}

// DefaultTopology — exchange colony.events и очередь сбоев.
//
//	colony.events (topic)
//	└── colony.events.failed [routing: #.failed]
func DefaultTopology(exchange string) Topology {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return Topology{
		Exchange: exchange,
		Bindings: []Binding{
			{Queue: exchange + ".failed", Pattern: "#.failed"},
		},
	}
}

// SetupTopology объявляет exchange, очереди и привязки. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection, topo Topology) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			topo.Exchange, // name
			"topic",       // type
			true,          // durable
			false,         // auto-deleted
			false,         // internal
			false,         // no-wait
			nil,           // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", topo.Exchange, err)
		}

		for _, b := range topo.Bindings {
			if _, err := ch.QueueDeclare(b.Queue, true, false, false, false, nil); err != nil {
				return fmt.Errorf("declare queue %s: %w", b.Queue, err)
			}
			if err := ch.QueueBind(b.Queue, b.Pattern, topo.Exchange, false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.Queue, topo.Exchange, err)
			}
		}
		return nil
	})
}
