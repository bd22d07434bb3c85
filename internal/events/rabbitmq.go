// Package events publishes sale lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"pos_sales/internal/sales"
)

const (
	ExchangeName = "pos.sales"
	ExchangeType = "topic"

	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

// SetupConn dials the broker, retrying while it starts, and declares the
// sales exchange.
func SetupConn(url string, logger *zap.Logger) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := dialWithRetry(func() (*amqp.Connection, error) { return amqp.Dial(url) }, time.Sleep, logger)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		ExchangeName, // name
		ExchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("could not declare exchange: %w", err)
	}

	return conn, ch, nil
}

// dialWithRetry makes up to dialAttempts calls to dial, sleeping between
// attempts but not after the last one.
func dialWithRetry(dial func() (*amqp.Connection, error), sleep func(time.Duration), logger *zap.Logger) (*amqp.Connection, error) {
	var err error
	for i := 0; i < dialAttempts; i++ {
		var conn *amqp.Connection
		conn, err = dial()
		if err == nil {
			return conn, nil
		}
		logger.Warn("failed to connect to RabbitMQ", zap.Int("attempt", i+1), zap.Error(err))
		if i < dialAttempts-1 {
			sleep(dialBackoff)
		}
	}
	return nil, fmt.Errorf("could not connect to RabbitMQ: %w", err)
}

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends events to the sales exchange, routed by event type.
type Publisher struct {
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) Publish(ctx context.Context, event sales.SaleEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		ExchangeName,       // exchange
		string(event.Type), // routing key
		false,              // mandatory
		false,              // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.SaleID,
			Timestamp:    event.OccurredAt,
			Type:         string(event.Type),
			Body:         body,
		},
	)
}
