package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/johnassefatheeth/pm-f-d/pkg/config"
	"github.com/johnassefatheeth/pm-f-d/pkg/metrics"
	"github.com/johnassefatheeth/pm-f-d/pkg/otel"
	"github.com/johnassefatheeth/pm-f-d/pkg/trace"
)

// Publisher publishes JSON events to the project events exchange. amqp
// channels are not safe for concurrent publishing, so Publish is serialised.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
}

func NewPublisher(cfg config.MQConfig) (*Publisher, error) {
	conn, ch, err := dial(cfg)
	if err != nil {
		return nil, err
	}
	return &Publisher{
		conn:     conn,
		channel:  ch,
		exchange: exchangeName(cfg),
	}, nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// IsConnected checks if the publisher connection is still alive
func (p *Publisher) IsConnected() bool {
	if p.conn == nil || p.channel == nil {
		return false
	}
	return !p.conn.IsClosed()
}

// Publish publishes an event to the exchange with the given routing key.
func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}

	headers := amqp091.Table{}
	if traceID := trace.FromContext(ctx); traceID != "" {
		headers[trace.HeaderName()] = traceID
	}
	ctx, span := otel.MQPublishSpan(ctx, p.exchange, routingKey, headers)
	defer span.End()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Headers:      headers,
			Timestamp:    time.Now(),
			DeliveryMode: amqp091.Persistent,
		},
	)
	metrics.IncrementEventPublished(routingKey, err)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}
