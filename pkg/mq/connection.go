package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	contracts "github.com/johnassefatheeth/pm-f-d/contracts/mq"
	"github.com/johnassefatheeth/pm-f-d/pkg/config"
)

const (
	defaultConnectionName = "projectd"
	heartbeat             = 10 * time.Second
)

// exchangeName returns the configured exchange or the project events one.
func exchangeName(cfg config.MQConfig) string {
	if cfg.Exchange != "" {
		return cfg.Exchange
	}
	return contracts.Exchange
}

// dial opens a named connection and a channel with the exchange declared.
// The caller owns both.
func dial(cfg config.MQConfig) (*amqp091.Connection, *amqp091.Channel, error) {
	name := cfg.ConnectionName
	if name == "" {
		name = defaultConnectionName
	}
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(name)

	conn, err := amqp091.DialConfig(cfg.URL, amqp091.Config{
		Heartbeat:  heartbeat,
		Properties: props,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// durable topic exchange, 与 routing key 约定见 contracts/mq
	if err := ch.ExchangeDeclare(exchangeName(cfg), "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", exchangeName(cfg), err)
	}
	return conn, ch, nil
}
