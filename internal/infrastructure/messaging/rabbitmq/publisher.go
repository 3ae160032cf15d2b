package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	amqp "github.com/streadway/amqp"
)

// Config holds RabbitMQ connection details. Queue is declared durable on
// connect and receives every published message through the default exchange.
type Config struct {
	URL   string
	Queue string
}

// Publisher sends JSON messages to a single durable queue.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex
	log     zerolog.Logger
}

// NewPublisher dials the broker, opens a channel and declares the queue.
func NewPublisher(cfg Config, log zerolog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}

	log.Info().Str("queue", cfg.Queue).Msg("rabbitmq publisher ready")
	return &Publisher{conn: conn, channel: ch, queue: cfg.Queue, log: log}, nil
}

// Publish marshals payload and sends it as a persistent message. The routing
// key travels as the message type; delivery always targets the configured
// queue.
func (p *Publisher) Publish(_ context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish(
		"",      // default exchange
		p.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         routingKey,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the channel and then the connection.
func (p *Publisher) Close() error {
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("rabbitmq close: %v", errs)
	}
	return nil
}

// LogPublisher stands in for the broker when none is configured and only
// logs what would have been sent.
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, routingKey string, payload any) error {
	p.log.Info().Str("routing_key", routingKey).Interface("payload", payload).Msg("notification not sent: no broker configured")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
