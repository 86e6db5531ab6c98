package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Routing keys published by the quality monitor.
const (
	KeyAnomalyDetected      = "anomaly.detected"
	KeyRecommendationIssued = "recommendation.issued"
	KeyDataImported         = "process_data.imported"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body json.RawMessage) error
}

// RabbitPublisher publishes JSON messages to a durable topic exchange.
type RabbitPublisher struct {
	mu       sync.Mutex // amqp channels are not safe for concurrent publishes
	channel  *amqp.Channel
	exchange string
}

func NewRabbitPublisher(conn *amqp.Connection, exchange string) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true, // durable
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return &RabbitPublisher{channel: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, body json.RawMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (p *RabbitPublisher) Close() error { return p.channel.Close() }

// LogPublisher writes events to the logger when no broker is configured.
type LogPublisher struct{ log *zap.Logger }

func NewLogPublisher(log *zap.Logger) *LogPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, routingKey string, body json.RawMessage) error {
	p.log.Info("event", zap.String("routing_key", routingKey), zap.ByteString("body", body))
	return nil
}

// RetryPolicy bounds PublishWithRetry.
type RetryPolicy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

var DefaultRetry = RetryPolicy{
	BaseDelay:   500 * time.Millisecond,
	MaxDelay:    10 * time.Second,
	MaxAttempts: 5,
}

// PublishWithRetry retries with exponential backoff until the attempts
// run out or ctx is done.
func PublishWithRetry(ctx context.Context, p Publisher, routingKey string, body json.RawMessage, rp RetryPolicy) error {
	if rp.MaxAttempts <= 0 {
		rp.MaxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= rp.MaxAttempts; attempt++ {
		err := p.Publish(ctx, routingKey, body)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == rp.MaxAttempts {
			break
		}

		backoff := rp.BaseDelay << (attempt - 1)
		if rp.MaxDelay > 0 && backoff > rp.MaxDelay {
			backoff = rp.MaxDelay
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return fmt.Errorf("publish %s: %w (last error: %v)", routingKey, ctx.Err(), lastErr)
		}
	}
	return fmt.Errorf("publish %s failed after %d attempts: %w", routingKey, rp.MaxAttempts, lastErr)
}

// Marshal encodes v for Publish.
func Marshal(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return b, nil
}
