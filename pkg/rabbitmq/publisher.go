package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"sync"
	"time"
	"worker-analysis/config"
)

// Publisher sends JSON messages to one exchange. A channel is not safe for
// concurrent publishing, so calls are serialized.
type Publisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, cfg.Kind, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", p.exchange, routingKey, err)
	}
	zerolog.Ctx(ctx).Debug().Str("exchange", p.exchange).Str("routing_key", routingKey).Msg("message published")
	return nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}
