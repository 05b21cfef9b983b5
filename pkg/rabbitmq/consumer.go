package rabbitmq

import (
	"context"
	"github.com/cenkalti/backoff/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"sync"
	"time"
	"worker-analysis/config"
	"worker-analysis/pkg/metrics"
)

const defaultMaxTries = 5

type Queue struct {
	Exchange             string
	Name                 string
	RoutingKey           string
	DeadLetterExchange   string
	DeadLetterQueue      string
	DeadLetterRoutingKey string
}

var AnalysisQueue = Queue{
	Exchange:             "analysis_exchange",
	Name:                 "analysis_queue",
	RoutingKey:           "analysis.request",
	DeadLetterExchange:   "analysis_exchange_dlx",
	DeadLetterQueue:      "analysis_queue_dlq",
	DeadLetterRoutingKey: "dlq.analysis.request",
}

const ResultRoutingKey = "analysis.result"

// Handler processes one delivery. Returning a backoff.Permanent error sends
// the message straight to the dead letter queue; other errors are retried.
type Handler[T any] func(ctx context.Context, msg amqp.Delivery, dependencies T) error

type Consumer[T any] interface {
	Consume(ctx context.Context, dependencies T) error
}

type consumer[T any] struct {
	conn       *amqp.Connection
	cfg        *config.RabbitMQ
	queue      Queue
	handler    Handler[T]
	numWorkers int
	maxTries   uint
	newBackOff func() backoff.BackOff
}

func (c consumer[T]) Consume(ctx context.Context, dependencies T) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := c.declare(ctx, ch); err != nil {
		return err
	}

	err = ch.Qos(c.numWorkers, 0, false)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", c.queue.Name).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(c.queue.Name, "", false, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", c.queue.Name).Msg("failed to consume queue")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("queue", c.queue.Name).
		Str("exchange", c.queue.Exchange).
		Str("routing_key", c.queue.RoutingKey).
		Int("workers", c.numWorkers).
		Msg("consumer started")

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= c.numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			for msg := range jobs {
				c.process(ctx, workerId, msg, dependencies)
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}

			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

func (c consumer[T]) declare(ctx context.Context, ch *amqp.Channel) error {
	q := c.queue
	err := ch.ExchangeDeclare(q.Exchange, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", q.Exchange).Msg("failed to declare exchange")
		return err
	}

	err = ch.ExchangeDeclare(q.DeadLetterExchange, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("exchange", q.DeadLetterExchange).Msg("failed to declare dlx")
		return err
	}

	dlq, err := ch.QueueDeclare(q.DeadLetterQueue, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", q.DeadLetterQueue).Msg("failed to declare dlq")
		return err
	}

	err = ch.QueueBind(dlq.Name, q.DeadLetterRoutingKey, q.DeadLetterExchange, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", q.DeadLetterQueue).Msg("failed to bind dlq")
		return err
	}

	queue, err := ch.QueueDeclare(q.Name, true, false, false, false, q.deadLetterArgs())
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", q.Name).Msg("failed to declare queue")
		return err
	}

	err = ch.QueueBind(queue.Name, q.RoutingKey, q.Exchange, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Str("queue", q.Name).Msg("failed to bind queue")
		return err
	}
	return nil
}

func (q Queue) deadLetterArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    q.DeadLetterExchange,
		"x-dead-letter-routing-key": q.DeadLetterRoutingKey,
	}
}

// process runs the handler with retries, then acks the message or
// dead-letters it.
func (c consumer[T]) process(ctx context.Context, workerId int, msg amqp.Delivery, dependencies T) {
	operation := func() (struct{}, error) {
		return struct{}{}, c.handler(ctx, msg, dependencies)
	}

	_, err := backoff.Retry(ctx, operation, backoff.WithBackOff(c.newBackOff()), backoff.WithMaxTries(c.maxTries))
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int("worker_id", workerId).Str("queue", c.queue.Name).Msg("failed to handle message")
		metrics.QueueMessagesTotal.WithLabelValues(c.queue.Name, "dead_lettered").Inc()
		if nackErr := msg.Nack(false, false); nackErr != nil {
			zerolog.Ctx(ctx).Error().Err(nackErr).Msg("failed to nack message to send to DLQ")
		}
		return
	}

	metrics.QueueMessagesTotal.WithLabelValues(c.queue.Name, "acked").Inc()
	if ackErr := msg.Ack(false); ackErr != nil {
		zerolog.Ctx(ctx).Error().Err(ackErr).Msg("failed to acknowledge message")
	}
}

func exponentialBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = 10 * time.Second
	return bo
}

func NewConsumer[T any](
	conn *amqp.Connection,
	cfg *config.RabbitMQ,
	queue Queue,
	numWorkers int,
	handler Handler[T],
) Consumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &consumer[T]{
		conn:       conn,
		cfg:        cfg,
		queue:      queue,
		handler:    handler,
		numWorkers: numWorkers,
		maxTries:   defaultMaxTries,
		newBackOff: exponentialBackOff,
	}
}
