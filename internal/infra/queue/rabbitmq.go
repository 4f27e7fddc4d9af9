package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/metrics"
)

// RabbitRunQueue реализует очередь заданий через RabbitMQ.
type RabbitRunQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	consumeOnce sync.Once
	deliveries  <-chan amqp.Delivery
	consumeErr  error
}

// NewRabbitRunQueue подключается к RabbitMQ и объявляет durable-очередь.
func NewRabbitRunQueue(amqpURL, queueName string) (*RabbitRunQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queueName == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitRunQueue{conn: conn, ch: ch, queue: queueName}, nil
}

// Enqueue публикует задание в очередь.
func (q *RabbitRunQueue) Enqueue(ctx context.Context, job domain.RunJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.RequestedAt,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задание из очереди.
func (q *RabbitRunQueue) Pop(ctx context.Context) (domain.RunJob, error) {
	q.consumeOnce.Do(func() {
		q.deliveries, q.consumeErr = q.ch.Consume(q.queue, "", false, false, false, false, nil)
	})
	if q.consumeErr != nil {
		return domain.RunJob{}, fmt.Errorf("start consumer: %w", q.consumeErr)
	}
	for {
		select {
		case <-ctx.Done():
			return domain.RunJob{}, ctx.Err()
		case delivery, ok := <-q.deliveries:
			if !ok {
				return domain.RunJob{}, errors.New("rabbitmq: канал доставки закрыт")
			}
			var job domain.RunJob
			if err := json.Unmarshal(delivery.Body, &job); err != nil {
				_ = delivery.Nack(false, false)
				return domain.RunJob{}, fmt.Errorf("decode job: %w", err)
			}
			if err := delivery.Ack(false); err != nil {
				return domain.RunJob{}, fmt.Errorf("ack job: %w", err)
			}
			return job, nil
		}
	}
}

// Close освобождает канал и соединение.
func (q *RabbitRunQueue) Close() error {
	chErr := q.ch.Close()
	connErr := q.conn.Close()
	if chErr != nil {
		return chErr
	}
	return connErr
}
