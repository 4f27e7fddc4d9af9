package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"markettwits-digest-bot/internal/domain"
)

// RedisRunQueue реализует очередь заданий на базе Redis lists.
type RedisRunQueue struct {
	client *redis.Client
	key    string
}

// NewRedisRunQueue создаёт очередь по указанному ключу.
func NewRedisRunQueue(client *redis.Client, key string) *RedisRunQueue {
	return &RedisRunQueue{client: client, key: key}
}

// Enqueue публикует задание в очередь.
func (q *RedisRunQueue) Enqueue(ctx context.Context, job domain.RunJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задание из очереди.
func (q *RedisRunQueue) Pop(ctx context.Context) (domain.RunJob, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.RunJob{}, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.RunJob{}, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.RunJob{}, err
		}
		if len(res) != 2 {
			return domain.RunJob{}, errors.New("redis queue: unexpected response")
		}
		var job domain.RunJob
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			return domain.RunJob{}, fmt.Errorf("decode job: %w", err)
		}
		return job, nil
	}
}
