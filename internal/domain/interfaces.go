package domain

import (
	"context"
	"time"
)

// Collector выгружает сообщения канала за календарный день.
type Collector interface {
	CollectDay(ctx context.Context, window DigestWindow) ([]NewsItem, error)
}

// Summarizer строит дайджест дня по списку сообщений.
type Summarizer interface {
	SummarizeDay(ctx context.Context, items []NewsItem, date time.Time) (Digest, error)
}

// Messenger доставляет текст подписчику.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// SubscriberRepo управляет ростером подписчиков.
type SubscriberRepo interface {
	AddSubscriber(ctx context.Context, chatID int64) (bool, error)
	RemoveSubscriber(ctx context.Context, chatID int64) (bool, error)
	ListSubscribers(ctx context.Context) ([]int64, error)
}

// DigestRepo хранит историю дайджестов. История только дополняется.
type DigestRepo interface {
	SaveDigest(ctx context.Context, ts time.Time, message string) error
	LatestDigest(ctx context.Context) (string, error)
}

// RunQueue передаёт задания на построение дайджеста воркеру.
type RunQueue interface {
	Enqueue(ctx context.Context, job RunJob) error
	Pop(ctx context.Context) (RunJob, error)
}

// Cache — простое TTL-хранилище для горячих значений.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// LatestDigestCacheKey — ключ кэша с текстом последнего дайджеста.
// Пайплайн пишет его после рассылки, команда /get_latest читает.
const LatestDigestCacheKey = "digest:latest"
