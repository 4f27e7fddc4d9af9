package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/metrics"
)

// Postgres реализует хранилище ростера и истории дайджестов.
//
// Схема:
//
//	CREATE TABLE chat_ids (chat_id BIGINT PRIMARY KEY);
//	CREATE TABLE twits_summary (timestamp TIMESTAMPTZ NOT NULL, message TEXT NOT NULL);
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var (
	_ domain.SubscriberRepo = (*Postgres)(nil)
	_ domain.DigestRepo     = (*Postgres)(nil)
)

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// AddSubscriber добавляет чат в ростер. false — чат уже подписан.
func (p *Postgres) AddSubscriber(ctx context.Context, chatID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `INSERT INTO chat_ids (chat_id) VALUES ($1) ON CONFLICT (chat_id) DO NOTHING`, chatID)
	metrics.ObserveNetworkRequest("postgres", "chat_ids_insert", "chat_ids", start, err)
	if err != nil {
		return false, fmt.Errorf("добавление подписчика: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveSubscriber удаляет чат из ростера. false — чата в ростере не было.
func (p *Postgres) RemoveSubscriber(ctx context.Context, chatID int64) (bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `DELETE FROM chat_ids WHERE chat_id = $1`, chatID)
	metrics.ObserveNetworkRequest("postgres", "chat_ids_delete", "chat_ids", start, err)
	if err != nil {
		return false, fmt.Errorf("удаление подписчика: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListSubscribers возвращает все идентификаторы чатов ростера.
func (p *Postgres) ListSubscribers(ctx context.Context) ([]int64, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT chat_id FROM chat_ids ORDER BY chat_id`)
	metrics.ObserveNetworkRequest("postgres", "chat_ids_select", "chat_ids", start, err)
	if err != nil {
		return nil, fmt.Errorf("выборка подписчиков: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("чтение подписчика: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("обход подписчиков: %w", err)
	}
	return ids, nil
}

// SaveDigest добавляет запись в историю дайджестов.
func (p *Postgres) SaveDigest(ctx context.Context, ts time.Time, message string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `INSERT INTO twits_summary (timestamp, message) VALUES ($1, $2)`, ts.UTC(), message)
	metrics.ObserveNetworkRequest("postgres", "twits_summary_insert", "twits_summary", start, err)
	if err != nil {
		return fmt.Errorf("сохранение дайджеста: %w", err)
	}
	return nil
}

// LatestDigest возвращает текст последнего дайджеста.
func (p *Postgres) LatestDigest(ctx context.Context) (string, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	var message string
	err := p.pool.QueryRow(ctx, `SELECT message FROM twits_summary ORDER BY timestamp DESC LIMIT 1`).Scan(&message)
	metrics.ObserveNetworkRequest("postgres", "twits_summary_latest", "twits_summary", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNoDigest
	}
	if err != nil {
		return "", fmt.Errorf("выборка последнего дайджеста: %w", err)
	}
	return message, nil
}
