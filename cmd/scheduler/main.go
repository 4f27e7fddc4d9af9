package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/config"
	"markettwits-digest-bot/internal/infra/log"
	"markettwits-digest-bot/internal/infra/queue"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var runQueue domain.RunQueue
	switch {
	case cfg.RabbitURL != "":
		q, err := queue.NewRabbitRunQueue(cfg.RabbitURL, cfg.Queues.Runs)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось подключиться к RabbitMQ")
		}
		defer q.Close()
		runQueue = q
	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		runQueue = queue.NewRedisRunQueue(client, cfg.Queues.Runs)
	default:
		logger.Fatal().Msg("нужна очередь заданий: RABBITMQ_URL или REDIS_ADDR")
	}

	// Расписание всегда в UTC: окно дайджеста привязано к календарному дню UTC.
	c := cron.New(cron.WithLocation(time.UTC))
	_, err = c.AddFunc(cfg.Digest.CronSpec, func() {
		now := time.Now().UTC()
		job := domain.RunJob{
			ID:          uuid.NewString(),
			Date:        now.AddDate(0, 0, -1),
			RequestedAt: now,
			Cause:       domain.RunCauseSchedule,
		}
		enqueueCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := runQueue.Enqueue(enqueueCtx, job); err != nil {
			logger.Error().Err(err).Str("job_id", job.ID).Msg("не удалось поставить задание по расписанию")
			return
		}
		logger.Info().Str("job_id", job.ID).Str("date", job.Date.Format("2006-01-02")).Msg("задание поставлено")
	})
	if err != nil {
		logger.Fatal().Err(err).Str("spec", cfg.Digest.CronSpec).Msg("некорректное cron-выражение")
	}

	c.Start()
	logger.Info().Str("spec", cfg.Digest.CronSpec).Msg("планировщик запущен")

	<-ctx.Done()
	logger.Info().Msg("остановка планировщика")
	<-c.Stop().Done()
}
