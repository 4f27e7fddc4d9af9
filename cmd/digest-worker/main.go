package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"markettwits-digest-bot/internal/adapters/mtproto"
	"markettwits-digest-bot/internal/adapters/repo"
	"markettwits-digest-bot/internal/adapters/summarizer"
	"markettwits-digest-bot/internal/adapters/telegram"
	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/cache"
	"markettwits-digest-bot/internal/infra/config"
	"markettwits-digest-bot/internal/infra/db"
	"markettwits-digest-bot/internal/infra/log"
	"markettwits-digest-bot/internal/infra/metrics"
	"markettwits-digest-bot/internal/infra/openai"
	"markettwits-digest-bot/internal/infra/queue"
	"markettwits-digest-bot/internal/usecase/digest"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.NewLogger(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("конфигурация неполна")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.StartServer(ctx, logger, cfg.MetricsAddr)

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось подключиться к БД")
	}
	defer pool.Close()
	store := repo.NewPostgres(pool)

	collector, err := mtproto.NewCollector(
		cfg.Telegram.APIID,
		cfg.Telegram.APIHash,
		cfg.Telegram.SessionString,
		cfg.Telegram.ChannelUsername,
		cfg.Digest.PageLimit,
		cfg.Digest.ScanLimit,
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать коллектор канала")
	}

	openaiClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Timeout)
	summarizerAdapter := summarizer.NewOpenAI(openaiClient, cfg.OpenAI.Model)

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	sender := telegram.NewSender(botAPI, logger)

	var redisClient *redis.Client
	var digestCache domain.Cache
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		digestCache = cache.NewRedis(redisClient)
	}

	var runQueue domain.RunQueue
	switch {
	case cfg.RabbitURL != "":
		q, err := queue.NewRabbitRunQueue(cfg.RabbitURL, cfg.Queues.Runs)
		if err != nil {
			logger.Fatal().Err(err).Msg("не удалось подключиться к RabbitMQ")
		}
		defer q.Close()
		runQueue = q
	case redisClient != nil:
		runQueue = queue.NewRedisRunQueue(redisClient, cfg.Queues.Runs)
	default:
		logger.Fatal().Msg("нужна очередь заданий: RABBITMQ_URL или REDIS_ADDR")
	}

	service := digest.NewService(collector, summarizerAdapter, sender, store, store, digestCache, logger, cfg.Digest.SendWorkers)

	logger.Info().Msg("воркер дайджеста запущен")
	for {
		job, err := runQueue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			logger.Error().Err(err).Msg("не удалось прочитать задание")
			time.Sleep(time.Second)
			continue
		}

		jobLog := logger.With().
			Str("job_id", job.ID).
			Str("cause", string(job.Cause)).
			Logger()
		jobLog.Info().Str("date", job.Date.Format("2006-01-02")).Msg("задание принято")

		var report digest.Report
		if job.Date.IsZero() {
			report, err = service.Run(ctx, time.Now())
		} else {
			report, err = service.RunForDate(ctx, job.Date)
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			jobLog.Error().Err(err).Msg("запуск дайджеста завершился ошибкой")
			continue
		}
		jobLog.Info().
			Str("outcome", string(report.Outcome)).
			Int("news", report.NewsCount).
			Int("sent", report.Sent).
			Int("failed", report.Failed).
			Bool("delivered", report.Delivered).
			Msg("задание обработано")
	}

	logger.Info().Msg("остановка воркера")
}
