package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"markettwits-digest-bot/internal/adapters/bot"
	"markettwits-digest-bot/internal/adapters/repo"
	"markettwits-digest-bot/internal/adapters/telegram"
	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/cache"
	"markettwits-digest-bot/internal/infra/config"
	"markettwits-digest-bot/internal/infra/db"
	httpinfra "markettwits-digest-bot/internal/infra/http"
	"markettwits-digest-bot/internal/infra/log"
	"markettwits-digest-bot/internal/infra/metrics"
	"markettwits-digest-bot/internal/infra/queue"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := log.NewLogger(cfg.AppEnv)

	if cfg.Telegram.BotToken == "" || cfg.PGDSN == "" {
		logger.Fatal().Msg("нужны TELEGRAM_BOT_TOKEN и PG_DSN")
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
		logger.Warn().Msg("очередь заданий не настроена: нет ни RABBITMQ_URL, ни REDIS_ADDR")
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("не удалось создать бота")
	}
	sender := telegram.NewSender(botAPI, logger)
	handler := bot.NewHandler(logger, sender, store, store, digestCache)

	srv := httpinfra.NewServer(logger)

	// Вебхук подтверждается всегда: Telegram не должен ретраить апдейты,
	// которые мы не смогли разобрать.
	srv.Router.Post("/bot/webhook", func(w http.ResponseWriter, r *http.Request) {
		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn().Err(err).Msg("не удалось разобрать апдейт вебхука")
			w.WriteHeader(http.StatusOK)
			return
		}
		handler.HandleUpdate(r.Context(), update)
		w.WriteHeader(http.StatusOK)
	})

	// Ручной запуск дайджеста за вчерашний день.
	srv.Router.Post("/jobs/daily", func(w http.ResponseWriter, r *http.Request) {
		if runQueue == nil {
			http.Error(w, "очередь заданий не настроена", http.StatusServiceUnavailable)
			return
		}
		now := time.Now().UTC()
		job := domain.RunJob{
			ID:          uuid.NewString(),
			Date:        now.AddDate(0, 0, -1),
			RequestedAt: now,
			Cause:       domain.RunCauseManual,
		}
		if err := runQueue.Enqueue(r.Context(), job); err != nil {
			logger.Error().Err(err).Msg("не удалось поставить задание")
			http.Error(w, "не удалось поставить задание", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": job.ID})
	})

	go func() {
		if err := srv.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("HTTP сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("остановка бот-гейтвея")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
