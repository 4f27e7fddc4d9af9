package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию всех сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	Telegram struct {
		APIID           int    `envconfig:"TELEGRAM_API_ID"`
		APIHash         string `envconfig:"TELEGRAM_API_HASH"`
		SessionString   string `envconfig:"TELEGRAM_SESSION_STRING"`
		ChannelUsername string `envconfig:"TELEGRAM_CHANNEL_USERNAME" default:"MarketTwits"`
		BotToken        string `envconfig:"TELEGRAM_BOT_TOKEN"`
	} `envconfig:""`

	OpenAI struct {
		APIKey  string        `envconfig:"OPENAI_API_KEY"`
		Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
		BaseURL string        `envconfig:"OPENAI_BASE_URL"`
		Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	} `envconfig:""`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Digest struct {
		PageLimit   int    `envconfig:"DIGEST_PAGE_LIMIT" default:"100"`
		ScanLimit   int    `envconfig:"DIGEST_SCAN_LIMIT" default:"2000"`
		SendWorkers int    `envconfig:"DIGEST_SEND_WORKERS" default:"4"`
		CronSpec    string `envconfig:"DIGEST_CRON" default:"0 3 * * *"`
	} `envconfig:""`

	Queues struct {
		Runs string `envconfig:"DIGEST_QUEUE_KEY" default:"digest_runs"`
	} `envconfig:""`
}

// Load читает конфиг из окружения без валидации обязательных полей.
func Load() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("чтение окружения: %w", err)
	}
	return cfg, nil
}

// Validate проверяет обязательные переменные пайплайна дайджеста.
// Возвращает одну ошибку со списком всех отсутствующих переменных.
func (c AppConfig) Validate() error {
	var missing []string
	if c.Telegram.APIID == 0 {
		missing = append(missing, "TELEGRAM_API_ID")
	}
	if c.Telegram.APIHash == "" {
		missing = append(missing, "TELEGRAM_API_HASH")
	}
	if c.Telegram.SessionString == "" {
		missing = append(missing, "TELEGRAM_SESSION_STRING")
	}
	if c.Telegram.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.PGDSN == "" {
		missing = append(missing, "PG_DSN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("отсутствуют обязательные переменные окружения: %s", strings.Join(missing, ", "))
	}
	return nil
}
