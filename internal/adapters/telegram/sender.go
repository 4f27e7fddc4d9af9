package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/metrics"
)

// Sender доставляет сообщения подписчикам через Bot API.
// Дайджесты отправляются тихо (без звука) и с HTML-разметкой.
type Sender struct {
	bot *tgbotapi.BotAPI
	log zerolog.Logger
}

// NewSender создаёт мессенджер на базе Bot API.
func NewSender(bot *tgbotapi.BotAPI, log zerolog.Logger) *Sender {
	return &Sender{bot: bot, log: log}
}

var _ domain.Messenger = (*Sender)(nil)

// Send отправляет текст в чат, разбивая его по лимиту Telegram.
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, part := range SplitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableNotification = true
		start := time.Now()
		_, err := s.bot.Send(msg)
		metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(chatID, 10), start, err)
		if err != nil {
			return fmt.Errorf("отправка сообщения в чат %d: %w", chatID, err)
		}
	}
	return nil
}
