package bot

import (
	"context"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/metrics"
)

const latestDigestCacheTTL = 24 * time.Hour

// Handler маршрутизирует входящие сообщения бота.
type Handler struct {
	log     zerolog.Logger
	sender  domain.Messenger
	subs    domain.SubscriberRepo
	digests domain.DigestRepo
	cache   domain.Cache
}

// NewHandler создаёт обработчик. cache может быть nil.
func NewHandler(log zerolog.Logger, sender domain.Messenger, subs domain.SubscriberRepo, digests domain.DigestRepo, cache domain.Cache) *Handler {
	return &Handler{
		log:     log.With().Str("component", "bot_handler").Logger(),
		sender:  sender,
		subs:    subs,
		digests: digests,
		cache:   cache,
	}
}

// HandleUpdate обрабатывает апдейт вебхука. Апдейты без текстового
// сообщения молча игнорируются.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	h.ProcessMessage(ctx, update.Message.Chat.ID, update.Message.Text)
}

// ProcessMessage обрабатывает одно текстовое сообщение чата.
// Возвращает true, если ответ (при его необходимости) доставлен.
// Не-команды подтверждаются без единой отправки.
func (h *Handler) ProcessMessage(ctx context.Context, chatID int64, text string) bool {
	cmd, ok := ParseCommand(text)
	if !ok {
		return true
	}

	metrics.IncCommand(cmd.Name)
	log := h.log.With().Int64("chat_id", chatID).Str("command", cmd.Name).Logger()

	reply, err := h.dispatch(ctx, chatID, cmd)
	if err != nil {
		log.Error().Err(err).Msg("команда завершилась ошибкой")
		reply = msgCommandError(cmd.Name)
	}

	if sendErr := h.sender.Send(ctx, chatID, reply); sendErr != nil {
		log.Error().Err(sendErr).Msg("не удалось доставить ответ")
		return false
	}
	return true
}

func (h *Handler) dispatch(ctx context.Context, chatID int64, cmd domain.Command) (string, error) {
	switch cmd.Name {
	case "start":
		return msgWelcome, nil
	case "help":
		return msgHelp, nil
	case "subscribe":
		added, err := h.subs.AddSubscriber(ctx, chatID)
		if err != nil {
			return "", err
		}
		if !added {
			return msgAlreadySubscribed, nil
		}
		return msgSubscribed, nil
	case "unsubscribe":
		removed, err := h.subs.RemoveSubscriber(ctx, chatID)
		if err != nil {
			return "", err
		}
		if !removed {
			return msgNotSubscribed, nil
		}
		return msgUnsubscribed, nil
	case "get_latest":
		return h.latestDigest(ctx)
	default:
		return msgUnknownCommand(cmd.Name), nil
	}
}

func (h *Handler) latestDigest(ctx context.Context) (string, error) {
	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, domain.LatestDigestCacheKey); err == nil && len(cached) > 0 {
			return string(cached), nil
		}
	}

	message, err := h.digests.LatestDigest(ctx)
	if errors.Is(err, domain.ErrNoDigest) {
		return msgNoSummary, nil
	}
	if err != nil {
		return "", err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, domain.LatestDigestCacheKey, []byte(message), latestDigestCacheTTL); err != nil {
			h.log.Warn().Err(err).Msg("не удалось обновить кэш дайджеста")
		}
	}
	return message, nil
}
