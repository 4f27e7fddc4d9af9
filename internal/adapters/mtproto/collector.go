package mtproto

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"

	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/metrics"
)

const (
	defaultPageLimit = 100
	defaultScanLimit = 2000
)

// Collector выгружает историю одного канала через gotd.
type Collector struct {
	client    *telegram.Client
	channel   string
	pageLimit int
	scanLimit int
	log       zerolog.Logger
}

// NewCollector создаёт MTProto-клиент на базе строковой сессии.
func NewCollector(apiID int, apiHash, sessionString, channel string, pageLimit, scanLimit int, log zerolog.Logger) (*Collector, error) {
	channel = strings.TrimPrefix(strings.TrimSpace(channel), "@")
	if channel == "" {
		return nil, errors.New("имя канала не задано")
	}
	storage, err := NewSessionStorage([]byte(sessionString))
	if err != nil {
		return nil, fmt.Errorf("подготовка сессии: %w", err)
	}
	if pageLimit <= 0 || pageLimit > defaultPageLimit {
		pageLimit = defaultPageLimit
	}
	if scanLimit <= 0 {
		scanLimit = defaultScanLimit
	}
	client := telegram.NewClient(apiID, apiHash, telegram.Options{SessionStorage: storage})
	return &Collector{
		client:    client,
		channel:   channel,
		pageLimit: pageLimit,
		scanLimit: scanLimit,
		log:       log,
	}, nil
}

// CollectDay возвращает сообщения канала за окно дайджеста.
// История читается строго по убыванию даты, поэтому скан обрывается,
// как только встречено сообщение старше window.Start.
func (c *Collector) CollectDay(ctx context.Context, window domain.DigestWindow) ([]domain.NewsItem, error) {
	var items []domain.NewsItem
	err := c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("статус авторизации: %w", err)
		}
		if !status.Authorized {
			return errors.New("MTProto-сессия не авторизована")
		}
		peer, err := c.resolvePeer(ctx)
		if err != nil {
			return err
		}
		items, err = c.scanWindow(ctx, peer, window)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("сканирование канала %s: %w", c.channel, err)
	}
	c.log.Info().
		Str("channel", c.channel).
		Time("from", window.Start).
		Time("to", window.End).
		Int("items", len(items)).
		Msg("история канала выгружена")
	return items, nil
}

func (c *Collector) resolvePeer(ctx context.Context) (tg.InputPeerClass, error) {
	api := c.client.API()
	start := time.Now()
	resolved, err := api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: c.channel})
	metrics.ObserveNetworkRequest("mtproto", "resolve_username", c.channel, start, err)
	if err != nil {
		return nil, fmt.Errorf("резолв канала: %w", err)
	}
	for _, chat := range resolved.Chats {
		if ch, ok := chat.(*tg.Channel); ok {
			return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}, nil
		}
	}
	return nil, fmt.Errorf("канал %s не найден среди чатов", c.channel)
}

func (c *Collector) scanWindow(ctx context.Context, peer tg.InputPeerClass, window domain.DigestWindow) ([]domain.NewsItem, error) {
	api := c.client.API()
	var (
		items    []domain.NewsItem
		offsetID int
		scanned  int
	)
	for scanned < c.scanLimit {
		limit := c.pageLimit
		if rest := c.scanLimit - scanned; rest < limit {
			limit = rest
		}
		start := time.Now()
		res, err := api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:       peer,
			OffsetID:   offsetID,
			OffsetDate: int(window.End.Unix()) + 1,
			Limit:      limit,
		})
		metrics.ObserveNetworkRequest("mtproto", "messages_get_history", c.channel, start, err)
		if err != nil {
			return nil, fmt.Errorf("страница истории: %w", err)
		}
		page := historyMessages(res)
		if len(page) == 0 {
			break
		}
		accepted, lastID, stop := filterWindow(page, window)
		items = append(items, accepted...)
		if stop {
			break
		}
		scanned += len(page)
		offsetID = lastID
	}
	return items, nil
}

// historyMessages достаёт список сообщений из ответа messages.getHistory.
func historyMessages(res tg.MessagesMessagesClass) []tg.MessageClass {
	switch h := res.(type) {
	case *tg.MessagesChannelMessages:
		return h.Messages
	case *tg.MessagesMessagesSlice:
		return h.Messages
	case *tg.MessagesMessages:
		return h.Messages
	default:
		return nil
	}
}

// filterWindow отбирает сообщения окна с непустым текстом.
// stop выставляется, когда встречено сообщение старше начала окна:
// дальнейшие страницы гарантированно не содержат попаданий.
func filterWindow(page []tg.MessageClass, window domain.DigestWindow) (items []domain.NewsItem, lastID int, stop bool) {
	for _, raw := range page {
		switch msg := raw.(type) {
		case *tg.Message:
			lastID = msg.ID
			date := time.Unix(int64(msg.Date), 0).UTC()
			if date.Before(window.Start) {
				return items, lastID, true
			}
			if !window.Contains(date) {
				continue
			}
			if strings.TrimSpace(msg.Message) == "" {
				continue
			}
			item := domain.NewsItem{
				MsgID: int64(msg.ID),
				Text:  msg.Message,
				Date:  date,
			}
			if views, ok := msg.GetViews(); ok {
				item.Views = views
			}
			if forwards, ok := msg.GetForwards(); ok {
				item.Forwards = forwards
			}
			items = append(items, item)
		case *tg.MessageService:
			lastID = msg.ID
			date := time.Unix(int64(msg.Date), 0).UTC()
			if date.Before(window.Start) {
				return items, lastID, true
			}
		case *tg.MessageEmpty:
			lastID = msg.ID
		}
	}
	return items, lastID, false
}
