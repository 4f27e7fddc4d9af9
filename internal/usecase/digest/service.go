package digest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"markettwits-digest-bot/internal/domain"
	"markettwits-digest-bot/internal/infra/metrics"
)

const latestDigestCacheTTL = 24 * time.Hour

// Outcome — исход запуска пайплайна. Сбои нижних слоёв не поднимаются
// ошибками, а кодируются исходом: вызывающий ветвится по данным.
type Outcome string

const (
	// OutcomeSuccess — дайджест доставлен хотя бы одному подписчику.
	OutcomeSuccess Outcome = "success"
	// OutcomeEmptyDay — за день нет сообщений или пригодных текстов.
	OutcomeEmptyDay Outcome = "empty_day"
	// OutcomeCollectFailed — источник канала недоступен или оборвал скан.
	OutcomeCollectFailed Outcome = "collect_failed"
	// OutcomeSummarizeFailed — провайдер генерации вернул ошибку.
	OutcomeSummarizeFailed Outcome = "summarize_failed"
	// OutcomeRosterFailed — не удалось прочитать ростер.
	OutcomeRosterFailed Outcome = "roster_failed"
	// OutcomeNoSubscribers — ростер пуст, рассылать некому.
	OutcomeNoSubscribers Outcome = "no_subscribers"
	// OutcomeDeliveryFailed — ни одна доставка не удалась.
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

// Report — итог одного запуска пайплайна.
type Report struct {
	Date      time.Time
	Outcome   Outcome
	NewsCount int
	Sent      int
	Failed    int
	Delivered bool
}

// Service реализует пайплайн: сбор сообщений канала за вчера,
// суммаризация, сохранение и рассылка подписчикам.
type Service struct {
	collector   domain.Collector
	summarizer  domain.Summarizer
	sender      domain.Messenger
	subs        domain.SubscriberRepo
	digests     domain.DigestRepo
	cache       domain.Cache
	log         zerolog.Logger
	sendWorkers int
}

// NewService создаёт пайплайн. cache может быть nil,
// sendWorkers <= 0 означает один воркер.
func NewService(
	collector domain.Collector,
	summarizer domain.Summarizer,
	sender domain.Messenger,
	subs domain.SubscriberRepo,
	digests domain.DigestRepo,
	cache domain.Cache,
	log zerolog.Logger,
	sendWorkers int,
) *Service {
	if sendWorkers <= 0 {
		sendWorkers = 1
	}
	return &Service{
		collector:   collector,
		summarizer:  summarizer,
		sender:      sender,
		subs:        subs,
		digests:     digests,
		cache:       cache,
		log:         log.With().Str("component", "digest_service").Logger(),
		sendWorkers: sendWorkers,
	}
}

// Run выполняет пайплайн для вчерашнего дня относительно now.
func (s *Service) Run(ctx context.Context, now time.Time) (Report, error) {
	return s.runWindow(ctx, domain.PreviousDayWindow(now))
}

// RunForDate выполняет пайплайн для указанного календарного дня UTC.
func (s *Service) RunForDate(ctx context.Context, date time.Time) (Report, error) {
	return s.runWindow(ctx, domain.WindowForDate(date))
}

// runWindow — тело пайплайна. Сбои источника, провайдера и ростера
// завершают запуск мягко: без рассылки, без записи в историю и без
// ошибки наружу. Ошибкой возвращается только отмена контекста.
func (s *Service) runWindow(ctx context.Context, window domain.DigestWindow) (Report, error) {
	report := Report{Date: window.Start}
	log := s.log.With().Str("date", window.Start.Format("2006-01-02")).Logger()

	finish := func(outcome Outcome) (Report, error) {
		report.Outcome = outcome
		metrics.IncRun(string(outcome))
		return report, ctx.Err()
	}

	items, err := s.collector.CollectDay(ctx, window)
	if err != nil {
		log.Error().Err(err).Msg("не удалось выгрузить историю канала")
		return finish(OutcomeCollectFailed)
	}
	report.NewsCount = len(items)
	metrics.DigestNewsItems.Observe(float64(len(items)))
	if len(items) == 0 {
		log.Info().Msg("за день нет сообщений, дайджест не строится")
		return finish(OutcomeEmptyDay)
	}

	d, err := s.summarizer.SummarizeDay(ctx, items, window.Start)
	if err != nil {
		if errors.Is(err, domain.ErrNoContent) {
			log.Info().Msg("нет пригодных текстов, дайджест не строится")
			return finish(OutcomeEmptyDay)
		}
		log.Error().Err(err).Msg("суммаризация завершилась ошибкой")
		return finish(OutcomeSummarizeFailed)
	}

	message := FormatDigest(d)
	s.persist(ctx, log, window.Start, message)

	subscribers, err := s.subs.ListSubscribers(ctx)
	if err != nil {
		log.Error().Err(err).Msg("не удалось прочитать ростер")
		return finish(OutcomeRosterFailed)
	}
	if len(subscribers) == 0 {
		log.Info().Msg("ростер пуст, рассылать некому")
		return finish(OutcomeNoSubscribers)
	}

	report.Sent, report.Failed = s.fanOut(ctx, subscribers, message)
	report.Delivered = report.Sent > 0

	log.Info().
		Int("news", report.NewsCount).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("запуск дайджеста завершён")
	if report.Delivered {
		return finish(OutcomeSuccess)
	}
	return finish(OutcomeDeliveryFailed)
}

// persist сохраняет текст в историю и кэш. Ошибки хранения логируются
// и не прерывают рассылку.
func (s *Service) persist(ctx context.Context, log zerolog.Logger, date time.Time, message string) {
	if err := s.digests.SaveDigest(ctx, date, message); err != nil {
		log.Error().Err(err).Msg("не удалось сохранить дайджест в историю")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, domain.LatestDigestCacheKey, []byte(message), latestDigestCacheTTL); err != nil {
			log.Warn().Err(err).Msg("не удалось обновить кэш дайджеста")
		}
	}
}

// fanOut рассылает текст всем подписчикам пулом воркеров.
// Ошибка доставки одному получателю не влияет на остальных.
func (s *Service) fanOut(ctx context.Context, subscribers []int64, message string) (sent, failed int) {
	jobs := make(chan int64)
	var sentN, failedN atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < s.sendWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for chatID := range jobs {
				err := s.sender.Send(ctx, chatID, message)
				metrics.IncDelivery(err == nil)
				if err != nil {
					s.log.Error().Int64("chat_id", chatID).Err(err).Msg("не удалось доставить дайджест")
					failedN.Add(1)
					continue
				}
				sentN.Add(1)
			}
		}()
	}

	for _, chatID := range subscribers {
		jobs <- chatID
	}
	close(jobs)
	wg.Wait()

	return int(sentN.Load()), int(failedN.Load())
}
