package digest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"markettwits-digest-bot/internal/domain"
)

type stubCollector struct {
	items  []domain.NewsItem
	err    error
	window domain.DigestWindow
}

func (s *stubCollector) CollectDay(_ context.Context, window domain.DigestWindow) ([]domain.NewsItem, error) {
	s.window = window
	return s.items, s.err
}

type stubSummarizer struct {
	digest domain.Digest
	err    error
	called bool
}

func (s *stubSummarizer) SummarizeDay(_ context.Context, items []domain.NewsItem, date time.Time) (domain.Digest, error) {
	s.called = true
	if s.err != nil {
		return domain.Digest{}, s.err
	}
	d := s.digest
	d.Date = date
	d.NewsCount = len(items)
	return d, nil
}

type stubFanSender struct {
	mu      sync.Mutex
	sent    []int64
	failFor map[int64]bool
}

func (s *stubFanSender) Send(_ context.Context, chatID int64, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, chatID)
	if s.failFor[chatID] {
		return errors.New("чат недоступен")
	}
	return nil
}

type stubRoster struct {
	subscribers []int64
	err         error
}

func (s *stubRoster) AddSubscriber(context.Context, int64) (bool, error)    { return true, nil }
func (s *stubRoster) RemoveSubscriber(context.Context, int64) (bool, error) { return true, nil }
func (s *stubRoster) ListSubscribers(context.Context) ([]int64, error) {
	return s.subscribers, s.err
}

type stubHistory struct {
	saved   []string
	saveErr error
}

func (s *stubHistory) SaveDigest(_ context.Context, _ time.Time, message string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, message)
	return nil
}

func (s *stubHistory) LatestDigest(context.Context) (string, error) {
	if len(s.saved) == 0 {
		return "", domain.ErrNoDigest
	}
	return s.saved[len(s.saved)-1], nil
}

func newsItems(n int) []domain.NewsItem {
	items := make([]domain.NewsItem, n)
	for i := range items {
		items[i] = domain.NewsItem{MsgID: int64(i + 1), Text: "новость", Date: time.Now()}
	}
	return items
}

func newTestService(c *stubCollector, s *stubSummarizer, sender *stubFanSender, roster *stubRoster, history *stubHistory) *Service {
	return NewService(c, s, sender, roster, history, nil, zerolog.Nop(), 3)
}

func TestRunEmptyDay(t *testing.T) {
	collector := &stubCollector{}
	sum := &stubSummarizer{}
	history := &stubHistory{}
	svc := newTestService(collector, sum, &stubFanSender{}, &stubRoster{subscribers: []int64{1}}, history)

	report, err := svc.Run(context.Background(), time.Date(2024, 3, 16, 3, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("пустой день не ошибка: %v", err)
	}
	if sum.called {
		t.Fatalf("суммаризация не должна вызываться для пустого дня")
	}
	if len(history.saved) != 0 {
		t.Fatalf("пустой день не пишется в историю")
	}
	if report.Outcome != OutcomeEmptyDay || report.Delivered {
		t.Fatalf("ожидали исход %q без доставки, получили %+v", OutcomeEmptyDay, report)
	}
}

func TestRunTargetsPreviousDay(t *testing.T) {
	collector := &stubCollector{}
	svc := newTestService(collector, &stubSummarizer{}, &stubFanSender{}, &stubRoster{}, &stubHistory{})

	now := time.Date(2024, 3, 16, 3, 0, 0, 0, time.UTC)
	if _, err := svc.Run(context.Background(), now); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	wantStart := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !collector.window.Start.Equal(wantStart) {
		t.Fatalf("ожидали окно за 15 марта, получили %v", collector.window.Start)
	}
}

func TestRunSummarizeError(t *testing.T) {
	collector := &stubCollector{items: newsItems(3)}
	sum := &stubSummarizer{err: errors.New("модель недоступна")}
	history := &stubHistory{}
	sender := &stubFanSender{}
	svc := newTestService(collector, sum, sender, &stubRoster{subscribers: []int64{1}}, history)

	report, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("сбой провайдера мягкий, ошибка не поднимается: %v", err)
	}
	if report.Outcome != OutcomeSummarizeFailed {
		t.Fatalf("ожидали исход %q, получили %q", OutcomeSummarizeFailed, report.Outcome)
	}
	if len(history.saved) != 0 || len(sender.sent) != 0 {
		t.Fatalf("при ошибке суммаризации нет ни записи, ни рассылки")
	}
}

func TestRunCollectError(t *testing.T) {
	collector := &stubCollector{err: errors.New("источник недоступен")}
	history := &stubHistory{}
	svc := newTestService(collector, &stubSummarizer{}, &stubFanSender{}, &stubRoster{subscribers: []int64{1}}, history)

	report, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("сбой источника мягкий, ошибка не поднимается: %v", err)
	}
	if report.Outcome != OutcomeCollectFailed || report.Delivered {
		t.Fatalf("ожидали мягкий провал сбора, получили %+v", report)
	}
	if len(history.saved) != 0 {
		t.Fatalf("при сбое источника история не пишется")
	}
}

func TestRunFanOutIsolation(t *testing.T) {
	collector := &stubCollector{items: newsItems(5)}
	sum := &stubSummarizer{digest: domain.Digest{Summary: "итог"}}
	sender := &stubFanSender{failFor: map[int64]bool{2: true, 4: true}}
	roster := &stubRoster{subscribers: []int64{1, 2, 3, 4, 5}}
	svc := newTestService(collector, sum, sender, roster, &stubHistory{})

	report, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(sender.sent) != 5 {
		t.Fatalf("доставка должна пытаться для всех подписчиков, попыток %d", len(sender.sent))
	}
	if report.Sent != 3 || report.Failed != 2 {
		t.Fatalf("ожидали 3 успеха и 2 провала, получили %d/%d", report.Sent, report.Failed)
	}
	if !report.Delivered || report.Outcome != OutcomeSuccess {
		t.Fatalf("хотя бы одна доставка означает успех запуска: %+v", report)
	}
}

func TestRunAllDeliveriesFail(t *testing.T) {
	collector := &stubCollector{items: newsItems(2)}
	sum := &stubSummarizer{digest: domain.Digest{Summary: "итог"}}
	sender := &stubFanSender{failFor: map[int64]bool{1: true, 2: true}}
	svc := newTestService(collector, sum, sender, &stubRoster{subscribers: []int64{1, 2}}, &stubHistory{})

	report, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("провал доставки не ошибка пайплайна: %v", err)
	}
	if report.Delivered || report.Outcome != OutcomeDeliveryFailed {
		t.Fatalf("ноль доставок — запуск не считается доставленным: %+v", report)
	}
}

func TestRunPersistFailureDoesNotBlockDelivery(t *testing.T) {
	collector := &stubCollector{items: newsItems(1)}
	sum := &stubSummarizer{digest: domain.Digest{Summary: "итог"}}
	sender := &stubFanSender{}
	history := &stubHistory{saveErr: errors.New("база недоступна")}
	svc := newTestService(collector, sum, sender, &stubRoster{subscribers: []int64{7}}, history)

	report, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ошибка хранения не прерывает рассылку: %v", err)
	}
	if !report.Delivered {
		t.Fatalf("рассылка должна пройти несмотря на ошибку хранения")
	}
}

type failingCache struct{}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("кэш недоступен")
}

func (failingCache) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("кэш недоступен")
}

func TestRunCacheFailureDoesNotBlockDelivery(t *testing.T) {
	collector := &stubCollector{items: newsItems(1)}
	sum := &stubSummarizer{digest: domain.Digest{Summary: "итог"}}
	sender := &stubFanSender{}
	history := &stubHistory{}
	svc := NewService(collector, sum, sender, &stubRoster{subscribers: []int64{7}}, history, failingCache{}, zerolog.Nop(), 3)

	report, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ошибка кэша не прерывает запуск: %v", err)
	}
	if !report.Delivered || report.Outcome != OutcomeSuccess {
		t.Fatalf("рассылка должна пройти несмотря на ошибку кэша: %+v", report)
	}
	if len(history.saved) != 1 {
		t.Fatalf("история должна пополниться несмотря на ошибку кэша")
	}
}

func TestRunEmptyRoster(t *testing.T) {
	collector := &stubCollector{items: newsItems(1)}
	sum := &stubSummarizer{digest: domain.Digest{Summary: "итог"}}
	sender := &stubFanSender{}
	history := &stubHistory{}
	svc := newTestService(collector, sum, sender, &stubRoster{}, history)

	report, err := svc.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("пустой ростер не ошибка: %v", err)
	}
	if len(history.saved) != 1 {
		t.Fatalf("дайджест сохраняется даже без подписчиков")
	}
	if len(sender.sent) != 0 || report.Delivered || report.Outcome != OutcomeNoSubscribers {
		t.Fatalf("без подписчиков нет отправок: %+v", report)
	}
}
