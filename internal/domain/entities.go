package domain

import "time"

// NewsItem представляет одно сообщение канала, попавшее в окно дайджеста.
type NewsItem struct {
	MsgID    int64
	Text     string
	Date     time.Time
	Views    int
	Forwards int
}

// DigestWindow — закрытый интервал одного календарного дня UTC.
type DigestWindow struct {
	Start time.Time
	End   time.Time
}

// WindowForDate строит окно [00:00:00.000000; 23:59:59.999999] UTC для дня date.
func WindowForDate(date time.Time) DigestWindow {
	date = date.UTC()
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return DigestWindow{Start: start, End: start.Add(24*time.Hour - time.Microsecond)}
}

// PreviousDayWindow строит окно вчерашнего дня относительно now.
func PreviousDayWindow(now time.Time) DigestWindow {
	return WindowForDate(now.UTC().AddDate(0, 0, -1))
}

// Contains проверяет попадание момента в окно, границы включительно.
func (w DigestWindow) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && !t.After(w.End)
}

// Digest — итоговое саммари одного дня.
type Digest struct {
	Date      time.Time
	Summary   string
	KeyTopics []string
	NewsCount int
}

// RunCause описывает причину запуска дайджеста.
type RunCause string

const (
	// RunCauseSchedule — запуск по расписанию.
	RunCauseSchedule RunCause = "schedule"
	// RunCauseManual — запуск вручную через HTTP.
	RunCauseManual RunCause = "manual"
)

// RunJob — задание на построение и рассылку дайджеста.
type RunJob struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	RequestedAt time.Time `json:"requested_at"`
	Cause       RunCause  `json:"cause"`
}

// Command — разобранная команда бота.
type Command struct {
	Name string
	Args []string
}
