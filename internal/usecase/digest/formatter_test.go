package digest

import (
	"strings"
	"testing"
	"time"

	"markettwits-digest-bot/internal/domain"
)

func TestFormatDigest(t *testing.T) {
	d := domain.Digest{
		Date:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Summary:   "Рынки выросли.",
		KeyTopics: []string{"ФРС сохранила ставку", "Нефть подорожала"},
		NewsCount: 42,
	}
	text := FormatDigest(d)

	if !strings.HasPrefix(text, "📈 <b>Daily Market Summary - 2024-03-15</b>\n\n") {
		t.Fatalf("ожидали заголовок с датой, получили %q", text)
	}
	if !strings.Contains(text, "Рынки выросли.") {
		t.Fatalf("текст должен содержать саммари")
	}
	if !strings.Contains(text, "🔑 <b>Key Topics:</b>\n1. ФРС сохранила ставку\n2. Нефть подорожала\n") {
		t.Fatalf("темы должны нумероваться с единицы: %q", text)
	}
	if !strings.HasSuffix(text, "📊 Based on 42 news items") {
		t.Fatalf("текст должен завершаться количеством новостей: %q", text)
	}
}

func TestFormatDigestNoTopics(t *testing.T) {
	d := domain.Digest{
		Date:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Summary:   "Сырой текст модели.",
		NewsCount: 7,
	}
	text := FormatDigest(d)

	if strings.Contains(text, "Key Topics") {
		t.Fatalf("без тем блок Key Topics не выводится: %q", text)
	}
	if !strings.HasSuffix(text, "📊 Based on 7 news items") {
		t.Fatalf("количество новостей сохраняется и без тем: %q", text)
	}
}
