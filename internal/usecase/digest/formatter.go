package digest

import (
	"fmt"
	"strings"

	"markettwits-digest-bot/internal/domain"
)

// FormatDigest собирает текст рассылки из дайджеста.
// Разметка — Telegram HTML.
func FormatDigest(d domain.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 <b>Daily Market Summary - %s</b>\n\n", d.Date.UTC().Format("2006-01-02"))
	b.WriteString(strings.TrimSpace(d.Summary))
	b.WriteString("\n\n")

	if len(d.KeyTopics) > 0 {
		b.WriteString("🔑 <b>Key Topics:</b>\n")
		for i, topic := range d.KeyTopics {
			fmt.Fprintf(&b, "%d. %s\n", i+1, topic)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "📊 Based on %d news items", d.NewsCount)
	return b.String()
}
