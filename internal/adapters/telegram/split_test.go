package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessageShortText(t *testing.T) {
	parts := SplitMessage("короткий текст")
	if len(parts) != 1 || parts[0] != "короткий текст" {
		t.Fatalf("короткий текст не делится: %v", parts)
	}
}

func TestSplitMessageEmpty(t *testing.T) {
	if parts := SplitMessage("   \n  "); parts != nil {
		t.Fatalf("пустой текст не порождает частей: %v", parts)
	}
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		b.WriteString(strings.Repeat("а", 30))
		b.WriteString("\n")
	}
	parts := SplitMessage(b.String())
	if len(parts) < 2 {
		t.Fatalf("длинный текст должен делиться, частей %d", len(parts))
	}
	for i, part := range parts {
		if len([]rune(part)) > messageLimit {
			t.Fatalf("часть %d длиннее лимита", i)
		}
		for _, line := range strings.Split(part, "\n") {
			if len([]rune(line)) != 30 {
				t.Fatalf("строки не должны рваться посередине: %q", line)
			}
		}
	}
}

func TestSplitMessageNoNewlines(t *testing.T) {
	text := strings.Repeat("б", messageLimit+100)
	parts := SplitMessage(text)
	if len(parts) != 2 {
		t.Fatalf("ожидали 2 части, получили %d", len(parts))
	}
	if got := len([]rune(parts[0])) + len([]rune(parts[1])); got != messageLimit+100 {
		t.Fatalf("при делении без переводов строк текст не теряется, осталось %d", got)
	}
}
