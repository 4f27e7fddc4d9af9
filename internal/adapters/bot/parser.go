package bot

import (
	"strings"

	"markettwits-digest-bot/internal/domain"
)

// ParseCommand разбирает текст сообщения как команду бота.
// Возвращает false для пустого текста, текста без префикса "/"
// и одиночного "/".
func ParseCommand(text string) (domain.Command, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !strings.HasPrefix(trimmed, "/") {
		return domain.Command{}, false
	}
	fields := strings.Fields(trimmed)
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if name == "" {
		return domain.Command{}, false
	}
	// /get_latest@MyBot — адресная форма в группах.
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return domain.Command{Name: name, Args: fields[1:]}, true
}
