package mtproto

import (
	"testing"
	"time"

	"github.com/gotd/td/tg"

	"markettwits-digest-bot/internal/domain"
)

func dayWindow() domain.DigestWindow {
	return domain.WindowForDate(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
}

func msgAt(id int, t time.Time, text string) *tg.Message {
	return &tg.Message{ID: id, Date: int(t.Unix()), Message: text}
}

func TestFilterWindowAcceptsInWindow(t *testing.T) {
	window := dayWindow()
	page := []tg.MessageClass{
		msgAt(3, window.Start.Add(20*time.Hour), "вечерняя новость"),
		msgAt(2, window.Start.Add(10*time.Hour), "дневная новость"),
		msgAt(1, window.Start.Add(time.Hour), "утренняя новость"),
	}

	items, lastID, stop := filterWindow(page, window)
	if stop {
		t.Fatalf("внутри окна скан не обрывается")
	}
	if len(items) != 3 {
		t.Fatalf("ожидали 3 сообщения, получили %d", len(items))
	}
	if lastID != 1 {
		t.Fatalf("lastID должен указывать на самое старое сообщение страницы, получили %d", lastID)
	}
	if items[0].MsgID != 3 || items[0].Text != "вечерняя новость" {
		t.Fatalf("порядок страницы сохраняется: %+v", items[0])
	}
}

func TestFilterWindowStopsBeforeWindow(t *testing.T) {
	window := dayWindow()
	page := []tg.MessageClass{
		msgAt(5, window.Start.Add(time.Hour), "в окне"),
		msgAt(4, window.Start.Add(-time.Minute), "до окна"),
		msgAt(3, window.Start.Add(-2*time.Hour), "глубже до окна"),
	}

	items, _, stop := filterWindow(page, window)
	if !stop {
		t.Fatalf("сообщение старше начала окна должно обрывать скан")
	}
	if len(items) != 1 || items[0].MsgID != 5 {
		t.Fatalf("принимается только сообщение окна: %+v", items)
	}
}

func TestFilterWindowSkipsNewerAndEmpty(t *testing.T) {
	window := dayWindow()
	page := []tg.MessageClass{
		msgAt(9, window.End.Add(time.Hour), "уже сегодня"),
		msgAt(8, window.Start.Add(12*time.Hour), "   "),
		msgAt(7, window.Start.Add(11*time.Hour), "нормальная новость"),
		&tg.MessageEmpty{ID: 6},
	}

	items, lastID, stop := filterWindow(page, window)
	if stop {
		t.Fatalf("сообщения новее окна пропускаются без обрыва")
	}
	if len(items) != 1 || items[0].MsgID != 7 {
		t.Fatalf("пустые тексты и сообщения вне окна отбрасываются: %+v", items)
	}
	if lastID != 6 {
		t.Fatalf("lastID учитывает и пустые сообщения, получили %d", lastID)
	}
}

func TestFilterWindowServiceMessageStops(t *testing.T) {
	window := dayWindow()
	page := []tg.MessageClass{
		&tg.MessageService{ID: 2, Date: int(window.Start.Add(-time.Hour).Unix())},
	}

	_, _, stop := filterWindow(page, window)
	if !stop {
		t.Fatalf("служебное сообщение старше окна тоже обрывает скан")
	}
}

func TestNormalizeSessionRejectsGarbage(t *testing.T) {
	if _, err := NormalizeSession([]byte("не сессия вовсе")); err == nil {
		t.Fatalf("мусор не должен распознаваться как сессия")
	}
}

func TestNormalizeSessionKeepsGotdJSON(t *testing.T) {
	raw := []byte(`{"Version":1,"Data":{"DC":2}}`)
	out, err := NormalizeSession(raw)
	if err != nil {
		t.Fatalf("готовый gotd JSON должен проходить как есть: %v", err)
	}
	if string(out) != string(raw) {
		t.Fatalf("gotd JSON не должен меняться: %s", out)
	}
}
