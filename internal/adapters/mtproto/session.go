package mtproto

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/gotd/td/session"
	"github.com/gotd/td/tg"
)

// ErrUnsupportedSessionFormat возвращается когда формат сессии не распознан.
var ErrUnsupportedSessionFormat = errors.New("неизвестный формат MTProto-сессии")

// NormalizeSession приводит сессию к JSON-формату, который понимает
// gotd session.Storage. На входе допустимы готовый gotd JSON и строковая
// сессия Telethon (исторический формат TELEGRAM_SESSION_STRING).
func NormalizeSession(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("MTProto-сессия пуста")
	}

	// Уже gotd session JSON.
	var gotd struct {
		Version int `json:"Version"`
	}
	if err := json.Unmarshal(trimmed, &gotd); err == nil && gotd.Version != 0 {
		return append([]byte(nil), trimmed...), nil
	}

	if converted, err := convertTelethonString(trimmed); err == nil {
		return converted, nil
	}

	return nil, ErrUnsupportedSessionFormat
}

// NewSessionStorage загружает нормализованную сессию в память.
func NewSessionStorage(raw []byte) (*session.StorageMemory, error) {
	blob, err := NormalizeSession(raw)
	if err != nil {
		return nil, err
	}
	storage := &session.StorageMemory{}
	if err := storage.StoreSession(context.Background(), blob); err != nil {
		return nil, fmt.Errorf("загрузка сессии в хранилище: %w", err)
	}
	return storage, nil
}

func convertTelethonString(raw []byte) ([]byte, error) {
	candidate := strings.TrimSpace(string(raw))
	candidate = strings.Trim(candidate, "\"'\n\r\t")
	if candidate == "" {
		return nil, errors.New("строковая сессия Telethon пуста")
	}

	data, err := session.TelethonSession(candidate)
	if err != nil {
		return nil, err
	}

	if data.Config.ThisDC == 0 {
		data.Config.ThisDC = data.DC
	}
	if data.Addr != "" && len(data.Config.DCOptions) == 0 {
		host, portStr, splitErr := net.SplitHostPort(data.Addr)
		if splitErr == nil {
			if port, convErr := strconv.Atoi(portStr); convErr == nil {
				data.Config.DCOptions = []tg.DCOption{{
					ID:        data.DC,
					IPAddress: host,
					Port:      port,
				}}
			}
		}
	}

	payload := struct {
		Version int          `json:"Version"`
		Data    session.Data `json:"Data"`
	}{
		Version: 1,
		Data:    *data,
	}
	return json.Marshal(payload)
}
