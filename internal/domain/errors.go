package domain

import "errors"

// ErrNoDigest возвращается когда в истории нет ни одного дайджеста.
var ErrNoDigest = errors.New("дайджест ещё не построен")

// ErrNoContent возвращается когда за день нет ни одного непустого текста.
var ErrNoContent = errors.New("нет текстов для суммаризации")
