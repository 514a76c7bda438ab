// Package speech предоставляет абстракцию для движков распознавания речи.
package speech

import (
	"context"
	"strings"
)

// Recognizer - интерфейс для движков распознавания речи.
type Recognizer interface {
	// Transcribe распознаёт речь из PCM16 mono аудио.
	// sampleRate должен совпадать с частотой, с которой создан распознаватель.
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (Result, error)

	// Close освобождает ресурсы движка.
	Close()

	// Name возвращает название движка (для логирования).
	Name() string
}

// WordScore - слово и уверенность распознавателя в нём.
type WordScore struct {
	Word       string  `json:"word"`
	Confidence float64 `json:"conf"`
}

// Result - результат распознавания одного провайдера.
// Words идут в порядке произнесения и могут быть пустыми.
type Result struct {
	Text  string
	Words []WordScore
}

// HasText возвращает true если распознан непустой текст.
func (r Result) HasText() bool {
	return strings.TrimSpace(r.Text) != ""
}

// HasWords возвращает true если есть пословная детализация.
func (r Result) HasWords() bool {
	return len(r.Words) > 0
}

// Join склеивает результаты нескольких фрагментов одной записи.
func Join(parts ...Result) Result {
	var texts []string
	var words []WordScore
	for _, p := range parts {
		if t := strings.TrimSpace(p.Text); t != "" {
			texts = append(texts, t)
		}
		words = append(words, p.Words...)
	}
	return Result{Text: strings.Join(texts, " "), Words: words}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
