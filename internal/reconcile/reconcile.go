// Package reconcile сводит один или два варианта распознавания в итоговый текст.
package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"golos/internal/llm"
	"golos/internal/speech"
)

// ErrNoSpeechRecognized - ни один провайдер не дал текста.
var ErrNoSpeechRecognized = errors.New("речь не распознана")

// Method - каким способом получен итоговый текст.
type Method string

const (
	MethodArbitrated Method = "arbitrated"
	MethodMerged     Method = "merged"
	MethodPrimary    Method = "primary"
	MethodSecondary  Method = "secondary"
)

// Outcome - итоговый текст и способ его получения.
type Outcome struct {
	Text   string
	Method Method
}

// Engine применяет политику сведения: арбитраж, затем слияние по
// уверенности, затем первый непустой текст.
type Engine struct {
	arbiter llm.Arbiter
	timeout time.Duration
}

// New создаёт Engine. arbiter может быть nil: тогда арбитраж отключён.
func New(arbiter llm.Arbiter, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}
	return &Engine{arbiter: arbiter, timeout: timeout}
}

// Reconcile сводит варианты. nil означает отсутствие результата провайдера.
func (e *Engine) Reconcile(ctx context.Context, primary, secondary *llm.Candidate) (Outcome, error) {
	if primary != nil && secondary != nil &&
		primary.Result.HasWords() && secondary.Result.HasWords() {
		if text, ok := e.arbitrate(ctx, *primary, *secondary); ok {
			return Outcome{Text: text, Method: MethodArbitrated}, nil
		}

		return Outcome{
			Text:   MergeByConfidence(primary.Result.Words, secondary.Result.Words),
			Method: MethodMerged,
		}, nil
	}

	if primary != nil && primary.Result.HasText() {
		return Outcome{Text: strings.TrimSpace(primary.Result.Text), Method: MethodPrimary}, nil
	}
	if secondary != nil && secondary.Result.HasText() {
		return Outcome{Text: strings.TrimSpace(secondary.Result.Text), Method: MethodSecondary}, nil
	}

	return Outcome{}, ErrNoSpeechRecognized
}

func (e *Engine) arbitrate(ctx context.Context, primary, secondary llm.Candidate) (string, bool) {
	if e.arbiter == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.arbiter.Arbitrate(ctx, primary, secondary)
	if err != nil {
		log.Warn().Err(err).Str("provider", e.arbiter.Name()).Msg("Арбитраж не удался, слияние по уверенности")
		return "", false
	}

	text = strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"'`))
	if text == "" {
		log.Warn().Str("provider", e.arbiter.Name()).Msg("Пустой ответ арбитража, слияние по уверенности")
		return "", false
	}
	return text, true
}

// MergeByConfidence сливает два списка слов по позиции.
// На общей длине берётся слово с большей уверенностью (при равенстве -
// из primary), хвост берётся из более длинного списка.
// Длина результата в словах равна max(len(primary), len(secondary)).
func MergeByConfidence(primary, secondary []speech.WordScore) string {
	n := max(len(primary), len(secondary))
	words := make([]string, 0, n)

	for i := range n {
		switch {
		case i < len(primary) && i < len(secondary):
			if secondary[i].Confidence > primary[i].Confidence {
				words = append(words, secondary[i].Word)
			} else {
				words = append(words, primary[i].Word)
			}
		case i < len(primary):
			words = append(words, primary[i].Word)
		default:
			words = append(words, secondary[i].Word)
		}
	}

	return strings.Join(words, " ")
}
