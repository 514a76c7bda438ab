// Package whisper реализует speech.Recognizer через whisper.cpp.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog/log"

	"golos/internal/audio"
	"golos/internal/speech"
)

// Recognizer реализует speech.Recognizer через whisper.cpp.
type Recognizer struct {
	mu    sync.Mutex
	name  string
	lang  string
	model whisper.Model
}

// New создаёт Recognizer из файла модели ggml.
// lang - код языка ("ru", "en") или "auto".
func New(name, modelPath, lang string) (*Recognizer, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Whisper: %w", err)
	}

	return &Recognizer{
		name:  name,
		lang:  lang,
		model: model,
	}, nil
}

// Name возвращает название движка.
func (r *Recognizer) Name() string {
	return "whisper:" + r.name
}

// Transcribe распознаёт речь. Whisper работает только с 16kHz.
func (r *Recognizer) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (speech.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model == nil {
		return speech.Result{}, fmt.Errorf("распознаватель %s закрыт", r.name)
	}
	if sampleRate != whisper.SampleRate {
		return speech.Result{}, fmt.Errorf("whisper требует %d Hz, получено %d", whisper.SampleRate, sampleRate)
	}

	wctx, err := r.model.NewContext()
	if err != nil {
		return speech.Result{}, err
	}

	// Только транскрипция, без перевода
	wctx.SetTranslate(false)
	if r.lang != "" {
		if err := wctx.SetLanguage(r.lang); err != nil {
			return speech.Result{}, fmt.Errorf("язык %q: %w", r.lang, err)
		}
	}

	if err := wctx.Process(audio.PCM16ToFloat32(pcm), nil, nil, nil); err != nil {
		return speech.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return speech.Result{}, err
	}

	var text strings.Builder
	var tokens []speech.Token
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return speech.Result{}, err
		}
		text.WriteString(segment.Text)
		for _, t := range segment.Tokens {
			tokens = append(tokens, speech.Token{Text: t.Text, P: t.P})
		}
	}

	result := speech.Result{
		Text:  strings.TrimSpace(text.String()),
		Words: speech.GroupTokens(tokens),
	}
	log.Debug().
		Str("engine", r.Name()).
		Str("text", result.Text).
		Int("words", len(result.Words)).
		Msg("Whisper распознал")

	return result, nil
}

// Close освобождает ресурсы.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.model != nil {
		r.model.Close()
		r.model = nil
	}
}
