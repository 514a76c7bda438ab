// Package vosk реализует speech.Recognizer через Vosk с пословной уверенностью.
package vosk

import (
	"context"
	"fmt"
	"os"
	"sync"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/rs/zerolog/log"

	"golos/internal/speech"
)

// chunkSize порция PCM, подаваемая в AcceptWaveform за раз (~0.25s при 16kHz).
const chunkSize = 8000

// Recognizer реализует speech.Recognizer через Vosk.
type Recognizer struct {
	mu         sync.Mutex
	name       string
	model      *vosk.VoskModel
	recognizer *vosk.VoskRecognizer
	sampleRate int
}

// New создаёт Recognizer из директории модели.
func New(name, modelPath string, sampleRate int) (*Recognizer, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelPath)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, float64(sampleRate))
	if err != nil {
		model.Free()
		return nil, err
	}
	rec.SetWords(1)

	return &Recognizer{
		name:       name,
		model:      model,
		recognizer: rec,
		sampleRate: sampleRate,
	}, nil
}

// Name возвращает название движка.
func (r *Recognizer) Name() string {
	return "vosk:" + r.name
}

// Transcribe распознаёт всю запись. Промежуточные результаты (когда Vosk
// фиксирует конец фразы) склеиваются с финальным.
func (r *Recognizer) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (speech.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recognizer == nil {
		return speech.Result{}, fmt.Errorf("распознаватель %s закрыт", r.name)
	}
	if sampleRate != r.sampleRate {
		return speech.Result{}, fmt.Errorf("частота %d не совпадает с моделью (%d)", sampleRate, r.sampleRate)
	}

	defer r.recognizer.Reset()

	var parts []speech.Result
	for off := 0; off < len(pcm); off += chunkSize {
		if err := ctx.Err(); err != nil {
			return speech.Result{}, err
		}

		end := min(off+chunkSize, len(pcm))
		if r.recognizer.AcceptWaveform(pcm[off:end]) == 1 {
			part, err := speech.ParseVoskResult(r.recognizer.Result())
			if err != nil {
				return speech.Result{}, err
			}
			parts = append(parts, part)
		}
	}

	final, err := speech.ParseVoskResult(r.recognizer.FinalResult())
	if err != nil {
		return speech.Result{}, err
	}
	parts = append(parts, final)

	result := speech.Join(parts...)
	log.Debug().
		Str("engine", r.Name()).
		Str("text", result.Text).
		Int("words", len(result.Words)).
		Msg("Vosk распознал")

	return result, nil
}

// Close освобождает ресурсы.
func (r *Recognizer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recognizer != nil {
		r.recognizer.Free()
		r.recognizer = nil
	}

	if r.model != nil {
		r.model.Free()
		r.model = nil
	}
}
