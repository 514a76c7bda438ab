// Package pipeline выбирает провайдеров распознавания по режиму и запускает их.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"golos/internal/llm"
	"golos/internal/speech"
)

// Mode - режим распознавания.
type Mode string

const (
	ModeSingleOffline Mode = "single-offline"
	ModeDualOffline   Mode = "dual-offline"
	ModeCloud         Mode = "cloud"
)

var (
	// ErrNoAudioCaptured - запись пустая.
	ErrNoAudioCaptured = errors.New("аудио не записано")

	// ErrProviderUnavailable - нужный провайдер не загружен.
	ErrProviderUnavailable = errors.New("провайдер распознавания недоступен")
)

// Provider - загруженный распознаватель с меткой языка.
type Provider struct {
	Label      string
	Recognizer speech.Recognizer
}

func (p *Provider) loaded() bool {
	return p != nil && p.Recognizer != nil
}

// Providers - провайдеры, которыми владеет приложение на всё время работы.
// Любой из них может отсутствовать.
type Providers struct {
	Primary   *Provider
	Secondary *Provider
	Cloud     *Provider
}

// Results - результаты провайдеров; nil означает отсутствие результата.
type Results struct {
	Primary   *llm.Candidate
	Secondary *llm.Candidate
}

// Pipeline - конвейер распознавания для одного режима.
type Pipeline struct {
	mode       Mode
	sampleRate int
	providers  Providers
}

// New создаёт Pipeline.
func New(mode Mode, sampleRate int, providers Providers) (*Pipeline, error) {
	switch mode {
	case ModeSingleOffline, ModeDualOffline, ModeCloud:
	default:
		return nil, fmt.Errorf("неизвестный режим: %s", mode)
	}

	return &Pipeline{
		mode:       mode,
		sampleRate: sampleRate,
		providers:  providers,
	}, nil
}

// Mode возвращает режим конвейера.
func (p *Pipeline) Mode() Mode {
	return p.mode
}

// Transcribe распознаёт запись согласно режиму.
func (p *Pipeline) Transcribe(ctx context.Context, pcm []byte) (Results, error) {
	if len(pcm) == 0 {
		return Results{}, ErrNoAudioCaptured
	}

	switch p.mode {
	case ModeSingleOffline:
		return p.single(ctx, p.providers.Primary, pcm)
	case ModeCloud:
		return p.single(ctx, p.providers.Cloud, pcm)
	default:
		return p.dual(ctx, pcm)
	}
}

func (p *Pipeline) single(ctx context.Context, provider *Provider, pcm []byte) (Results, error) {
	if !provider.loaded() {
		return Results{}, fmt.Errorf("%w: режим %s", ErrProviderUnavailable, p.mode)
	}

	c, err := p.run(ctx, provider, pcm)
	if err != nil {
		return Results{}, err
	}
	return Results{Primary: c}, nil
}

// dual запускает оба провайдера параллельно. Ошибка одного при успехе
// другого трактуется как отсутствие его результата.
func (p *Pipeline) dual(ctx context.Context, pcm []byte) (Results, error) {
	primary, secondary := p.providers.Primary, p.providers.Secondary
	if !primary.loaded() && !secondary.loaded() {
		return Results{}, fmt.Errorf("%w: режим %s", ErrProviderUnavailable, p.mode)
	}

	var res Results
	var primaryErr, secondaryErr error

	// Group без контекста: ошибка одного провайдера не отменяет другого.
	var g errgroup.Group
	if primary.loaded() {
		g.Go(func() error {
			res.Primary, primaryErr = p.run(ctx, primary, pcm)
			return primaryErr
		})
	}
	if secondary.loaded() {
		g.Go(func() error {
			res.Secondary, secondaryErr = p.run(ctx, secondary, pcm)
			return secondaryErr
		})
	}
	if err := g.Wait(); err == nil {
		return res, nil
	}

	switch {
	case primaryErr != nil && secondaryErr != nil:
		return Results{}, errors.Join(primaryErr, secondaryErr)
	case primaryErr != nil && res.Secondary == nil:
		return Results{}, primaryErr
	case secondaryErr != nil && res.Primary == nil:
		return Results{}, secondaryErr
	case primaryErr != nil:
		log.Warn().Err(primaryErr).Str("provider", primary.Label).Msg("Основной провайдер не сработал, используется только дополнительный")
	case secondaryErr != nil:
		log.Warn().Err(secondaryErr).Str("provider", secondary.Label).Msg("Дополнительный провайдер не сработал, используется только основной")
	}

	return res, nil
}

func (p *Pipeline) run(ctx context.Context, provider *Provider, pcm []byte) (*llm.Candidate, error) {
	start := time.Now()
	result, err := provider.Recognizer.Transcribe(ctx, pcm, p.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", provider.Recognizer.Name(), err)
	}

	log.Info().
		Str("provider", provider.Label).
		Str("engine", provider.Recognizer.Name()).
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Str("text", result.Text).
		Msg("Распознано")

	return &llm.Candidate{Label: provider.Label, Result: result}, nil
}

// Close освобождает всех загруженных провайдеров.
func (p Providers) Close() {
	for _, provider := range []*Provider{p.Primary, p.Secondary, p.Cloud} {
		if provider.loaded() {
			provider.Recognizer.Close()
		}
	}
}
