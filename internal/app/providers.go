package app

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"golos/internal/config"
	"golos/internal/models"
	"golos/internal/pipeline"
	"golos/internal/speech"
	"golos/internal/speech/vosk"
	"golos/internal/speech/whisper"
)

// loadProviders загружает провайдеров, нужных режиму. Провайдер, который
// не удалось загрузить, логируется и остаётся отсутствующим.
func loadProviders(cfg config.Config, manager *models.Manager) pipeline.Providers {
	var providers pipeline.Providers

	switch cfg.Mode {
	case config.ModeCloud:
		providers.Cloud = loadCloud(cfg.Cloud)
	case config.ModeSingleOffline:
		providers.Primary = loadOffline("primary", cfg.Offline.Primary, manager, cfg.SampleRate)
	case config.ModeDualOffline:
		providers.Primary = loadOffline("primary", cfg.Offline.Primary, manager, cfg.SampleRate)
		providers.Secondary = loadOffline("secondary", cfg.Offline.Secondary, manager, cfg.SampleRate)
	}

	return providers
}

func loadOffline(role string, pc config.ProviderConfig, manager *models.Manager, sampleRate int) *pipeline.Provider {
	if !pc.Enabled() {
		log.Info().Str("role", role).Msg("Провайдер не сконфигурирован")
		return nil
	}

	if err := pc.CheckSampleRate(sampleRate); err != nil {
		log.Error().Err(err).Str("role", role).Msg("Провайдер отключён")
		return nil
	}

	start := time.Now()
	recognizer, err := openRecognizer(pc, manager, sampleRate)
	if err != nil {
		log.Error().Err(err).Str("role", role).Str("engine", pc.Engine).Msg("Не удалось загрузить модель")
		return nil
	}

	log.Info().
		Str("role", role).
		Str("provider", recognizer.Name()).
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Msg("Модель загружена")

	return &pipeline.Provider{Label: label(pc), Recognizer: recognizer}
}

func openRecognizer(pc config.ProviderConfig, manager *models.Manager, sampleRate int) (speech.Recognizer, error) {
	path, err := manager.Resolve(pc.Model, pc.ModelPath)
	if err != nil {
		return nil, err
	}

	switch pc.Engine {
	case config.EngineVosk:
		r, err := vosk.New(label(pc), path, sampleRate)
		if err != nil {
			return nil, err
		}
		return r, nil
	case config.EngineWhisper:
		r, err := whisper.New(label(pc), path, pc.Language)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("неизвестный движок: %s", pc.Engine)
	}
}

func loadCloud(cc config.CloudConfig) *pipeline.Provider {
	recognizer, err := speech.NewCloud(speech.CloudConfig{
		Endpoint:             cc.Endpoint,
		APIKey:               cc.APIKey,
		LanguageCode:         cc.LanguageCode,
		AlternativeLanguages: cc.AlternativeLanguages,
		Model:                cc.Model,
		EnablePunctuation:    cc.EnablePunctuation,
		Timeout:              cc.Timeout,
	})
	if err != nil {
		log.Error().Err(err).Msg("Облачное распознавание недоступно")
		return nil
	}
	return &pipeline.Provider{Label: cc.LanguageCode, Recognizer: recognizer}
}

// label - метка провайдера для промпта арбитража.
func label(pc config.ProviderConfig) string {
	if pc.Language != "" {
		return pc.Language
	}
	return pc.Engine
}
