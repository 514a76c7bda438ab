// Package app собирает компоненты приложения и управляет их жизненным циклом.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"

	"golos/internal/config"
	"golos/internal/dialog"
	"golos/internal/dictation"
	"golos/internal/hotkey"
	"golos/internal/i18n"
	"golos/internal/inject"
	"golos/internal/llm"
	"golos/internal/mic"
	"golos/internal/models"
	"golos/internal/notify"
	"golos/internal/pipeline"
	"golos/internal/reconcile"
	"golos/internal/session"
	"golos/internal/tray"
)

// App представляет главное приложение.
type App struct {
	cfg       config.Config
	source    *mic.Source
	providers pipeline.Providers
	service   *dictation.Service
	notifier  *notify.Notifier
	tray      *tray.Tray
	hotkey    *hotkey.Handler

	cancelMu sync.Mutex
	cancel   context.CancelFunc
	closed   sync.Once
}

// New создаёт приложение. Модели загружаются синхронно.
func New(cfg config.Config) (*App, error) {
	i18n.SetLanguage(i18n.Language(cfg.UILanguage))

	manager, err := models.NewManager(cfg.ModelsDir)
	if err != nil {
		return nil, err
	}

	providers := loadProviders(cfg, manager)

	pipe, err := pipeline.New(pipeline.Mode(cfg.Mode), cfg.SampleRate, providers)
	if err != nil {
		providers.Close()
		return nil, err
	}

	var focus inject.FocusTracker
	if cfg.Injection.RestoreFocus {
		focus = inject.NewFocusTracker()
	}

	sink, err := inject.New(inject.Options{
		Method:        cfg.Injection.Method,
		TrailingSpace: cfg.Injection.TrailingSpace,
		Focus:         focus,
	})
	if err != nil {
		providers.Close()
		return nil, fmt.Errorf("вставка текста: %w", err)
	}

	source, err := mic.New()
	if err != nil {
		providers.Close()
		return nil, fmt.Errorf("микрофон: %w", err)
	}

	a := &App{
		cfg:       cfg,
		source:    source,
		providers: providers,
		notifier:  notify.New(cfg.Cues, cfg.Notifications),
	}

	notifiers := dictation.Notifiers{a.notifier}
	if cfg.Tray {
		a.tray = tray.New(tray.Callbacks{
			OnNotificationsToggle: a.notifier.ToggleNotifications,
			OnHotkeyClick:         a.changeHotkey,
			OnQuit:                a.stop,
		}, cfg.Notifications)
		notifiers = append(notifiers, a.tray)
	}

	a.service = dictation.New(
		session.NewController(source, focus, cfg.SampleRate),
		pipe,
		reconcile.New(newArbiter(cfg.Arbiter), cfg.Arbiter.Timeout),
		sink,
		notifiers,
	)
	a.hotkey = hotkey.New(a.service.Toggle)

	log.Info().
		Str("mode", cfg.Mode).
		Str("hotkey", cfg.Hotkey.String()).
		Str("injection", cfg.Injection.Method).
		Bool("arbiter", cfg.Arbiter.Enabled).
		Msg("Приложение инициализировано")

	return a, nil
}

// newArbiter возвращает nil если арбитраж выключен.
func newArbiter(ac config.ArbiterConfig) llm.Arbiter {
	if !ac.Enabled {
		return nil
	}

	arbiter, err := llm.New(llm.Config{
		Provider:            ac.Provider,
		BaseURL:             ac.BaseURL,
		Model:               ac.Model,
		APIKey:              ac.APIKey,
		Timeout:             ac.Timeout,
		MaxTokens:           ac.MaxTokens,
		Temperature:         ac.Temperature,
		ConfidenceThreshold: ac.ConfidenceThreshold,
	})
	if err != nil {
		log.Error().Err(err).Msg("Арбитраж отключён")
		return nil
	}

	if ollama, ok := arbiter.(*llm.OllamaArbiter); ok {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if !ollama.IsAvailable(ctx) {
			log.Warn().Msg("Ollama недоступна, будет использоваться слияние по уверенности")
		}
	}

	log.Info().Str("provider", arbiter.Name()).Msg("Арбитраж включён")
	return arbiter
}

// Run запускает обработку событий. Блокирует до отмены ctx или выхода из трея.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.cancelMu.Lock()
	a.cancel = cancel
	a.cancelMu.Unlock()

	served := make(chan error, 1)
	go func() {
		served <- a.service.Serve(ctx)
	}()

	if a.tray == nil {
		if err := a.ready(); err != nil {
			cancel()
			<-served
			return err
		}
		return <-served
	}

	go func() {
		<-ctx.Done()
		a.tray.Quit()
	}()

	a.tray.Run(func() {
		// Регистрируем горячую клавишу после инициализации трея
		if err := a.ready(); err != nil {
			go dialog.ShowError(i18n.T("error_startup"), err.Error())
		}
	})

	cancel()
	return <-served
}

func (a *App) ready() error {
	if err := a.hotkey.Register(a.cfg.Hotkey); err != nil {
		log.Error().Err(err).Msg("Ошибка регистрации горячей клавиши")
		return fmt.Errorf("%s: %w", i18n.T("error_hotkey_register"), err)
	}
	a.notifier.Ready()
	log.Info().Msgf("Приложение запущено. Нажмите %s для записи", a.cfg.Hotkey.String())
	return nil
}

func (a *App) stop() {
	a.cancelMu.Lock()
	defer a.cancelMu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// changeHotkey открывает диалог выбора горячей клавиши и перерегистрирует её.
// Выбор действует до перезапуска: файл конфигурации не меняется.
func (a *App) changeHotkey() {
	current := a.hotkey.Current()
	selected, err := dialog.SelectHotkey(current)
	if errors.Is(err, zenity.ErrCanceled) {
		return
	}
	if err != nil {
		dialog.ShowError(i18n.T("error_hotkey_register"), err.Error())
		return
	}

	if err := a.hotkey.Register(selected); err != nil {
		log.Error().Err(err).Str("hotkey", selected.String()).Msg("Ошибка регистрации горячей клавиши")
		dialog.ShowError(i18n.T("error_hotkey_register"), err.Error())
		// Возвращаем прежнюю
		if err := a.hotkey.Register(current); err != nil {
			log.Error().Err(err).Msg("Не удалось вернуть прежнюю горячую клавишу")
		}
	}
}

// Close освобождает ресурсы приложения. Вызывается после Run.
func (a *App) Close() {
	a.closed.Do(func() {
		a.hotkey.Unregister()
		a.notifier.Close()
		a.providers.Close()
		a.source.Close()
		log.Info().Msg("Приложение остановлено")
	})
}
