// Golos - голосовой ввод текста по горячей клавише.
//
// Записывает речь с микрофона, распознаёт офлайн (Vosk/Whisper) или через
// облако и вставляет текст в активное окно.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"golos/internal/app"
	"golos/internal/config"
	"golos/internal/dialog"
	"golos/internal/hotkey"
	"golos/internal/i18n"
	"golos/internal/logger"
	"golos/internal/models"
)

// Version устанавливается при сборке через -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath(), "путь к config.yaml")
	envFile := flag.String("env", "", "путь к .env с ключами API")
	download := flag.String("download", "", "скачать модель по ID и выйти")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envFile)
	logger.Setup(cfg.Log)
	if err != nil {
		log.Warn().Err(err).Msg("Используется конфигурация по умолчанию")
	}

	log.Info().Str("version", Version).Msg("Golos запускается")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *download != "" {
		if err := downloadModel(ctx, cfg.ModelsDir, *download); err != nil {
			log.Error().Err(err).Str("model", *download).Msg("Ошибка скачивания модели")
			os.Exit(1)
		}
		return
	}

	// Запускаем в главном потоке (требование для macOS и некоторых GUI)
	hotkey.RunOnMainThread(func() {
		if err := run(ctx, cfg); err != nil {
			log.Error().Err(err).Msg("Ошибка запуска")
			dialog.ShowError(i18n.T("error_startup"), err.Error())
			os.Exit(1)
		}
	})
}

func run(ctx context.Context, cfg config.Config) error {
	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func downloadModel(ctx context.Context, dir, id string) error {
	info, ok := models.Lookup(id)
	if !ok {
		return fmt.Errorf("неизвестная модель: %s", id)
	}

	manager, err := models.NewManager(dir)
	if err != nil {
		return err
	}

	lastPercent := -1
	err = manager.Download(ctx, info, func(p models.Progress) {
		if p.Total <= 0 {
			return
		}
		percent := int(p.Downloaded * 100 / p.Total)
		if percent/10 == lastPercent/10 && !p.Done {
			return
		}
		lastPercent = percent
		log.Info().Str("model", p.ModelID).Int("percent", min(percent, 100)).Msg("Скачивание")
	})
	if err != nil {
		return err
	}

	log.Info().Str("model", id).Str("path", manager.Path(info)).Msg("Готово")
	return nil
}
