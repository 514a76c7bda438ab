// Package logger настраивает глобальный zerolog логгер приложения.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config настройки логирования.
type Config struct {
	Level   string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format  string `mapstructure:"format" validate:"omitempty,oneof=console json"`
	Output  string `mapstructure:"output" validate:"omitempty,oneof=stdout stderr"`
	NoColor bool   `mapstructure:"no_color"`
}

// DefaultConfig возвращает настройки по умолчанию.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: "stderr",
	}
}

// Setup настраивает глобальный логгер (github.com/rs/zerolog/log).
func Setup(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = New(cfg, outputWriter(cfg.Output))
}

// New создаёт логгер, пишущий в w.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if strings.ToLower(cfg.Format) == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}

	console := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    cfg.NoColor,
		TimeFormat: time.TimeOnly,
	}
	return zerolog.New(console).With().Timestamp().Logger()
}

func outputWriter(output string) io.Writer {
	switch strings.ToLower(output) {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}
