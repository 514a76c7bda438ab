package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix префикс переменных окружения, переопределяющих ключи конфигурации
// (GOLOS_MODE, GOLOS_ARBITER_ENABLED, ...).
const EnvPrefix = "GOLOS"

// Переменные окружения с ключами API (обычно в .env).
const (
	EnvDeepSeekKey  = "DEEPSEEK_API_KEY"
	EnvOpenAIKey    = "OPENAI_API_KEY"
	EnvAnthropicKey = "ANTHROPIC_API_KEY"
	EnvGoogleKey    = "GOOGLE_API_KEY"
)

// Load загружает конфигурацию из YAML файла path и .env файла envFile.
//
// Если envFile пустой, ищется .env в текущей директории и рядом с path.
// При любой ошибке чтения или валидации возвращаются значения по умолчанию
// (с ключами API из окружения) вместе с ошибкой, которую вызывающий код
// должен залогировать.
func Load(path, envFile string) (Config, error) {
	loadDotEnv(path, envFile)

	fallback := Default()
	applySecrets(&fallback)

	v := viper.New()
	setDefaults(v, fallback)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return fallback, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return fallback, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	applySecrets(&cfg)

	if err := Validate(cfg); err != nil {
		return fallback, err
	}
	for _, w := range Warnings(cfg) {
		log.Warn().Str("config", path).Msg(w)
	}

	return cfg, nil
}

// Validate проверяет конфигурацию.
func Validate(cfg Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("hotkey_key", validHotkeyKey); err != nil {
		return err
	}

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}

	return nil
}

// Warnings возвращает проблемы конфигурации, которые не мешают запуску:
// запись начнётся, но распознавание завершится ErrProviderUnavailable.
func Warnings(cfg Config) []string {
	var warnings []string

	var providers []ProviderConfig
	switch cfg.Mode {
	case ModeSingleOffline:
		providers = []ProviderConfig{cfg.Offline.Primary}
		if !cfg.Offline.Primary.Enabled() {
			warnings = append(warnings, "режим single-offline: offline.primary не сконфигурирован")
		}
	case ModeDualOffline:
		providers = []ProviderConfig{cfg.Offline.Primary, cfg.Offline.Secondary}
		if !cfg.Offline.Primary.Enabled() && !cfg.Offline.Secondary.Enabled() {
			warnings = append(warnings, "режим dual-offline: ни один офлайн провайдер не сконфигурирован")
		}
	case ModeCloud:
		if cfg.Cloud.APIKey == "" {
			warnings = append(warnings, "режим cloud: не задан ключ "+EnvGoogleKey)
		}
	}

	for _, p := range providers {
		if !p.Enabled() {
			continue
		}
		if err := p.CheckSampleRate(cfg.SampleRate); err != nil {
			warnings = append(warnings, err.Error())
		}
	}

	return warnings
}

func validHotkeyKey(fl validator.FieldLevel) bool {
	return slices.Contains(AvailableKeys(), Key(fl.Field().String()))
}

// loadDotEnv загружает .env файл. Уже заданные переменные окружения не
// перезаписываются.
func loadDotEnv(configPath, envFile string) {
	candidates := []string{envFile}
	if envFile == "" {
		candidates = []string{".env", filepath.Join(filepath.Dir(configPath), ".env")}
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		// Ошибка .env не критична: ключи могут прийти из окружения
		_ = godotenv.Load(path)
		return
	}
}

// applySecrets подставляет ключи API из окружения если они не заданы в файле.
func applySecrets(cfg *Config) {
	if cfg.Cloud.APIKey == "" {
		cfg.Cloud.APIKey = os.Getenv(EnvGoogleKey)
	}

	if cfg.Arbiter.APIKey != "" {
		return
	}
	switch cfg.Arbiter.Provider {
	case ArbiterDeepSeek:
		cfg.Arbiter.APIKey = os.Getenv(EnvDeepSeekKey)
	case ArbiterOpenAI:
		cfg.Arbiter.APIKey = os.Getenv(EnvOpenAIKey)
	case ArbiterAnthropic:
		cfg.Arbiter.APIKey = os.Getenv(EnvAnthropicKey)
	}
}

// setDefaults регистрирует значения по умолчанию в viper, чтобы
// переменные окружения GOLOS_* работали и для ключей, отсутствующих в файле.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("mode", d.Mode)
	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("models_dir", d.ModelsDir)

	for name, p := range map[string]ProviderConfig{
		"offline.primary":   d.Offline.Primary,
		"offline.secondary": d.Offline.Secondary,
	} {
		v.SetDefault(name+".engine", p.Engine)
		v.SetDefault(name+".model", p.Model)
		v.SetDefault(name+".model_path", p.ModelPath)
		v.SetDefault(name+".language", p.Language)
	}

	v.SetDefault("cloud.endpoint", d.Cloud.Endpoint)
	v.SetDefault("cloud.language_code", d.Cloud.LanguageCode)
	v.SetDefault("cloud.alternative_languages", d.Cloud.AlternativeLanguages)
	v.SetDefault("cloud.model", d.Cloud.Model)
	v.SetDefault("cloud.enable_punctuation", d.Cloud.EnablePunctuation)
	v.SetDefault("cloud.timeout", d.Cloud.Timeout)

	v.SetDefault("arbiter.enabled", d.Arbiter.Enabled)
	v.SetDefault("arbiter.provider", d.Arbiter.Provider)
	v.SetDefault("arbiter.base_url", d.Arbiter.BaseURL)
	v.SetDefault("arbiter.model", d.Arbiter.Model)
	v.SetDefault("arbiter.timeout", d.Arbiter.Timeout)
	v.SetDefault("arbiter.max_tokens", d.Arbiter.MaxTokens)
	v.SetDefault("arbiter.temperature", d.Arbiter.Temperature)
	v.SetDefault("arbiter.confidence_threshold", d.Arbiter.ConfidenceThreshold)

	mods := make([]string, len(d.Hotkey.Modifiers))
	for i, m := range d.Hotkey.Modifiers {
		mods[i] = string(m)
	}
	v.SetDefault("hotkey.modifiers", mods)
	v.SetDefault("hotkey.key", string(d.Hotkey.Key))

	v.SetDefault("injection.method", d.Injection.Method)
	v.SetDefault("injection.trailing_space", d.Injection.TrailingSpace)
	v.SetDefault("injection.restore_focus", d.Injection.RestoreFocus)

	v.SetDefault("notifications", d.Notifications)
	v.SetDefault("cues", d.Cues)
	v.SetDefault("tray", d.Tray)
	v.SetDefault("ui_language", d.UILanguage)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.no_color", d.Log.NoColor)
}
