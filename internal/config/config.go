// Package config предоставляет конфигурацию приложения.
//
// Конфигурация читается один раз при старте из YAML документа и переменных
// окружения и дальше не меняется. При ошибке загрузки используются
// значения по умолчанию.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golos/internal/audio"
	"golos/internal/logger"
)

// Режимы распознавания.
const (
	ModeSingleOffline = "single-offline"
	ModeDualOffline   = "dual-offline"
	ModeCloud         = "cloud"
)

// Движки офлайн распознавания.
const (
	EngineVosk    = "vosk"
	EngineWhisper = "whisper"
)

// Провайдеры арбитража.
const (
	ArbiterDeepSeek  = "deepseek"
	ArbiterOpenAI    = "openai"
	ArbiterAnthropic = "anthropic"
	ArbiterOllama    = "ollama"
)

// Способы вставки текста.
const (
	InjectPaste = "paste"
)

// Modifier представляет модификатор клавиши.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key представляет клавишу.
type Key string

const (
	KeySpace  Key = "space"
	KeyReturn Key = "return"
	KeyTab    Key = "tab"
	KeyA      Key = "a"
	KeyB      Key = "b"
	KeyC      Key = "c"
	KeyD      Key = "d"
	KeyE      Key = "e"
	KeyF      Key = "f"
	KeyG      Key = "g"
	KeyH      Key = "h"
	KeyI      Key = "i"
	KeyJ      Key = "j"
	KeyK      Key = "k"
	KeyL      Key = "l"
	KeyM      Key = "m"
	KeyN      Key = "n"
	KeyO      Key = "o"
	KeyP      Key = "p"
	KeyQ      Key = "q"
	KeyR      Key = "r"
	KeyS      Key = "s"
	KeyT      Key = "t"
	KeyU      Key = "u"
	KeyV      Key = "v"
	KeyW      Key = "w"
	KeyX      Key = "x"
	KeyY      Key = "y"
	KeyZ      Key = "z"
	KeyF1     Key = "f1"
	KeyF2     Key = "f2"
	KeyF3     Key = "f3"
	KeyF4     Key = "f4"
	KeyF5     Key = "f5"
	KeyF6     Key = "f6"
	KeyF7     Key = "f7"
	KeyF8     Key = "f8"
	KeyF9     Key = "f9"
	KeyF10    Key = "f10"
	KeyF11    Key = "f11"
	KeyF12    Key = "f12"
)

// HotkeyConfig хранит настройки горячей клавиши.
type HotkeyConfig struct {
	Modifiers []Modifier `mapstructure:"modifiers" validate:"dive,oneof=ctrl shift alt super"`
	Key       Key        `mapstructure:"key" validate:"required,hotkey_key"`
}

// String возвращает строковое представление горячей клавиши.
func (h HotkeyConfig) String() string {
	result := ""
	for _, m := range h.Modifiers {
		if result != "" {
			result += "+"
		}
		result += string(m)
	}
	if result != "" {
		result += "+"
	}
	result += string(h.Key)
	return result
}

// ProviderConfig описывает один офлайн распознаватель.
type ProviderConfig struct {
	// Engine - vosk или whisper. Пустое значение отключает провайдер.
	Engine string `mapstructure:"engine" validate:"omitempty,oneof=vosk whisper"`
	// Model - ID модели из registry (vosk-ru-small).
	Model string `mapstructure:"model"`
	// ModelPath - явный путь к модели, имеет приоритет над Model.
	ModelPath string `mapstructure:"model_path"`
	// Language - метка языка ("ru", "en"), используется в промпте арбитража и логах.
	Language string `mapstructure:"language"`
}

// WhisperSampleRate - частота, которую принимает whisper.cpp.
const WhisperSampleRate = 16000

// CheckSampleRate проверяет, что движок работает на частоте захвата.
func (p ProviderConfig) CheckSampleRate(rate int) error {
	if p.Engine == EngineWhisper && rate != WhisperSampleRate {
		return fmt.Errorf("whisper требует sample_rate %d, задано %d", WhisperSampleRate, rate)
	}
	return nil
}

// Enabled возвращает true если провайдер сконфигурирован.
func (p ProviderConfig) Enabled() bool {
	return p.Engine != "" && (p.Model != "" || p.ModelPath != "")
}

// OfflineConfig настройки офлайн режимов.
type OfflineConfig struct {
	Primary   ProviderConfig `mapstructure:"primary"`
	Secondary ProviderConfig `mapstructure:"secondary"`
}

// CloudConfig настройки облачного распознавания (Google Speech-to-Text).
type CloudConfig struct {
	Endpoint             string        `mapstructure:"endpoint" validate:"omitempty,url"`
	APIKey               string        `mapstructure:"api_key"`
	LanguageCode         string        `mapstructure:"language_code"`
	AlternativeLanguages []string      `mapstructure:"alternative_languages"`
	Model                string        `mapstructure:"model"`
	EnablePunctuation    bool          `mapstructure:"enable_punctuation"`
	Timeout              time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// ArbiterConfig настройки AI арбитража между двумя вариантами.
// Пустые BaseURL и Model заменяются значениями провайдера по умолчанию.
type ArbiterConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Provider            string        `mapstructure:"provider" validate:"omitempty,oneof=deepseek openai anthropic ollama"`
	BaseURL             string        `mapstructure:"base_url" validate:"omitempty,url"`
	Model               string        `mapstructure:"model"`
	APIKey              string        `mapstructure:"api_key"`
	Timeout             time.Duration `mapstructure:"timeout" validate:"gte=0,lte=10s"`
	MaxTokens           int           `mapstructure:"max_tokens" validate:"gte=0"`
	Temperature         float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold" validate:"gte=0,lte=1"`
}

// InjectionConfig настройки вставки текста.
type InjectionConfig struct {
	Method        string `mapstructure:"method" validate:"omitempty,oneof=paste type"`
	TrailingSpace bool   `mapstructure:"trailing_space"`
	RestoreFocus  bool   `mapstructure:"restore_focus"`
}

// Config хранит настройки приложения.
type Config struct {
	Mode          string          `mapstructure:"mode" validate:"oneof=single-offline dual-offline cloud"`
	SampleRate    int             `mapstructure:"sample_rate" validate:"gte=8000,lte=48000"`
	ModelsDir     string          `mapstructure:"models_dir"`
	Offline       OfflineConfig   `mapstructure:"offline"`
	Cloud         CloudConfig     `mapstructure:"cloud"`
	Arbiter       ArbiterConfig   `mapstructure:"arbiter"`
	Hotkey        HotkeyConfig    `mapstructure:"hotkey"`
	Injection     InjectionConfig `mapstructure:"injection"`
	Notifications bool            `mapstructure:"notifications"`
	Cues          bool            `mapstructure:"cues"`
	Tray          bool            `mapstructure:"tray"`
	UILanguage    string          `mapstructure:"ui_language" validate:"omitempty,oneof=ru en"`
	Log           logger.Config   `mapstructure:"log"`
}

// Default возвращает конфигурацию по умолчанию.
func Default() Config {
	return Config{
		Mode:       ModeDualOffline,
		SampleRate: audio.DefaultSampleRate,
		Offline: OfflineConfig{
			Primary: ProviderConfig{
				Engine:   EngineVosk,
				Model:    "vosk-ru-small",
				Language: "ru",
			},
			Secondary: ProviderConfig{
				Engine:   EngineVosk,
				Model:    "vosk-en-small",
				Language: "en",
			},
		},
		Cloud: CloudConfig{
			Endpoint:             "https://speech.googleapis.com/v1/speech:recognize",
			LanguageCode:         "ru-RU",
			AlternativeLanguages: []string{"en-US"},
			Model:                "latest_long",
			EnablePunctuation:    true,
			Timeout:              10 * time.Second,
		},
		Arbiter: ArbiterConfig{
			Enabled:             true,
			Provider:            ArbiterDeepSeek,
			Timeout:             10 * time.Second,
			MaxTokens:           150,
			Temperature:         0.1,
			ConfidenceThreshold: 0.9,
		},
		Hotkey: HotkeyConfig{
			Modifiers: []Modifier{ModCtrl, ModShift},
			Key:       KeySpace,
		},
		Injection: InjectionConfig{
			Method:        InjectPaste,
			TrailingSpace: true,
			RestoreFocus:  true,
		},
		Notifications: true,
		Cues:          true,
		Tray:          true,
		UILanguage:    "ru",
		Log:           logger.DefaultConfig(),
	}
}

// DefaultPath возвращает путь к config.yaml рядом с бинарником.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return "config.yaml"
	}
	// Резолвим симлинки
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(filepath.Dir(execPath), "config.yaml")
}

// AvailableModifiers возвращает список доступных модификаторов.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys возвращает список доступных клавиш.
func AvailableKeys() []Key {
	return []Key{
		KeySpace, KeyReturn, KeyTab,
		KeyA, KeyB, KeyC, KeyD, KeyE, KeyF, KeyG, KeyH, KeyI, KeyJ, KeyK, KeyL, KeyM,
		KeyN, KeyO, KeyP, KeyQ, KeyR, KeyS, KeyT, KeyU, KeyV, KeyW, KeyX, KeyY, KeyZ,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6, KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	}
}
