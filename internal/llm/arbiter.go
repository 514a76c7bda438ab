// Package llm предоставляет AI арбитраж между двумя вариантами распознавания.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golos/internal/speech"
)

const (
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"

	DefaultDeepSeekURL    = "https://api.deepseek.com/v1"
	DefaultDeepSeekModel  = "deepseek-chat"
	DefaultOpenAIURL      = "https://api.openai.com/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicURL   = "https://api.anthropic.com"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultOllamaURL      = "http://localhost:11434"
	DefaultOllamaModel    = "qwen2.5:0.5b"

	DefaultTimeout   = 10 * time.Second
	DefaultMaxTokens = 150
	DefaultThreshold = 0.9
)

var (
	// ErrArbitrationFailed - арбитраж не дал результата. Не повторяется.
	ErrArbitrationFailed = errors.New("арбитраж не удался")

	// ErrMissingAPIKey - для провайдера не задан ключ API.
	ErrMissingAPIKey = errors.New("не задан ключ API")

	errNoChoices = errors.New("ответ без вариантов")
)

// Candidate - вариант распознавания с меткой провайдера (язык модели).
type Candidate struct {
	Label  string
	Result speech.Result
}

// Arbiter выбирает или комбинирует итоговый текст из двух вариантов.
type Arbiter interface {
	Arbitrate(ctx context.Context, primary, secondary Candidate) (string, error)
	Name() string
}

// Config конфигурация арбитра.
type Config struct {
	Provider            string
	BaseURL             string
	Model               string
	APIKey              string
	Timeout             time.Duration
	MaxTokens           int
	Temperature         float64
	ConfidenceThreshold float64
}

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderDeepSeek
	}

	var url, model string
	switch c.Provider {
	case ProviderDeepSeek:
		url, model = DefaultDeepSeekURL, DefaultDeepSeekModel
	case ProviderOpenAI:
		url, model = DefaultOpenAIURL, DefaultOpenAIModel
	case ProviderAnthropic:
		url, model = DefaultAnthropicURL, DefaultAnthropicModel
	case ProviderOllama:
		url, model = DefaultOllamaURL, DefaultOllamaModel
	}
	if c.BaseURL == "" {
		c.BaseURL = url
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.ConfidenceThreshold <= 0 {
		c.ConfidenceThreshold = DefaultThreshold
	}
	return c
}

// New создаёт арбитра для провайдера из конфигурации.
// Ключ API проверяется при вызове: без ключа арбитраж завершается
// ErrArbitrationFailed и срабатывает слияние по уверенности.
func New(cfg Config) (Arbiter, error) {
	cfg = cfg.withDefaults()

	switch cfg.Provider {
	case ProviderDeepSeek, ProviderOpenAI:
		return NewOpenAI(cfg), nil
	case ProviderAnthropic:
		return NewAnthropic(cfg), nil
	case ProviderOllama:
		return NewOllama(cfg), nil
	default:
		return nil, fmt.Errorf("неизвестный провайдер арбитража: %s", cfg.Provider)
	}
}

// cleanReply обрезает пробелы и кавычки вокруг ответа модели.
func cleanReply(reply string) (string, error) {
	text := strings.Trim(strings.TrimSpace(reply), `"'`)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: пустой ответ", ErrArbitrationFailed)
	}
	return text, nil
}

func failed(provider string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrArbitrationFailed, provider, err)
}
