package llm

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

// AnthropicArbiter - арбитр через Anthropic Messages API.
type AnthropicArbiter struct {
	cfg    Config
	client anthropic.Client
}

// NewAnthropic создаёт арбитра Anthropic. Повторы SDK отключены.
func NewAnthropic(cfg Config) *AnthropicArbiter {
	cfg = cfg.withDefaults()

	return &AnthropicArbiter{
		cfg: cfg,
		client: anthropic.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(cfg.BaseURL),
			option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
			option.WithMaxRetries(0),
		),
	}
}

// Name возвращает название провайдера.
func (a *AnthropicArbiter) Name() string {
	return ProviderAnthropic
}

// Arbitrate отправляет оба варианта модели и возвращает её ответ.
func (a *AnthropicArbiter) Arbitrate(ctx context.Context, primary, secondary Candidate) (string, error) {
	if a.cfg.APIKey == "" {
		return "", failed(a.Name(), ErrMissingAPIKey)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		MaxTokens: int64(a.cfg.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(primary, secondary, a.cfg.ConfidenceThreshold))),
		},
		Temperature: anthropic.Float(a.cfg.Temperature),
	}

	start := time.Now()
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", failed(a.Name(), err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	text, err := cleanReply(content.String())
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("provider", a.Name()).
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Str("text", text).
		Msg("Ответ арбитража получен")

	return text, nil
}
