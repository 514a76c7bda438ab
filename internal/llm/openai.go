package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIArbiter - арбитр через OpenAI-совместимый chat completions API
// (DeepSeek, OpenAI).
type OpenAIArbiter struct {
	cfg    Config
	client *openai.Client
}

// NewOpenAI создаёт арбитра для OpenAI-совместимого API.
func NewOpenAI(cfg Config) *OpenAIArbiter {
	cfg = cfg.withDefaults()

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIArbiter{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

// Name возвращает название провайдера.
func (a *OpenAIArbiter) Name() string {
	return a.cfg.Provider
}

// Arbitrate отправляет оба варианта модели и возвращает её ответ.
func (a *OpenAIArbiter) Arbitrate(ctx context.Context, primary, secondary Candidate) (string, error) {
	if a.cfg.APIKey == "" {
		return "", failed(a.Name(), ErrMissingAPIKey)
	}

	req := openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(primary, secondary, a.cfg.ConfidenceThreshold)},
		},
		Temperature: float32(a.cfg.Temperature),
		MaxTokens:   a.cfg.MaxTokens,
	}

	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", failed(a.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return "", failed(a.Name(), errNoChoices)
	}

	text, err := cleanReply(resp.Choices[0].Message.Content)
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
