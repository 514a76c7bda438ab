package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// OllamaArbiter - арбитр через локальную Ollama. Ключ API не нужен.
type OllamaArbiter struct {
	cfg        Config
	httpClient *http.Client
}

// NewOllama создаёт арбитра Ollama.
func NewOllama(cfg Config) *OllamaArbiter {
	cfg = cfg.withDefaults()

	return &OllamaArbiter{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// generateRequest запрос к Ollama API.
type generateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Stream  bool   `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

// generateResponse ответ от Ollama API.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Name возвращает название провайдера.
func (o *OllamaArbiter) Name() string {
	return ProviderOllama
}

// Arbitrate отправляет оба варианта модели и возвращает её ответ.
func (o *OllamaArbiter) Arbitrate(ctx context.Context, primary, secondary Candidate) (string, error) {
	req := generateRequest{
		Model:  o.cfg.Model,
		Prompt: BuildPrompt(primary, secondary, o.cfg.ConfidenceThreshold),
		Stream: false,
	}
	req.Options.Temperature = o.cfg.Temperature
	req.Options.NumPredict = o.cfg.MaxTokens

	body, err := json.Marshal(req)
	if err != nil {
		return "", failed(o.Name(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", failed(o.Name(), err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return "", failed(o.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", failed(o.Name(), fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", failed(o.Name(), fmt.Errorf("decode response: %w", err))
	}

	if result.Error != "" {
		return "", failed(o.Name(), fmt.Errorf("ollama: %s", result.Error))
	}

	text, err := cleanReply(result.Response)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("provider", o.Name()).
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Str("text", text).
		Msg("Ответ арбитража получен")

	return text, nil
}

// IsAvailable проверяет доступность Ollama.
func (o *OllamaArbiter) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
