package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"golos/internal/audio"
)

const (
	DefaultCloudEndpoint = "https://speech.googleapis.com/v1/speech:recognize"
	DefaultCloudTimeout  = 10 * time.Second
)

// ErrTranscriptionService - ошибка сети или API облачного распознавания.
var ErrTranscriptionService = errors.New("ошибка сервиса распознавания")

// ErrMissingAPIKey - не задан ключ API.
var ErrMissingAPIKey = errors.New("не задан ключ API")

// CloudConfig настройки Google Speech-to-Text.
type CloudConfig struct {
	Endpoint             string
	APIKey               string
	LanguageCode         string
	AlternativeLanguages []string
	Model                string
	EnablePunctuation    bool
	Timeout              time.Duration
}

// CloudRecognizer реализует Recognizer через Google Speech-to-Text REST API.
type CloudRecognizer struct {
	cfg        CloudConfig
	httpClient *http.Client
}

// NewCloud создаёт облачный распознаватель.
func NewCloud(cfg CloudConfig) (*CloudRecognizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google speech: %w", ErrMissingAPIKey)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultCloudEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCloudTimeout
	}

	return &CloudRecognizer{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// Name возвращает название движка.
func (c *CloudRecognizer) Name() string {
	return "google"
}

// Close ничего не делает: соединения переиспользуются http.Client.
func (c *CloudRecognizer) Close() {}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding                   string   `json:"encoding"`
	SampleRateHertz            int      `json:"sampleRateHertz"`
	LanguageCode               string   `json:"languageCode"`
	AlternativeLanguageCodes   []string `json:"alternativeLanguageCodes,omitempty"`
	Model                      string   `json:"model,omitempty"`
	EnableAutomaticPunctuation bool     `json:"enableAutomaticPunctuation"`
	EnableWordConfidence       bool     `json:"enableWordConfidence"`
}

type recognitionAudio struct {
	Content string `json:"content"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
			Words      []struct {
				Word       string  `json:"word"`
				Confidence float64 `json:"confidence"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe отправляет аудио в WAV контейнере на распознавание.
// Повторов нет: любая ошибка возвращается как ErrTranscriptionService.
func (c *CloudRecognizer) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (Result, error) {
	wav, err := audio.EncodeWAV(pcm, sampleRate)
	if err != nil {
		return Result{}, err
	}

	req := recognizeRequest{
		Config: recognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            sampleRate,
			LanguageCode:               c.cfg.LanguageCode,
			AlternativeLanguageCodes:   c.cfg.AlternativeLanguages,
			Model:                      c.cfg.Model,
			EnableAutomaticPunctuation: c.cfg.EnablePunctuation,
			EnableWordConfidence:       true,
		},
		Audio: recognitionAudio{
			Content: base64.StdEncoding.EncodeToString(wav),
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", c.cfg.APIKey)
	endpoint.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	log.Info().Int("bytes", len(wav)).Msg("Отправка на Google Speech-to-Text")
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTranscriptionService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("%w: HTTP %d: %s", ErrTranscriptionService, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var result recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("%w: decode response: %v", ErrTranscriptionService, err)
	}

	log.Debug().Dur("took", time.Since(start).Round(time.Millisecond)).Msg("Ответ Google Speech-to-Text получен")

	if len(result.Results) == 0 || len(result.Results[0].Alternatives) == 0 {
		return Result{}, nil
	}

	alt := result.Results[0].Alternatives[0]
	words := make([]WordScore, 0, len(alt.Words))
	for _, w := range alt.Words {
		words = append(words, WordScore{Word: w.Word, Confidence: clamp01(w.Confidence)})
	}

	return Result{Text: strings.TrimSpace(alt.Transcript), Words: words}, nil
}
