package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golos/internal/speech"
)

func candidates() (Candidate, Candidate) {
	primary := Candidate{Label: "ru", Result: speech.Result{
		Text:  "привет ворлд",
		Words: []speech.WordScore{{Word: "привет", Confidence: 0.95}, {Word: "ворлд", Confidence: 0.40}},
	}}
	secondary := Candidate{Label: "en", Result: speech.Result{
		Text:  "privet world",
		Words: []speech.WordScore{{Word: "privet", Confidence: 0.30}, {Word: "world", Confidence: 0.90}},
	}}
	return primary, secondary
}

func TestBuildPrompt(t *testing.T) {
	primary, secondary := candidates()
	prompt := BuildPrompt(primary, secondary, 0.9)

	for _, want := range []string{
		"привет ворлд",
		"privet world",
		"'привет' (0.95)",
		"'world' (0.90)",
		"0.90",
		"ТОЛЬКО слова из этих двух вариантов",
		"транслитерация",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt does not contain %q:\n%s", want, prompt)
		}
	}
}

func TestCleanReply(t *testing.T) {
	cases := map[string]string{
		"  привет world \n": "привет world",
		`"привет world"`:    "привет world",
		`'привет world'`:    "привет world",
	}
	for in, want := range cases {
		got, err := cleanReply(in)
		if err != nil {
			t.Fatalf("clean %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("clean %q: expected %q, got %q", in, want, got)
		}
	}

	if _, err := cleanReply(` "" `); !errors.Is(err, ErrArbitrationFailed) {
		t.Fatalf("expected ErrArbitrationFailed for empty reply, got %v", err)
	}
}

func TestNewSelectsProvider(t *testing.T) {
	for provider, want := range map[string]string{
		"":                "deepseek",
		ProviderDeepSeek:  "deepseek",
		ProviderOpenAI:    "openai",
		ProviderAnthropic: "anthropic",
		ProviderOllama:    "ollama",
	} {
		a, err := New(Config{Provider: provider})
		if err != nil {
			t.Fatalf("new %q: %v", provider, err)
		}
		if a.Name() != want {
			t.Fatalf("provider %q: expected %s, got %s", provider, want, a.Name())
		}
	}

	if _, err := New(Config{Provider: "unknown"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{Provider: ProviderDeepSeek}.withDefaults()
	if cfg.BaseURL != DefaultDeepSeekURL || cfg.Model != DefaultDeepSeekModel {
		t.Fatalf("unexpected deepseek defaults %+v", cfg)
	}
	if cfg.Timeout != DefaultTimeout || cfg.MaxTokens != 150 || cfg.ConfidenceThreshold != 0.9 {
		t.Fatalf("unexpected limits %+v", cfg)
	}
}

func TestOpenAIArbitrate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}

		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != "deepseek-chat" || req.MaxTokens != 150 {
			t.Errorf("unexpected request %+v", req)
		}
		if req.Temperature < 0.09 || req.Temperature > 0.11 {
			t.Errorf("unexpected temperature %v", req.Temperature)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" || !strings.Contains(req.Messages[0].Content, "привет ворлд") {
			t.Errorf("unexpected messages %+v", req.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  \"привет world\"\n"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	a := NewOpenAI(Config{
		Provider:    ProviderDeepSeek,
		BaseURL:     server.URL,
		APIKey:      "sk-test",
		Temperature: 0.1,
	})

	primary, secondary := candidates()
	text, err := a.Arbitrate(context.Background(), primary, secondary)
	if err != nil {
		t.Fatalf("arbitrate: %v", err)
	}
	if text != "привет world" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestOpenAIArbitrateFailures(t *testing.T) {
	primary, secondary := candidates()

	t.Run("missing key", func(t *testing.T) {
		a := NewOpenAI(Config{Provider: ProviderDeepSeek, BaseURL: "http://127.0.0.1:1"})
		_, err := a.Arbitrate(context.Background(), primary, secondary)
		if !errors.Is(err, ErrArbitrationFailed) {
			t.Fatalf("expected ErrArbitrationFailed, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
		}))
		defer server.Close()

		a := NewOpenAI(Config{BaseURL: server.URL, APIKey: "k"})
		_, err := a.Arbitrate(context.Background(), primary, secondary)
		if !errors.Is(err, ErrArbitrationFailed) {
			t.Fatalf("expected ErrArbitrationFailed, got %v", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":`))
		}))
		defer server.Close()

		a := NewOpenAI(Config{BaseURL: server.URL, APIKey: "k"})
		_, err := a.Arbitrate(context.Background(), primary, secondary)
		if !errors.Is(err, ErrArbitrationFailed) {
			t.Fatalf("expected ErrArbitrationFailed, got %v", err)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		a := NewOpenAI(Config{BaseURL: server.URL, APIKey: "k"})
		_, err := a.Arbitrate(context.Background(), primary, secondary)
		if !errors.Is(err, ErrArbitrationFailed) {
			t.Fatalf("expected ErrArbitrationFailed, got %v", err)
		}
	})
}

func TestAnthropicArbitrate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "ant-test" {
			t.Errorf("unexpected api key header %q", r.Header.Get("X-Api-Key"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-3-5-haiku-latest",
			"content":[{"type":"text","text":"'привет world'"}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":3}}`))
	}))
	defer server.Close()

	a := NewAnthropic(Config{BaseURL: server.URL, APIKey: "ant-test", Temperature: 0.1})
	primary, secondary := candidates()
	text, err := a.Arbitrate(context.Background(), primary, secondary)
	if err != nil {
		t.Fatalf("arbitrate: %v", err)
	}
	if text != "привет world" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestAnthropicArbitrateMissingKey(t *testing.T) {
	a := NewAnthropic(Config{BaseURL: "http://127.0.0.1:1"})
	primary, secondary := candidates()
	if _, err := a.Arbitrate(context.Background(), primary, secondary); !errors.Is(err, ErrArbitrationFailed) {
		t.Fatalf("expected ErrArbitrationFailed, got %v", err)
	}
}

func TestOllamaArbitrate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			w.Write([]byte(`{"models":[]}`))
		case "/api/generate":
			var req generateRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode: %v", err)
			}
			if req.Stream || req.Options.NumPredict != 150 {
				t.Errorf("unexpected request %+v", req)
			}
			w.Write([]byte(`{"response":"привет world","done":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	a := NewOllama(Config{BaseURL: server.URL})
	if !a.IsAvailable(context.Background()) {
		t.Fatal("expected ollama to be available")
	}

	primary, secondary := candidates()
	text, err := a.Arbitrate(context.Background(), primary, secondary)
	if err != nil {
		t.Fatalf("arbitrate: %v", err)
	}
	if text != "привет world" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestOllamaArbitrateError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer server.Close()

	a := NewOllama(Config{BaseURL: server.URL})
	primary, secondary := candidates()
	if _, err := a.Arbitrate(context.Background(), primary, secondary); !errors.Is(err, ErrArbitrationFailed) {
		t.Fatalf("expected ErrArbitrationFailed, got %v", err)
	}
}
