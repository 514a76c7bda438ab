package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golos/internal/speech"
)

type fakeRecognizer struct {
	name   string
	result speech.Result
	err    error
	delay  time.Duration

	calls      atomic.Int32
	sampleRate atomic.Int32
}

func (f *fakeRecognizer) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (speech.Result, error) {
	f.calls.Add(1)
	f.sampleRate.Store(int32(sampleRate))
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.result, f.err
}

func (f *fakeRecognizer) Close()       {}
func (f *fakeRecognizer) Name() string { return f.name }

func provider(label string, r *fakeRecognizer) *Provider {
	return &Provider{Label: label, Recognizer: r}
}

var pcm = []byte{1, 0, 2, 0}

func TestNewRejectsUnknownMode(t *testing.T) {
	if _, err := New("stereo", 16000, Providers{}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestEmptyAudio(t *testing.T) {
	ru := &fakeRecognizer{name: "ru"}
	p, _ := New(ModeSingleOffline, 16000, Providers{Primary: provider("ru", ru)})

	_, err := p.Transcribe(context.Background(), nil)
	if !errors.Is(err, ErrNoAudioCaptured) {
		t.Fatalf("expected ErrNoAudioCaptured, got %v", err)
	}
	if ru.calls.Load() != 0 {
		t.Fatal("recognizer must not be called for empty audio")
	}
}

func TestSingleOffline(t *testing.T) {
	ru := &fakeRecognizer{name: "ru", result: speech.Result{Text: "тест"}}
	en := &fakeRecognizer{name: "en"}
	p, _ := New(ModeSingleOffline, 16000, Providers{Primary: provider("ru", ru), Secondary: provider("en", en)})

	res, err := p.Transcribe(context.Background(), pcm)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Primary == nil || res.Primary.Result.Text != "тест" || res.Primary.Label != "ru" {
		t.Fatalf("unexpected primary %+v", res.Primary)
	}
	if res.Secondary != nil {
		t.Fatal("secondary must be absent in single mode")
	}
	if en.calls.Load() != 0 {
		t.Fatal("secondary must not run in single mode")
	}
	if ru.sampleRate.Load() != 16000 {
		t.Fatalf("expected capture sample rate, got %d", ru.sampleRate.Load())
	}
}

func TestProviderUnavailable(t *testing.T) {
	for _, mode := range []Mode{ModeSingleOffline, ModeDualOffline, ModeCloud} {
		p, _ := New(mode, 16000, Providers{})
		_, err := p.Transcribe(context.Background(), pcm)
		if !errors.Is(err, ErrProviderUnavailable) {
			t.Fatalf("%s: expected ErrProviderUnavailable, got %v", mode, err)
		}
	}
}

func TestCloud(t *testing.T) {
	cloud := &fakeRecognizer{name: "google", result: speech.Result{Text: "hello"}}
	p, _ := New(ModeCloud, 16000, Providers{Cloud: provider("ru-RU", cloud)})

	res, err := p.Transcribe(context.Background(), pcm)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Primary == nil || res.Primary.Result.Text != "hello" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestCloudServiceError(t *testing.T) {
	cloud := &fakeRecognizer{name: "google", err: speech.ErrTranscriptionService}
	p, _ := New(ModeCloud, 16000, Providers{Cloud: provider("ru-RU", cloud)})

	_, err := p.Transcribe(context.Background(), pcm)
	if !errors.Is(err, speech.ErrTranscriptionService) {
		t.Fatalf("expected ErrTranscriptionService, got %v", err)
	}
}

func TestDualRunsConcurrently(t *testing.T) {
	ru := &fakeRecognizer{name: "ru", result: speech.Result{Text: "привет"}, delay: 100 * time.Millisecond}
	en := &fakeRecognizer{name: "en", result: speech.Result{Text: "hello"}, delay: 100 * time.Millisecond}
	p, _ := New(ModeDualOffline, 16000, Providers{Primary: provider("ru", ru), Secondary: provider("en", en)})

	start := time.Now()
	res, err := p.Transcribe(context.Background(), pcm)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 180*time.Millisecond {
		t.Fatalf("providers did not run concurrently: %v", elapsed)
	}
	if res.Primary.Result.Text != "привет" || res.Secondary.Result.Text != "hello" {
		t.Fatalf("unexpected results %+v %+v", res.Primary, res.Secondary)
	}
}

func TestDualWithOneProviderLoaded(t *testing.T) {
	ru := &fakeRecognizer{name: "ru", result: speech.Result{Text: "тест"}}
	p, _ := New(ModeDualOffline, 16000, Providers{Primary: provider("ru", ru)})

	res, err := p.Transcribe(context.Background(), pcm)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Primary == nil || res.Secondary != nil {
		t.Fatalf("unexpected results %+v", res)
	}
}

func TestDualOneFails(t *testing.T) {
	ru := &fakeRecognizer{name: "ru", err: errors.New("decoder crashed")}
	en := &fakeRecognizer{name: "en", result: speech.Result{Text: "hello"}}
	p, _ := New(ModeDualOffline, 16000, Providers{Primary: provider("ru", ru), Secondary: provider("en", en)})

	res, err := p.Transcribe(context.Background(), pcm)
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if res.Primary != nil {
		t.Fatal("failed provider must be treated as absent")
	}
	if res.Secondary == nil || res.Secondary.Result.Text != "hello" {
		t.Fatalf("unexpected secondary %+v", res.Secondary)
	}
}

func TestDualBothFail(t *testing.T) {
	errRU := errors.New("ru failed")
	errEN := errors.New("en failed")
	ru := &fakeRecognizer{name: "ru", err: errRU}
	en := &fakeRecognizer{name: "en", err: errEN}
	p, _ := New(ModeDualOffline, 16000, Providers{Primary: provider("ru", ru), Secondary: provider("en", en)})

	_, err := p.Transcribe(context.Background(), pcm)
	if !errors.Is(err, errRU) || !errors.Is(err, errEN) {
		t.Fatalf("expected both errors, got %v", err)
	}
}

type closeCounter struct {
	fakeRecognizer
	mu     sync.Mutex
	closed int
}

func (c *closeCounter) Close() {
	c.mu.Lock()
	c.closed++
	c.mu.Unlock()
}

func TestProvidersClose(t *testing.T) {
	a, b := &closeCounter{}, &closeCounter{}
	Providers{
		Primary: &Provider{Recognizer: a},
		Cloud:   &Provider{Recognizer: b},
	}.Close()

	if a.closed != 1 || b.closed != 1 {
		t.Fatalf("expected providers to be closed once, got %d %d", a.closed, b.closed)
	}
}
