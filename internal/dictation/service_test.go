package dictation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golos/internal/inject"
	"golos/internal/pipeline"
	"golos/internal/reconcile"
	"golos/internal/session"
	"golos/internal/speech"
)

type fakeRecorder struct {
	mu        sync.Mutex
	recording bool
	pcm       []byte
	starts    int
}

func (r *fakeRecorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return "", session.ErrAlreadyRecording
	}
	r.recording = true
	r.starts++
	return "s1", nil
}

func (r *fakeRecorder) Stop() (*session.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return nil, nil
	}
	r.recording = false
	return &session.Recording{ID: "s1", PCM: r.pcm, Focus: "w1"}, nil
}

func (r *fakeRecorder) State() session.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return session.StateRecording
	}
	return session.StateIdle
}

type fakeRecognizer struct {
	result speech.Result
	block  chan struct{}
}

func (f *fakeRecognizer) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (speech.Result, error) {
	if f.block != nil {
		<-f.block
	}
	return f.result, nil
}

func (f *fakeRecognizer) Close()       {}
func (f *fakeRecognizer) Name() string { return "fake" }

type fakeSink struct {
	mu      sync.Mutex
	texts   []string
	targets []inject.Window
}

func (s *fakeSink) Inject(text string, target inject.Window) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	s.targets = append(s.targets, target)
	return nil
}

func (s *fakeSink) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texts)
}

type harness struct {
	svc      *Service
	recorder *fakeRecorder
	sink     *fakeSink
	events   chan Event
	cancel   context.CancelFunc
	done     chan error
}

func newHarness(t *testing.T, pcm []byte, rec *fakeRecognizer) *harness {
	t.Helper()
	return newHarnessFor(t, pcm, pipeline.ModeSingleOffline, pipeline.Providers{
		Primary: &pipeline.Provider{Label: "ru", Recognizer: rec},
	})
}

func newHarnessFor(t *testing.T, pcm []byte, mode pipeline.Mode, providers pipeline.Providers) *harness {
	t.Helper()

	p, err := pipeline.New(mode, 16000, providers)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	h := &harness{
		recorder: &fakeRecorder{pcm: pcm},
		sink:     &fakeSink{},
		events:   make(chan Event, 16),
		done:     make(chan error, 1),
	}
	h.svc = New(h.recorder, p, reconcile.New(nil, time.Second), h.sink, NotifierFunc(func(e Event) {
		h.events <- e
	}))

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- h.svc.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) expect(t *testing.T, kind EventKind) Event {
	t.Helper()
	select {
	case e := <-h.events:
		if e.Kind != kind {
			t.Fatalf("expected %s event, got %s (err=%v)", kind, e.Kind, e.Err)
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s event", kind)
		return Event{}
	}
}

func TestDictationInjectsText(t *testing.T) {
	h := newHarness(t, []byte{1, 0}, &fakeRecognizer{result: speech.Result{Text: "тест"}})

	h.svc.Toggle()
	h.expect(t, EventStarted)
	h.svc.Toggle()
	h.expect(t, EventStopped)
	e := h.expect(t, EventDone)

	if e.Text != "тест" || e.Method != reconcile.MethodPrimary {
		t.Fatalf("unexpected done event %+v", e)
	}
	if h.sink.calls() != 1 || h.sink.targets[0] != "w1" {
		t.Fatalf("unexpected sink calls %v %v", h.sink.texts, h.sink.targets)
	}
}

func TestDictationEmptyAudio(t *testing.T) {
	h := newHarness(t, nil, &fakeRecognizer{result: speech.Result{Text: "x"}})

	h.svc.Toggle()
	h.expect(t, EventStarted)
	h.svc.Toggle()
	h.expect(t, EventStopped)
	e := h.expect(t, EventFailed)

	if !errors.Is(e.Err, pipeline.ErrNoAudioCaptured) {
		t.Fatalf("expected ErrNoAudioCaptured, got %v", e.Err)
	}
	if h.sink.calls() != 0 {
		t.Fatal("sink must not be invoked")
	}
}

func TestDictationNoSpeech(t *testing.T) {
	h := newHarness(t, []byte{1, 0}, &fakeRecognizer{})

	h.svc.Toggle()
	h.expect(t, EventStarted)
	h.svc.Toggle()
	h.expect(t, EventStopped)
	e := h.expect(t, EventFailed)

	if !errors.Is(e.Err, reconcile.ErrNoSpeechRecognized) {
		t.Fatalf("expected ErrNoSpeechRecognized, got %v", e.Err)
	}
}

func TestDictationRejectsStartWhileBusy(t *testing.T) {
	block := make(chan struct{})
	h := newHarness(t, []byte{1, 0}, &fakeRecognizer{result: speech.Result{Text: "тест"}, block: block})

	h.svc.Toggle()
	h.expect(t, EventStarted)
	h.svc.Toggle()
	h.expect(t, EventStopped)

	h.svc.Toggle()
	e := h.expect(t, EventFailed)
	if !errors.Is(e.Err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", e.Err)
	}
	if h.recorder.starts != 1 {
		t.Fatalf("start must be rejected while busy, starts=%d", h.recorder.starts)
	}

	close(block)
	h.expect(t, EventDone)

	h.svc.Toggle()
	h.expect(t, EventStarted)
}

func TestServeDiscardsRecordingOnShutdown(t *testing.T) {
	h := newHarness(t, []byte{1, 0}, &fakeRecognizer{result: speech.Result{Text: "тест"}})

	h.svc.Toggle()
	h.expect(t, EventStarted)

	h.cancel()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	h.done <- nil

	if h.recorder.State() != session.StateIdle {
		t.Fatal("recording must be stopped on shutdown")
	}
	if h.sink.calls() != 0 {
		t.Fatal("discarded recording must not be injected")
	}
}

func TestNotifiersFanOut(t *testing.T) {
	var got []EventKind
	n := Notifiers{
		NotifierFunc(func(e Event) { got = append(got, e.Kind) }),
		NotifierFunc(func(e Event) { got = append(got, e.Kind) }),
	}
	n.Notify(Event{Kind: EventDone})
	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
}

func TestDictationWithoutProvidersFailsAtStop(t *testing.T) {
	for _, mode := range []pipeline.Mode{pipeline.ModeSingleOffline, pipeline.ModeDualOffline, pipeline.ModeCloud} {
		t.Run(string(mode), func(t *testing.T) {
			h := newHarnessFor(t, []byte{1, 0, 2, 0}, mode, pipeline.Providers{})

			h.svc.Toggle()
			h.expect(t, EventStarted)
			if h.recorder.State() != session.StateRecording {
				t.Fatal("recording must start without loaded providers")
			}

			h.svc.Toggle()
			h.expect(t, EventStopped)
			e := h.expect(t, EventFailed)
			if !errors.Is(e.Err, pipeline.ErrProviderUnavailable) {
				t.Fatalf("expected ErrProviderUnavailable, got %v", e.Err)
			}
			if h.sink.calls() != 0 {
				t.Fatalf("sink must not be called, got %d calls", h.sink.calls())
			}
			if h.recorder.State() != session.StateIdle {
				t.Fatal("recorder must be idle after failed attempt")
			}
		})
	}
}
