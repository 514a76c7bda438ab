package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"golos/internal/audio"
	"golos/internal/inject"
)

type fakeStream struct {
	mu      sync.Mutex
	next    byte
	readErr error
	closed  atomic.Bool
}

func (s *fakeStream) Read() ([]byte, error) {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	s.next++
	return []byte{s.next, 0}, nil
}

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

type fakeSource struct {
	streams []*fakeStream
	openErr error
	rate    int
	readErr error
}

func (s *fakeSource) Open(sampleRate int) (audio.Stream, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.rate = sampleRate
	st := &fakeStream{readErr: s.readErr}
	s.streams = append(s.streams, st)
	return st, nil
}

type fakeFocus struct{}

func (fakeFocus) Current() (inject.Window, error) { return "w1", nil }
func (fakeFocus) Restore(inject.Window) error     { return nil }

func TestStartStop(t *testing.T) {
	src := &fakeSource{}
	c := NewController(src, fakeFocus{}, 16000)

	id, err := c.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if id == "" || c.State() != StateRecording {
		t.Fatalf("expected recording state, id=%q state=%s", id, c.State())
	}
	if src.rate != 16000 {
		t.Fatalf("expected capture at 16000, got %d", src.rate)
	}

	time.Sleep(20 * time.Millisecond)

	rec, err := c.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if c.State() != StateIdle {
		t.Fatal("expected idle after stop")
	}
	if rec.ID != id || rec.Focus != "w1" {
		t.Fatalf("unexpected recording %+v", rec)
	}
	if !src.streams[0].closed.Load() {
		t.Fatal("stream must be closed when Stop returns")
	}
	if len(rec.PCM) == 0 || len(rec.PCM) != rec.Chunks*2 {
		t.Fatalf("unexpected pcm len=%d chunks=%d", len(rec.PCM), rec.Chunks)
	}
	for i := 0; i < rec.Chunks; i++ {
		if rec.PCM[i*2] != byte(i+1) {
			t.Fatalf("chunks out of order at %d: %v", i, rec.PCM[:8])
		}
	}
	if rec.StoppedAt.Before(rec.StartedAt) {
		t.Fatal("stop time before start time")
	}
}

func TestStartWhileRecording(t *testing.T) {
	src := &fakeSource{}
	c := NewController(src, nil, 16000)

	if _, err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := c.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
	if len(src.streams) != 1 {
		t.Fatalf("second start must not open a stream, got %d", len(src.streams))
	}

	rec, err := c.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if rec.PCM[0] != 1 {
		t.Fatal("buffer must not be reset by a rejected start")
	}
}

func TestStopWhileIdle(t *testing.T) {
	c := NewController(&fakeSource{}, nil, 16000)
	rec, err := c.Stop()
	if rec != nil || err != nil {
		t.Fatalf("expected no-op, got %v %v", rec, err)
	}
}

func TestFreshBufferPerSession(t *testing.T) {
	src := &fakeSource{}
	c := NewController(src, nil, 16000)

	c.Start()
	time.Sleep(10 * time.Millisecond)
	first, _ := c.Stop()

	c.Start()
	time.Sleep(10 * time.Millisecond)
	second, _ := c.Stop()

	if first.ID == second.ID {
		t.Fatal("sessions must have distinct ids")
	}
	if second.PCM[0] != 1 {
		t.Fatal("second session must start with an empty buffer")
	}
}

func TestToggle(t *testing.T) {
	c := NewController(&fakeSource{}, nil, 16000)

	rec, err := c.Toggle()
	if rec != nil || err != nil || c.State() != StateRecording {
		t.Fatalf("first toggle must start recording: %v %v", rec, err)
	}
	time.Sleep(5 * time.Millisecond)

	rec, err = c.Toggle()
	if err != nil || rec == nil || c.State() != StateIdle {
		t.Fatalf("second toggle must stop recording: %v %v", rec, err)
	}
}

func TestOpenFailure(t *testing.T) {
	c := NewController(&fakeSource{openErr: errors.New("no device")}, nil, 16000)
	if _, err := c.Start(); err == nil {
		t.Fatal("expected open error")
	}
	if c.State() != StateIdle {
		t.Fatal("failed start must leave controller idle")
	}
}

func TestReadFailureReportedAtStop(t *testing.T) {
	src := &fakeSource{readErr: errors.New("device unplugged")}
	c := NewController(src, nil, 16000)

	if _, err := c.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	rec, err := c.Stop()
	if err == nil {
		t.Fatal("expected read error")
	}
	if rec == nil || len(rec.PCM) != 0 {
		t.Fatalf("expected empty recording, got %+v", rec)
	}
	if !src.streams[0].closed.Load() {
		t.Fatal("stream must be closed")
	}
}

func TestRecordingDuration(t *testing.T) {
	rec := &Recording{PCM: make([]byte, 16000)}
	if d := rec.Duration(16000); d != 500*time.Millisecond {
		t.Fatalf("Duration = %v, want 500ms", d)
	}
	if d := rec.Duration(0); d != 0 {
		t.Fatalf("Duration with zero rate = %v", d)
	}
}
