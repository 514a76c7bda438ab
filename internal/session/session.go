// Package session управляет одной сессией записи с микрофона.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"golos/internal/audio"
	"golos/internal/inject"
)

// ErrAlreadyRecording - запись уже идёт.
var ErrAlreadyRecording = errors.New("запись уже идёт")

// State - состояние контроллера.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// Recording - завершённая запись.
type Recording struct {
	ID        string
	PCM       []byte
	Chunks    int
	Focus     inject.Window
	StartedAt time.Time
	StoppedAt time.Time
}

// Duration возвращает длительность записанного аудио.
func (r *Recording) Duration(sampleRate int) time.Duration {
	return time.Duration(audio.Duration(r.PCM, sampleRate) * float64(time.Second))
}

// session - активная запись. Буфер пишет только горутина захвата.
type session struct {
	id        string
	focus     inject.Window
	startedAt time.Time
	stream    audio.Stream
	buf       audio.Buffer
	stop      chan struct{}
	done      chan struct{}
	readErr   error
}

// Controller - автомат Idle/Recording. Не потокобезопасен: им владеет
// один потребитель событий.
type Controller struct {
	source     audio.Source
	focus      inject.FocusTracker
	sampleRate int
	current    *session
}

// NewController создаёт контроллер. focus может быть nil.
func NewController(source audio.Source, focus inject.FocusTracker, sampleRate int) *Controller {
	return &Controller{
		source:     source,
		focus:      focus,
		sampleRate: sampleRate,
	}
}

// State возвращает текущее состояние.
func (c *Controller) State() State {
	if c.current != nil {
		return StateRecording
	}
	return StateIdle
}

// Start начинает новую запись со свежим буфером.
func (c *Controller) Start() (string, error) {
	if c.current != nil {
		return "", ErrAlreadyRecording
	}

	s := &session{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	if c.focus != nil {
		w, err := c.focus.Current()
		if err != nil {
			log.Debug().Err(err).Msg("Активное окно не определено")
		}
		s.focus = w
	}

	stream, err := c.source.Open(c.sampleRate)
	if err != nil {
		return "", fmt.Errorf("открытие микрофона: %w", err)
	}
	s.stream = stream

	go s.capture()

	c.current = s
	log.Info().Str("session", s.id).Str("window", string(s.focus)).Msg("Запись начата")
	return s.id, nil
}

// Stop завершает запись. Для Idle возвращает nil, nil.
// Возвращается только после закрытия потока, поэтому буфер уже не изменится.
func (c *Controller) Stop() (*Recording, error) {
	s := c.current
	if s == nil {
		return nil, nil
	}
	c.current = nil

	close(s.stop)
	<-s.done

	rec := &Recording{
		ID:        s.id,
		PCM:       s.buf.Bytes(),
		Chunks:    s.buf.Chunks(),
		Focus:     s.focus,
		StartedAt: s.startedAt,
		StoppedAt: time.Now(),
	}

	log.Info().
		Str("session", s.id).
		Int("chunks", rec.Chunks).
		Dur("audio", rec.Duration(c.sampleRate)).
		Msg("Запись остановлена")

	if s.readErr != nil {
		return rec, fmt.Errorf("чтение микрофона: %w", s.readErr)
	}
	return rec, nil
}

// Toggle переключает состояние. Возвращает запись, если она была остановлена.
func (c *Controller) Toggle() (*Recording, error) {
	if c.current != nil {
		return c.Stop()
	}
	_, err := c.Start()
	return nil, err
}

// capture читает чанки до сигнала остановки, затем закрывает поток.
func (s *session) capture() {
	defer close(s.done)
	defer func() {
		if err := s.stream.Close(); err != nil {
			log.Warn().Err(err).Str("session", s.id).Msg("Ошибка закрытия потока")
		}
	}()

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		chunk, err := s.stream.Read()
		if err != nil {
			s.readErr = err
			log.Error().Err(err).Str("session", s.id).Msg("Ошибка чтения с микрофона")
			<-s.stop
			return
		}
		s.buf.Append(chunk)
	}
}
