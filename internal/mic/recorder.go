// Package mic предоставляет захват аудио с микрофона через PortAudio.
package mic

import (
	"errors"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"

	"golos/internal/audio"
)

// Source открывает потоки с микрофона по умолчанию.
type Source struct {
	mu     sync.Mutex
	closed bool
}

// New инициализирует PortAudio.
func New() (*Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	return &Source{}, nil
}

// Open открывает mono PCM16 поток с чанками по audio.FramesPerBuffer сэмплов.
func (s *Source) Open(sampleRate int) (audio.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("portaudio уже завершён")
	}

	buf := make([]int16, audio.FramesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(
		audio.Channels,      // input channels
		0,                   // output channels
		float64(sampleRate), // sample rate
		len(buf),            // frames per buffer
		buf,                 // buffer
	)
	if err != nil {
		return nil, err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, err
	}

	return &Stream{stream: stream, buf: buf}, nil
}

// Close завершает работу PortAudio.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	portaudio.Terminate()
}

// Stream - открытый поток PortAudio.
type Stream struct {
	stream *portaudio.Stream
	buf    []int16
}

// Read блокируется до заполнения буфера (~64ms при 16kHz).
// Переполнение входного буфера не считается ошибкой: чанк сохраняется.
func (s *Stream) Read() ([]byte, error) {
	if err := s.stream.Read(); err != nil {
		if !errors.Is(err, portaudio.InputOverflowed) {
			return nil, err
		}
		log.Debug().Msg("Переполнение входного буфера микрофона")
	}
	return audio.Int16ToPCM(s.buf), nil
}

// Close останавливает и закрывает поток.
func (s *Stream) Close() error {
	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	return errors.Join(stopErr, closeErr)
}
