// Package dictation связывает запись, распознавание, сведение и вставку.
// Единственный потребитель событий переключения владеет сессией записи.
package dictation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"golos/internal/inject"
	"golos/internal/llm"
	"golos/internal/pipeline"
	"golos/internal/reconcile"
	"golos/internal/session"
)

// ErrBusy - предыдущая запись ещё распознаётся.
var ErrBusy = errors.New("предыдущая запись ещё обрабатывается")

// Recorder - сессия записи.
type Recorder interface {
	Start() (string, error)
	Stop() (*session.Recording, error)
	State() session.State
}

// Transcriber распознаёт запись.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte) (pipeline.Results, error)
}

// Reconciler сводит результаты провайдеров.
type Reconciler interface {
	Reconcile(ctx context.Context, primary, secondary *llm.Candidate) (reconcile.Outcome, error)
}

// Service обрабатывает события переключения последовательно.
type Service struct {
	recorder    Recorder
	transcriber Transcriber
	reconciler  Reconciler
	sink        inject.Sink
	notifier    Notifier

	toggles chan struct{}
}

// New создаёт Service. notifier может быть nil.
func New(recorder Recorder, transcriber Transcriber, reconciler Reconciler, sink inject.Sink, notifier Notifier) *Service {
	if notifier == nil {
		notifier = Notifiers{}
	}
	return &Service{
		recorder:    recorder,
		transcriber: transcriber,
		reconciler:  reconciler,
		sink:        sink,
		notifier:    notifier,
		toggles:     make(chan struct{}, 1),
	}
}

// Toggle ставит событие переключения в очередь. Не блокируется:
// если событие уже ждёт обработки, повторное отбрасывается.
func (s *Service) Toggle() {
	select {
	case s.toggles <- struct{}{}:
	default:
		log.Debug().Msg("Переключение уже в очереди, пропуск")
	}
}

// Serve обрабатывает события до отмены ctx. Незавершённая запись
// отбрасывается, распознавание в процессе доводится до конца.
func (s *Service) Serve(ctx context.Context) error {
	finished := make(chan struct{})
	busy := false

	for {
		select {
		case <-ctx.Done():
			if s.recorder.State() == session.StateRecording {
				if _, err := s.recorder.Stop(); err != nil {
					log.Warn().Err(err).Msg("Ошибка остановки записи при выходе")
				}
				log.Info().Msg("Незавершённая запись отброшена")
			}
			if busy {
				log.Info().Msg("Ожидание завершения распознавания")
				<-finished
			}
			return nil

		case <-s.toggles:
			if s.recorder.State() == session.StateRecording {
				rec, ok := s.stop()
				if !ok {
					continue
				}
				busy = true
				go func() {
					s.process(context.WithoutCancel(ctx), rec)
					finished <- struct{}{}
				}()
				continue
			}

			if busy {
				log.Warn().Msg("Запись не начата: предыдущая ещё обрабатывается")
				s.notifier.Notify(Event{Kind: EventFailed, Err: ErrBusy})
				continue
			}
			s.start()

		case <-finished:
			busy = false
		}
	}
}

func (s *Service) start() {
	id, err := s.recorder.Start()
	if err != nil {
		log.Error().Err(err).Msg("Не удалось начать запись")
		s.notifier.Notify(Event{Kind: EventFailed, Err: err})
		return
	}
	s.notifier.Notify(Event{Kind: EventStarted, Session: id})
}

func (s *Service) stop() (*session.Recording, bool) {
	rec, err := s.recorder.Stop()
	if rec == nil {
		if err != nil {
			s.notifier.Notify(Event{Kind: EventFailed, Err: err})
		}
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("session", rec.ID).Msg("Запись завершилась с ошибкой, обрабатывается записанное")
	}

	s.notifier.Notify(Event{Kind: EventStopped, Session: rec.ID})
	return rec, true
}

// process - распознавание, сведение и вставка одной записи.
// Все исходы терминальны для записи и не влияют на работу приложения.
func (s *Service) process(ctx context.Context, rec *session.Recording) {
	logger := log.With().Str("session", rec.ID).Logger()
	start := time.Now()

	fail := func(err error) {
		logger.Error().Err(err).Msg("Диктовка не удалась")
		s.notifier.Notify(Event{Kind: EventFailed, Session: rec.ID, Err: err})
	}

	results, err := s.transcriber.Transcribe(ctx, rec.PCM)
	if err != nil {
		fail(err)
		return
	}

	outcome, err := s.reconciler.Reconcile(ctx, results.Primary, results.Secondary)
	if err != nil {
		fail(err)
		return
	}

	if err := s.sink.Inject(outcome.Text, rec.Focus); err != nil {
		fail(err)
		return
	}

	logger.Info().
		Str("method", string(outcome.Method)).
		Str("text", outcome.Text).
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Msg("Текст вставлен")

	s.notifier.Notify(Event{
		Kind:    EventDone,
		Session: rec.ID,
		Text:    outcome.Text,
		Method:  outcome.Method,
	})
}
