// Package notify предоставляет звуковые сигналы и системные уведомления.
package notify

import (
	"errors"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog/log"

	"golos/internal/dictation"
	"golos/internal/i18n"
	"golos/internal/pipeline"
	"golos/internal/reconcile"
)

// tone - один звуковой сигнал.
type tone struct {
	freq float64
	ms   int
}

var (
	startCue = []tone{{1200, 100}, {1400, 100}}
	stopCue  = []tone{{1000, 100}, {800, 150}}
)

const queueSize = 8

// Notifier проигрывает сигналы и показывает уведомления по очереди
// в отдельной горутине.
type Notifier struct {
	cues          bool
	notifications atomic.Bool

	beep  func(freq float64, ms int) error
	alert func(title, message string) error

	mu     sync.RWMutex
	closed bool
	queue  chan func()
	done   chan struct{}
}

// New создаёт Notifier и запускает его горутину.
func New(cues, notifications bool) *Notifier {
	n := &Notifier{
		cues:  cues,
		beep:  beeep.Beep,
		alert: func(title, message string) error { return beeep.Notify(title, message, "") },
		queue: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
	n.notifications.Store(notifications)
	go n.run()
	return n
}

func (n *Notifier) run() {
	defer close(n.done)
	for job := range n.queue {
		job()
	}
}

// Close дожидается проигрывания очереди.
func (n *Notifier) Close() {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()
	<-n.done
}

// ToggleNotifications переключает уведомления и возвращает новое состояние.
func (n *Notifier) ToggleNotifications() bool {
	for {
		old := n.notifications.Load()
		if n.notifications.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Ready показывает уведомление о готовности.
func (n *Notifier) Ready() {
	n.show(i18n.T("tray_ready"), i18n.T("notify_ready"))
}

// Notify реализует dictation.Notifier.
func (n *Notifier) Notify(e dictation.Event) {
	switch e.Kind {
	case dictation.EventStarted:
		n.play(startCue)
	case dictation.EventStopped:
		n.play(stopCue)
	}

	if title, body, ok := message(e); ok {
		n.show(title, body)
	}
}

func (n *Notifier) play(cue []tone) {
	if !n.cues {
		return
	}
	n.enqueue(func() {
		for _, t := range cue {
			if err := n.beep(t.freq, t.ms); err != nil {
				log.Debug().Err(err).Msg("Звуковой сигнал недоступен")
				return
			}
		}
	})
}

func (n *Notifier) show(title, body string) {
	if !n.notifications.Load() {
		return
	}
	n.enqueue(func() {
		// Ошибки уведомлений не критичны
		if err := n.alert(i18n.T("app_name")+": "+title, body); err != nil {
			log.Debug().Err(err).Msg("Уведомление не показано")
		}
	})
}

// enqueue не блокируется: при переполнении очереди событие теряется.
func (n *Notifier) enqueue(job func()) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return
	}

	select {
	case n.queue <- job:
	default:
		log.Debug().Msg("Очередь уведомлений переполнена")
	}
}

// message возвращает текст уведомления для события.
func message(e dictation.Event) (title, body string, ok bool) {
	switch e.Kind {
	case dictation.EventStarted:
		return i18n.T("notify_recording"), i18n.T("notify_recording_hint"), true
	case dictation.EventDone:
		return i18n.T("notify_done"), truncate(e.Text, 100), true
	case dictation.EventFailed:
		switch {
		case errors.Is(e.Err, pipeline.ErrNoAudioCaptured):
			return i18n.T("notify_no_audio"), i18n.T("notify_empty_hint"), true
		case errors.Is(e.Err, reconcile.ErrNoSpeechRecognized):
			return i18n.T("notify_empty"), i18n.T("notify_empty_hint"), true
		case errors.Is(e.Err, dictation.ErrBusy):
			return i18n.T("notify_error"), i18n.T("notify_busy"), true
		case errors.Is(e.Err, pipeline.ErrProviderUnavailable):
			return i18n.T("error_recognition"), i18n.T("error_no_provider"), true
		case e.Err != nil:
			return i18n.T("notify_error"), truncate(e.Err.Error(), 100), true
		}
	}
	return "", "", false
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}
