package dictation

import "golos/internal/reconcile"

// EventKind - тип события диктовки.
type EventKind int

const (
	EventStarted EventKind = iota
	EventStopped
	EventDone
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventStopped:
		return "stopped"
	case EventDone:
		return "done"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event - изменение состояния диктовки для звуков, уведомлений и трея.
type Event struct {
	Kind    EventKind
	Session string
	Text    string
	Method  reconcile.Method
	Err     error
}

// Notifier получает события. Notify не должен блокироваться.
type Notifier interface {
	Notify(Event)
}

// Notifiers рассылает событие всем получателям.
type Notifiers []Notifier

// Notify реализует Notifier.
func (ns Notifiers) Notify(e Event) {
	for _, n := range ns {
		n.Notify(e)
	}
}

// NotifierFunc - адаптер функции к Notifier.
type NotifierFunc func(Event)

// Notify реализует Notifier.
func (f NotifierFunc) Notify(e Event) {
	f(e)
}
