// Package inject вставляет распознанный текст в окно, которое было активно
// в момент начала записи.
package inject

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	MethodPaste = "paste"
	MethodType  = "type"

	// settleDelay - пауза, чтобы окно и буфер обмена успели обновиться.
	settleDelay = 100 * time.Millisecond
)

// ErrFocusUnsupported - платформа не позволяет узнать активное окно.
var ErrFocusUnsupported = errors.New("отслеживание фокуса не поддерживается")

// Window - непрозрачный идентификатор окна. Пустое значение - окно неизвестно.
type Window string

// Sink доставляет текст в целевое окно.
type Sink interface {
	Inject(text string, target Window) error
}

// FocusTracker запоминает и восстанавливает активное окно.
type FocusTracker interface {
	Current() (Window, error)
	Restore(w Window) error
}

// Clipboard - системный буфер обмена.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// Paster отправляет сочетание клавиш вставки.
type Paster interface {
	Paste() error
}

// Typer вводит текст в активное поле ввода.
type Typer interface {
	// Type вводит текст в текущее активное поле.
	Type(text string) error
}

// Options настройки вставки.
type Options struct {
	Method        string
	TrailingSpace bool
	// Focus может быть nil: тогда окно не восстанавливается.
	Focus FocusTracker
}

// New создаёт Sink с системными реализациями буфера обмена и клавиатуры.
func New(opts Options) (Sink, error) {
	switch opts.Method {
	case MethodType:
		typer, err := newTyper()
		if err != nil {
			return nil, err
		}
		return NewTypeSink(typer, opts.Focus, opts.TrailingSpace), nil
	case MethodPaste, "":
		paster, err := NewKeyPaster()
		if err != nil {
			return nil, err
		}
		return NewPasteSink(SystemClipboard{}, paster, opts.Focus, opts.TrailingSpace), nil
	default:
		return nil, fmt.Errorf("неизвестный способ вставки: %s", opts.Method)
	}
}

// PasteSink вставляет текст через буфер обмена и сочетание клавиш вставки.
// Прежнее содержимое буфера восстанавливается.
type PasteSink struct {
	clipboard     Clipboard
	paster        Paster
	focus         FocusTracker
	trailingSpace bool
	delay         time.Duration
}

// NewPasteSink создаёт PasteSink.
func NewPasteSink(clipboard Clipboard, paster Paster, focus FocusTracker, trailingSpace bool) *PasteSink {
	return &PasteSink{
		clipboard:     clipboard,
		paster:        paster,
		focus:         focus,
		trailingSpace: trailingSpace,
		delay:         settleDelay,
	}
}

// Inject копирует текст, возвращает фокус целевому окну, вставляет и
// восстанавливает буфер обмена.
func (s *PasteSink) Inject(text string, target Window) error {
	if text == "" {
		return nil
	}
	if s.trailingSpace {
		text += " "
	}

	previous, readErr := s.clipboard.Read()
	if readErr != nil {
		log.Debug().Err(readErr).Msg("Не удалось прочитать буфер обмена")
	}

	if err := s.clipboard.Write(text); err != nil {
		return fmt.Errorf("запись в буфер обмена: %w", err)
	}

	restoreFocus(s.focus, target)
	time.Sleep(s.delay)

	pasteErr := s.paster.Paste()

	// Вставка асинхронна: даём приложению забрать текст до восстановления.
	time.Sleep(s.delay)
	if readErr == nil {
		if err := s.clipboard.Write(previous); err != nil {
			log.Warn().Err(err).Msg("Не удалось восстановить буфер обмена")
		}
	}

	if pasteErr != nil {
		return fmt.Errorf("вставка: %w", pasteErr)
	}
	return nil
}

// TypeSink вводит текст посимвольно, без буфера обмена.
type TypeSink struct {
	typer         Typer
	focus         FocusTracker
	trailingSpace bool
	delay         time.Duration
}

// NewTypeSink создаёт TypeSink.
func NewTypeSink(typer Typer, focus FocusTracker, trailingSpace bool) *TypeSink {
	return &TypeSink{
		typer:         typer,
		focus:         focus,
		trailingSpace: trailingSpace,
		delay:         settleDelay,
	}
}

// Inject возвращает фокус целевому окну и вводит текст.
func (s *TypeSink) Inject(text string, target Window) error {
	if text == "" {
		return nil
	}
	if s.trailingSpace {
		text += " "
	}

	if restoreFocus(s.focus, target) {
		time.Sleep(s.delay)
	}

	if err := s.typer.Type(text); err != nil {
		return fmt.Errorf("ввод текста: %w", err)
	}
	return nil
}

// restoreFocus активирует окно, если оно известно. Ошибка не фатальна:
// текст попадёт в текущее активное окно.
func restoreFocus(focus FocusTracker, target Window) bool {
	if focus == nil || target == "" {
		return false
	}
	if err := focus.Restore(target); err != nil {
		log.Warn().Err(err).Str("window", string(target)).Msg("Не удалось вернуть фокус окну")
		return false
	}
	return true
}
