// Package tray предоставляет системный трей с меню.
package tray

import (
	"errors"

	"github.com/getlantern/systray"

	"golos/internal/dictation"
	"golos/internal/i18n"
)

// State представляет состояние приложения для отображения в трее.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

// Callbacks содержит обработчики событий меню.
type Callbacks struct {
	OnNotificationsToggle func() bool
	OnHotkeyClick         func()
	OnQuit                func()
}

// Tray управляет иконкой в системном трее.
type Tray struct {
	callbacks     Callbacks
	notifications bool
	notifyOn      *systray.MenuItem
	status        *systray.MenuItem
	hotkeyBtn     *systray.MenuItem
	quitBtn       *systray.MenuItem
}

// New создаёт новый Tray.
func New(callbacks Callbacks, notifications bool) *Tray {
	return &Tray{
		callbacks:     callbacks,
		notifications: notifications,
	}
}

// Run запускает системный трей. Блокирует до Quit.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, nil)
}

func (t *Tray) onReady() {
	systray.SetIcon(icons()[StateIdle])
	systray.SetTitle(i18n.T("app_name"))
	systray.SetTooltip(i18n.T("app_tooltip"))

	t.status = systray.AddMenuItem(i18n.T("tray_ready"), "")
	t.status.Disable()

	systray.AddSeparator()

	t.notifyOn = systray.AddMenuItemCheckbox(i18n.T("tray_notifications"), i18n.T("tray_notifications_hint"), t.notifications)
	t.hotkeyBtn = systray.AddMenuItem(i18n.T("tray_hotkey"), i18n.T("tray_hotkey_hint"))

	systray.AddSeparator()

	t.quitBtn = systray.AddMenuItem(i18n.T("tray_quit"), i18n.T("tray_quit_hint"))

	go t.handleMenuEvents()
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		case <-t.notifyOn.ClickedCh:
			if t.callbacks.OnNotificationsToggle == nil {
				continue
			}
			if t.callbacks.OnNotificationsToggle() {
				t.notifyOn.Check()
			} else {
				t.notifyOn.Uncheck()
			}

		case <-t.hotkeyBtn.ClickedCh:
			if t.callbacks.OnHotkeyClick != nil {
				go t.callbacks.OnHotkeyClick()
			}

		case <-t.quitBtn.ClickedCh:
			if t.callbacks.OnQuit != nil {
				t.callbacks.OnQuit()
			}
			systray.Quit()
			return
		}
	}
}

// SetState обновляет иконку и строку статуса.
func (t *Tray) SetState(state State) {
	var key string
	switch state {
	case StateRecording:
		key = "tray_recording"
	case StateProcessing:
		key = "tray_processing"
	default:
		key = "tray_ready"
	}

	systray.SetIcon(icons()[state])
	systray.SetTooltip(i18n.T("app_name") + " - " + i18n.T(key))
	if t.status != nil {
		t.status.SetTitle(i18n.T(key))
	}
}

// Notify отображает событие диктовки в трее.
func (t *Tray) Notify(e dictation.Event) {
	switch e.Kind {
	case dictation.EventStarted:
		t.SetState(StateRecording)
	case dictation.EventStopped:
		t.SetState(StateProcessing)
	case dictation.EventFailed:
		// Отказ начать запись не меняет состояние идущей обработки.
		if errors.Is(e.Err, dictation.ErrBusy) {
			return
		}
		t.SetState(StateIdle)
	default:
		t.SetState(StateIdle)
	}
}

// Quit закрывает системный трей.
func (t *Tray) Quit() {
	systray.Quit()
}
