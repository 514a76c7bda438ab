//go:build linux

package inject

import (
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/micmonay/keybd_event"
)

type linuxFocus struct{}

// NewFocusTracker возвращает трекер активного окна через xdotool.
// На Wayland окно узнать нельзя: Current вернёт ErrFocusUnsupported.
func NewFocusTracker() FocusTracker {
	return linuxFocus{}
}

// Current возвращает id активного окна X11.
func (linuxFocus) Current() (Window, error) {
	if isWayland() {
		return "", ErrFocusUnsupported
	}
	out, err := exec.Command("xdotool", "getactivewindow").Output()
	if err != nil {
		return "", fmt.Errorf("xdotool getactivewindow: %w", err)
	}
	return Window(strings.TrimSpace(string(out))), nil
}

// Restore активирует окно X11.
func (linuxFocus) Restore(w Window) error {
	if isWayland() {
		return ErrFocusUnsupported
	}
	return exec.Command("xdotool", "windowactivate", "--sync", string(w)).Run()
}

func setPasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}

// waitForDevice ждёт, пока система зарегистрирует виртуальное устройство uinput.
func waitForDevice() {
	time.Sleep(2 * time.Second)
}
