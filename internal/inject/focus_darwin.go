//go:build darwin

package inject

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/micmonay/keybd_event"
)

type darwinFocus struct{}

// NewFocusTracker возвращает трекер активного приложения через osascript.
func NewFocusTracker() FocusTracker {
	return darwinFocus{}
}

// Current возвращает имя активного приложения.
func (darwinFocus) Current() (Window, error) {
	out, err := exec.Command("osascript", "-e",
		`tell application "System Events" to get name of first application process whose frontmost is true`).Output()
	if err != nil {
		return "", fmt.Errorf("osascript: %w", err)
	}
	return Window(strings.TrimSpace(string(out))), nil
}

// Restore активирует приложение.
func (darwinFocus) Restore(w Window) error {
	script := fmt.Sprintf("tell application %q to activate", string(w))
	return exec.Command("osascript", "-e", script).Run()
}

func setPasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasSuper(true)
}

func waitForDevice() {}
