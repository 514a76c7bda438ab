//go:build windows

package inject

import (
	"fmt"
	"strconv"

	"github.com/micmonay/keybd_event"
)

type windowsFocus struct{}

// NewFocusTracker возвращает трекер активного окна через user32.
func NewFocusTracker() FocusTracker {
	return windowsFocus{}
}

// Current возвращает HWND активного окна.
func (windowsFocus) Current() (Window, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return "", fmt.Errorf("GetForegroundWindow: нет активного окна")
	}
	return Window(strconv.FormatUint(uint64(hwnd), 10)), nil
}

// Restore делает окно активным.
func (windowsFocus) Restore(w Window) error {
	hwnd, err := strconv.ParseUint(string(w), 10, 64)
	if err != nil {
		return fmt.Errorf("некорректный HWND %q: %w", w, err)
	}
	ok, _, callErr := procSetForegroundWindow.Call(uintptr(hwnd))
	if ok == 0 {
		return fmt.Errorf("SetForegroundWindow: %v", callErr)
	}
	return nil
}

func setPasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasCTRL(true)
}

func waitForDevice() {}
