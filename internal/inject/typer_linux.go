//go:build linux

package inject

import (
	"fmt"
	"os"
	"os/exec"
)

type linuxTyper struct {
	useWayland bool
}

func newTyper() (Typer, error) {
	t := &linuxTyper{
		useWayland: isWayland(),
	}

	tool := "xdotool"
	if t.useWayland {
		tool = "wtype"
	}
	if _, err := exec.LookPath(tool); err != nil {
		return nil, fmt.Errorf("для ввода текста нужен %s: %w", tool, err)
	}

	return t, nil
}

func isWayland() bool {
	return os.Getenv("WAYLAND_DISPLAY") != ""
}

// Type вводит текст через xdotool (X11) или wtype (Wayland).
func (t *linuxTyper) Type(text string) error {
	if t.useWayland {
		return exec.Command("wtype", "--", text).Run()
	}
	return exec.Command("xdotool", "type", "--clearmodifiers", "--", text).Run()
}
