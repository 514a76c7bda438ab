//go:build linux

package hotkey

import "golang.design/x/hotkey"

// На X11 Alt и Super - это Mod1 и Mod4.
const (
	modAlt   = hotkey.Mod1
	modSuper = hotkey.Mod4
)
