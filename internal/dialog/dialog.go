// Package dialog предоставляет системные диалоги.
package dialog

import (
	"errors"
	"slices"
	"strings"

	"github.com/ncruces/zenity"

	"golos/internal/config"
	"golos/internal/i18n"
)

var modifierLabels = map[config.Modifier]string{
	config.ModCtrl:  "Ctrl",
	config.ModShift: "Shift",
	config.ModAlt:   "Alt",
	config.ModSuper: "Super (Win/Cmd)",
}

// KeyLabel возвращает подпись клавиши для списка выбора.
func KeyLabel(k config.Key) string {
	switch k {
	case config.KeySpace:
		return "Space"
	case config.KeyReturn:
		return "Return"
	case config.KeyTab:
		return "Tab"
	default:
		return strings.ToUpper(string(k))
	}
}

// SelectHotkey открывает два диалога: модификаторы и клавиша.
// При отмене возвращает текущую конфигурацию и ошибку zenity.ErrCanceled.
func SelectHotkey(current config.HotkeyConfig) (config.HotkeyConfig, error) {
	modifiers := config.AvailableModifiers()
	modOptions := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		modOptions = append(modOptions, modifierLabels[m])
	}

	currentMods := make([]string, 0, len(current.Modifiers))
	for _, m := range current.Modifiers {
		currentMods = append(currentMods, modifierLabels[m])
	}

	selectedMods, err := zenity.ListMultiple(
		i18n.T("hotkey_dialog_mods"),
		modOptions,
		zenity.Title(i18n.T("hotkey_dialog_mods_t")),
		zenity.DefaultItems(currentMods...),
	)
	if err != nil {
		return current, err
	}
	if len(selectedMods) == 0 {
		return current, errors.New(i18n.T("hotkey_dialog_no_mods"))
	}

	newMods := make([]config.Modifier, 0, len(selectedMods))
	for _, m := range modifiers {
		if slices.Contains(selectedMods, modifierLabels[m]) {
			newMods = append(newMods, m)
		}
	}

	keys := config.AvailableKeys()
	keyOptions := make([]string, 0, len(keys))
	for _, k := range keys {
		keyOptions = append(keyOptions, KeyLabel(k))
	}

	selectedKey, err := zenity.List(
		i18n.T("hotkey_dialog_key"),
		keyOptions,
		zenity.Title(i18n.T("hotkey_dialog_key_t")),
		zenity.DefaultItems(KeyLabel(current.Key)),
	)
	if err != nil {
		return current, err
	}

	i := slices.Index(keyOptions, selectedKey)
	if i < 0 {
		return current, zenity.ErrCanceled
	}

	return config.HotkeyConfig{
		Modifiers: newMods,
		Key:       keys[i],
	}, nil
}

// ShowError показывает сообщение об ошибке.
func ShowError(title, message string) {
	_ = zenity.Error(message, zenity.Title(title), zenity.ErrorIcon)
}
