// Package i18n provides internationalization support.
package i18n

import "sync"

// Language represents a UI language.
type Language string

const (
	RU Language = "ru"
	EN Language = "en"
)

var (
	mu      sync.RWMutex
	current = RU
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	RU: {
		// App
		"app_name":    "Golos",
		"app_tooltip": "Golos - голосовой ввод",

		// Tray menu
		"tray_ready":              "Готов к работе",
		"tray_recording":          "Запись...",
		"tray_processing":         "Распознавание...",
		"tray_notifications":      "Уведомления",
		"tray_notifications_hint": "Показывать уведомления",
		"tray_hotkey":             "Горячая клавиша...",
		"tray_hotkey_hint":        "Выбрать сочетание для записи",
		"tray_quit":               "Выход",
		"tray_quit_hint":          "Закрыть приложение",

		// Notifications
		"notify_recording":      "Запись...",
		"notify_recording_hint": "Говорите в микрофон",
		"notify_done":           "Готово",
		"notify_empty":          "Не удалось распознать",
		"notify_empty_hint":     "Попробуйте ещё раз",
		"notify_no_audio":       "Аудио не записано",
		"notify_busy":           "Предыдущая запись ещё обрабатывается",
		"notify_error":          "Ошибка",
		"notify_ready":          "Golos готов к работе",

		// Errors
		"error_startup":         "Ошибка запуска",
		"error_recording":       "Ошибка записи",
		"error_recognition":     "Ошибка распознавания",
		"error_no_provider":     "Модель распознавания не загружена",
		"error_input":           "Ошибка ввода",
		"error_hotkey_register": "Не удалось зарегистрировать горячую клавишу",
		"error_model_load":      "Не удалось загрузить модель",

		// Hotkey dialog
		"hotkey_dialog_mods":    "Выберите модификаторы:",
		"hotkey_dialog_mods_t":  "Горячая клавиша - модификаторы",
		"hotkey_dialog_key":     "Выберите клавишу:",
		"hotkey_dialog_key_t":   "Горячая клавиша - клавиша",
		"hotkey_dialog_no_mods": "Нужно выбрать хотя бы один модификатор",
	},

	EN: {
		// App
		"app_name":    "Golos",
		"app_tooltip": "Golos - voice input",

		// Tray menu
		"tray_ready":              "Ready",
		"tray_recording":          "Recording...",
		"tray_processing":         "Processing...",
		"tray_notifications":      "Notifications",
		"tray_notifications_hint": "Show notifications",
		"tray_hotkey":             "Hotkey...",
		"tray_hotkey_hint":        "Choose the recording shortcut",
		"tray_quit":               "Quit",
		"tray_quit_hint":          "Close application",

		// Notifications
		"notify_recording":      "Recording...",
		"notify_recording_hint": "Speak into the microphone",
		"notify_done":           "Done",
		"notify_empty":          "Could not recognize",
		"notify_empty_hint":     "Please try again",
		"notify_no_audio":       "No audio captured",
		"notify_busy":           "Previous recording is still being processed",
		"notify_error":          "Error",
		"notify_ready":          "Golos is ready",

		// Errors
		"error_startup":         "Startup error",
		"error_recording":       "Recording error",
		"error_recognition":     "Recognition error",
		"error_no_provider":     "Recognition model is not loaded",
		"error_input":           "Input error",
		"error_hotkey_register": "Could not register hotkey",
		"error_model_load":      "Could not load model",

		// Hotkey dialog
		"hotkey_dialog_mods":    "Choose modifiers:",
		"hotkey_dialog_mods_t":  "Hotkey - modifiers",
		"hotkey_dialog_key":     "Choose key:",
		"hotkey_dialog_key_t":   "Hotkey - key",
		"hotkey_dialog_no_mods": "Select at least one modifier",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to key itself
	return key
}

// SetLanguage sets the current UI language. Unknown languages fall back to RU.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := translations[lang]; !ok {
		lang = RU
	}
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
