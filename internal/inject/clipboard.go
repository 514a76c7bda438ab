package inject

import (
	"github.com/atotto/clipboard"
)

// SystemClipboard - буфер обмена ОС.
type SystemClipboard struct{}

// Read возвращает текущий текст буфера обмена.
func (SystemClipboard) Read() (string, error) {
	return clipboard.ReadAll()
}

// Write помещает текст в буфер обмена.
func (SystemClipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}
