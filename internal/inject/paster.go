package inject

import (
	"sync"

	"github.com/micmonay/keybd_event"
)

// KeyPaster нажимает Ctrl+V (Cmd+V на macOS) через виртуальную клавиатуру.
type KeyPaster struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// NewKeyPaster создаёт виртуальную клавиатуру.
func NewKeyPaster() (*KeyPaster, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, err
	}
	waitForDevice()

	setPasteModifier(&kb)
	kb.SetKeys(keybd_event.VK_V)

	return &KeyPaster{kb: kb}, nil
}

// Paste отправляет сочетание вставки.
func (p *KeyPaster) Paste() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kb.Launching()
}
