package trigger

import (
	"context"
	"fmt"

	"golang.design/x/hotkey"
)

// KeyboardListener drives Activate/Deactivate/ToggleLock off the global
// trigger key. The plain key alone yields Activate on press and Deactivate
// on release; the same key held with Control yields one ToggleLock per
// press. The OS hotkey API only fires a registration when its exact
// modifier set is held, so the plain and chord registrations never both
// fire for a single physical keystroke.
type KeyboardListener struct {
	key    hotkey.Key
	plain  *hotkey.Hotkey
	chord  *hotkey.Hotkey
	cmds   chan<- Command
}

// NewKeyboardListener builds a listener for the given trigger key, emitting
// Commands onto cmds. cmds should be buffered; Run never blocks trying to
// send past a closed or unread channel beyond its buffer.
func NewKeyboardListener(key hotkey.Key, cmds chan<- Command) *KeyboardListener {
	return &KeyboardListener{
		key:  key,
		cmds: cmds,
	}
}

// Run registers both hotkeys and dispatches events until ctx is cancelled.
func (l *KeyboardListener) Run(ctx context.Context) error {
	l.plain = hotkey.New(nil, l.key)
	if err := l.plain.Register(); err != nil {
		return fmt.Errorf("trigger: register plain hotkey: %w", err)
	}
	defer l.plain.Unregister()

	l.chord = hotkey.New([]hotkey.Modifier{hotkey.ModCtrl}, l.key)
	if err := l.chord.Register(); err != nil {
		return fmt.Errorf("trigger: register chord hotkey: %w", err)
	}
	defer l.chord.Unregister()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.chord.Keydown():
			l.send(ToggleLock)
		case <-l.plain.Keydown():
			l.send(Activate)
		case <-l.plain.Keyup():
			l.send(Deactivate)
		}
	}
}

func (l *KeyboardListener) send(kind Kind) {
	select {
	case l.cmds <- Command{Kind: kind, Source: SourceKeyboard}:
	default:
	}
}
