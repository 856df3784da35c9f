package trigger

import (
	"context"

	"github.com/oliverbhull/memo-stt/pkg/ble"
)

// Mux merges the keyboard listener's Command stream and the BLE transport's
// control notifications into a single multi-producer queue, so the
// orchestrator never has to select across two trigger sources itself.
type Mux struct {
	out chan Command
}

// NewMux builds an unstarted mux with the given output buffer size.
func NewMux(buffer int) *Mux {
	return &Mux{out: make(chan Command, buffer)}
}

// Commands returns the merged output stream.
func (m *Mux) Commands() <-chan Command { return m.out }

// In returns a channel the keyboard listener (or any other Command
// producer) can send directly into the merged stream.
func (m *Mux) In() chan<- Command { return m.out }

// TranslateBLEControl converts a control event into a Command. SpeechStart
// maps to Activate, SpeechEnd to Deactivate. ok is false for anything but a
// control event (audio, connection-state), which the caller must route
// elsewhere rather than drop on the floor.
func (m *Mux) TranslateBLEControl(ev ble.Event) (Command, bool) {
	if ev.Kind != ble.EventControl {
		return Command{}, false
	}
	kind := Deactivate
	if ev.Control == ble.ControlSpeechStart {
		kind = Activate
	}
	return Command{Kind: kind, Source: SourceBLE}, true
}

// Send pushes cmd into the merged stream, dropping it if the buffer is full.
func (m *Mux) Send(cmd Command) {
	select {
	case m.out <- cmd:
	default:
	}
}

// RunBLE forwards BLE control events as Commands until ctx is cancelled or
// events closes. It assumes events is not shared with any other consumer —
// a caller that also needs the transport's audio events (as cmd/memo-stt
// does) must dispatch the shared channel itself instead of calling this,
// since two goroutines reading one channel would each see only half the
// events.
func (m *Mux) RunBLE(ctx context.Context, events <-chan ble.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if cmd, ok := m.TranslateBLEControl(ev); ok {
				m.Send(cmd)
			}
		}
	}
}
