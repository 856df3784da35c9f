// Package ble connects to the memo wearable's GATT audio service, forwarding
// decoded Opus bundles and button-press control events to the orchestrator
// and maintaining the connection across drops with exponential backoff.
package ble

import "errors"

// ErrDeviceNotFound is returned when no peripheral advertising the service
// UUID or the "memo_" name prefix is seen within the scan window.
var ErrDeviceNotFound = errors.New("ble: device not found")

// ErrConnectionTimeout is returned when a discovered peripheral does not
// finish connecting and service discovery within the connect window.
var ErrConnectionTimeout = errors.New("ble: connection timeout")

// ErrServiceNotFound is returned when the connected peripheral does not
// expose the expected audio service.
var ErrServiceNotFound = errors.New("ble: memo audio service not found")

// ErrControlCharNotFound is returned when trigger-only mode cannot find the
// control characteristic it requires.
var ErrControlCharNotFound = errors.New("ble: control characteristic not found")

// ConnectionState describes the transport's current relationship with the
// wearable.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateScanning
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ControlKind identifies which button-press notification the firmware sent
// on the Control TX characteristic.
type ControlKind byte

const (
	ControlSpeechStart ControlKind = 0x01
	ControlSpeechEnd   ControlKind = 0x02
)

// Mode selects which characteristics Connect subscribes to.
type Mode int

const (
	// ModeFull subscribes to both audio data and control notifications; the
	// wearable's microphone is the active audio source.
	ModeFull Mode = iota
	// ModeTriggerOnly subscribes to control notifications only; the host
	// microphone is the active audio source and the wearable is used
	// purely as a remote trigger.
	ModeTriggerOnly
)

// Event is delivered to the orchestrator for every notification the
// transport receives, plus on every connection-state change.
type Event struct {
	// State is set whenever the connection state changes; Kind is zero
	// for pure state-change events.
	State ConnectionState

	// Audio carries a raw bundle body (bundle_index || bundle_body) when
	// Kind == EventAudio.
	Audio []byte

	// Control carries the button-press kind when Kind == EventControl.
	Control ControlKind

	Kind EventKind
}

// EventKind discriminates the payload carried by an Event.
type EventKind int

const (
	EventState EventKind = iota
	EventAudio
	EventControl
)
