package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tinygo.org/x/bluetooth"
)

// Service and characteristic UUIDs, taken from the wearable's firmware.
// Bit-identical with the device; must not change.
var (
	serviceUUID    = mustParseUUID("1234A000-1234-5678-1234-56789ABCDEF0")
	audioDataUUID  = mustParseUUID("1234A001-1234-5678-1234-56789ABCDEF0")
	controlTxUUID  = mustParseUUID("1234A003-1234-5678-1234-56789ABCDEF0")
	scanTimeout    = 30 * time.Second
	connectTimeout = 10 * time.Second
	probeInterval  = 3 * time.Second
	probeTimeout   = 1 * time.Second
)

// defaultNamePrefix is the local-name prefix every wearable advertises
// under. Scan matching always uses it; the preferred device name passed to
// New does not change it.
const defaultNamePrefix = "memo_"

func mustParseUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(strings.ToLower(s))
	if err != nil {
		panic(fmt.Sprintf("ble: invalid UUID literal %q: %v", s, err))
	}
	return u
}

// Transport owns the lifetime of one wearable connection: scanning,
// GATT discovery, subscription, liveness probing and autonomous
// reconnection with exponential backoff.
type Transport struct {
	adapter    *bluetooth.Adapter
	devicename string
	mode       Mode

	events chan Event

	mu       sync.Mutex
	device   *bluetooth.Device
	audioCh  *bluetooth.DeviceCharacteristic
	controlCh *bluetooth.DeviceCharacteristic

	connected atomic.Bool
	closing   atomic.Bool
}

// New builds a transport bound to the default Bluetooth adapter. deviceName
// is the preferred peripheral name; it is stored for diagnostics only and
// does not narrow or bias which peripheral the scan accepts.
func New(deviceName string, mode Mode) (*Transport, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}
	return &Transport{
		adapter:    adapter,
		devicename: deviceName,
		mode:       mode,
		events:     make(chan Event, 64),
	}, nil
}

// Events returns the channel of connection-state, audio and control events.
// Never closed while the transport is running; closed once when Run
// returns, after Close or cancellation of Run's context.
func (t *Transport) Events() <-chan Event { return t.events }

// Run scans, connects, subscribes, probes liveness and reconnects on
// failure until ctx is cancelled or Close is called. It is meant to be run
// on its own goroutine.
func (t *Transport) Run(ctx context.Context) {
	defer close(t.events)

	attempt := 0
	for {
		if ctx.Err() != nil || t.closing.Load() {
			return
		}

		t.emitState(StateScanning)
		dev, err := t.scan(ctx)
		if err != nil {
			t.backoffWait(ctx, &attempt)
			continue
		}

		t.emitState(StateConnecting)
		if err := t.connectAndSubscribe(ctx, dev); err != nil {
			t.backoffWait(ctx, &attempt)
			continue
		}

		attempt = 0
		t.emitState(StateConnected)
		t.connected.Store(true)

		t.probeUntilDisconnected(ctx)

		t.connected.Store(false)
		t.disconnect()
		t.emitState(StateDisconnected)
	}
}

// Close stops Run and releases the adapter-side connection, if any.
func (t *Transport) Close() error {
	t.closing.Store(true)
	t.disconnect()
	return nil
}

// Connected reports whether the wearable is currently connected and
// subscribed.
func (t *Transport) Connected() bool { return t.connected.Load() }

type scanHit struct {
	addr bluetooth.Address
	ok   bool
}

func (t *Transport) scan(ctx context.Context) (bluetooth.Address, error) {
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	found := make(chan scanHit, 1)
	go func() {
		err := t.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !t.matches(result) {
				return
			}
			adapter.StopScan()
			select {
			case found <- scanHit{result.Address, true}:
			default:
			}
		})
		if err != nil {
			select {
			case found <- scanHit{ok: false}:
			default:
			}
		}
	}()

	select {
	case hit := <-found:
		if !hit.ok {
			return bluetooth.Address{}, ErrDeviceNotFound
		}
		return hit.addr, nil
	case <-scanCtx.Done():
		t.adapter.StopScan()
		return bluetooth.Address{}, ErrDeviceNotFound
	}
}

// matches reports whether a scan result is the wearable: it advertises the
// contractual service UUID, or its local name carries the "memo_" prefix,
// matched case-insensitively. The preferred device name plays no part.
func (t *Transport) matches(result bluetooth.ScanResult) bool {
	if result.HasServiceUUID(serviceUUID) {
		return true
	}
	return strings.HasPrefix(strings.ToLower(result.LocalName()), defaultNamePrefix)
}

func (t *Transport) connectAndSubscribe(ctx context.Context, addr bluetooth.Address) error {
	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	type result struct {
		dev bluetooth.Device
		err error
	}
	done := make(chan result, 1)
	go func() {
		dev, err := t.adapter.Connect(addr, bluetooth.ConnectionParams{})
		done <- result{dev, err}
	}()

	var dev bluetooth.Device
	select {
	case r := <-done:
		if r.err != nil {
			return fmt.Errorf("ble: connect: %w", r.err)
		}
		dev = r.dev
	case <-connCtx.Done():
		return ErrConnectionTimeout
	}

	services, err := dev.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil || len(services) == 0 {
		dev.Disconnect()
		return ErrServiceNotFound
	}
	svc := services[0]

	wantChars := []bluetooth.UUID{controlTxUUID}
	if t.mode == ModeFull {
		wantChars = []bluetooth.UUID{audioDataUUID, controlTxUUID}
	}
	chars, err := svc.DiscoverCharacteristics(wantChars)
	if err != nil {
		dev.Disconnect()
		return fmt.Errorf("ble: discover characteristics: %w", err)
	}

	var audioChar, controlChar *bluetooth.DeviceCharacteristic
	for i := range chars {
		c := chars[i]
		switch c.UUID() {
		case audioDataUUID:
			audioChar = &c
		case controlTxUUID:
			controlChar = &c
		}
	}

	if controlChar == nil && t.mode == ModeTriggerOnly {
		dev.Disconnect()
		return ErrControlCharNotFound
	}
	if t.mode == ModeFull && audioChar == nil {
		dev.Disconnect()
		return ErrServiceNotFound
	}

	if audioChar != nil {
		if err := audioChar.EnableNotifications(func(buf []byte) {
			t.emit(Event{Kind: EventAudio, Audio: append([]byte(nil), buf...)})
		}); err != nil {
			dev.Disconnect()
			return fmt.Errorf("ble: subscribe audio data: %w", err)
		}
	}
	if controlChar != nil {
		if err := controlChar.EnableNotifications(func(buf []byte) {
			if len(buf) == 0 {
				return
			}
			kind := ControlKind(buf[0])
			if kind != ControlSpeechStart && kind != ControlSpeechEnd {
				return
			}
			t.emit(Event{Kind: EventControl, Control: kind})
		}); err != nil {
			dev.Disconnect()
			return fmt.Errorf("ble: subscribe control: %w", err)
		}
	}

	t.mu.Lock()
	t.device = &dev
	t.audioCh = audioChar
	t.controlCh = controlChar
	t.mu.Unlock()
	return nil
}

// probeUntilDisconnected runs a liveness probe (see probe) every
// probeInterval, returning once a probe fails or the context is cancelled.
func (t *Transport) probeUntilDisconnected(ctx context.Context) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			dev := t.device
			t.mu.Unlock()
			if dev == nil {
				return
			}
			probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
			ok := t.probe(probeCtx, dev)
			cancel()
			if !ok {
				return
			}
		}
	}
}

// probe re-runs service discovery against the live connection as a
// liveness check: a device that has dropped its link fails this with an
// error rather than hanging, unlike a bare read of a notify-only
// characteristic.
func (t *Transport) probe(ctx context.Context, dev *bluetooth.Device) bool {
	done := make(chan bool, 1)
	go func() {
		_, err := dev.DiscoverServices([]bluetooth.UUID{serviceUUID})
		done <- err == nil
	}()
	select {
	case ok := <-done:
		return ok
	case <-ctx.Done():
		return false
	}
}

func (t *Transport) disconnect() {
	t.mu.Lock()
	dev := t.device
	t.device = nil
	t.audioCh = nil
	t.controlCh = nil
	t.mu.Unlock()
	if dev != nil {
		dev.Disconnect()
	}
}

func (t *Transport) backoffWait(ctx context.Context, attempt *int) {
	delay := backoffDelay(*attempt)
	*attempt++
	t.emitState(StateDisconnected)
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func (t *Transport) emitState(s ConnectionState) {
	t.emit(Event{Kind: EventState, State: s})
}

func (t *Transport) emit(e Event) {
	select {
	case t.events <- e:
	default:
	}
}
