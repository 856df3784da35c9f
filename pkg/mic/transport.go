// Package mic opens the host's default input device and delivers canonical
// int16 mono samples to a sink at a fixed request rate and format.
package mic

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/oliverbhull/memo-stt/pkg/audio"
)

// Sink receives canonical samples as they arrive from the capture callback.
// Implementations must not block.
type Sink func(samples []int16)

// Transport owns a single malgo capture device for the lifetime of one
// recording. It is not safe to Start twice without an intervening Stop.
type Transport struct {
	ctx *malgo.AllocatedContext

	mu         sync.Mutex
	device     *malgo.Device
	nativeRate uint32
}

// New initializes the malgo audio context shared by every recording this
// process makes. Call Close when the process exits.
func New() (*Transport, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("mic: init audio context: %w", err)
	}
	return &Transport{ctx: ctx}, nil
}

// Close releases the shared audio context.
func (t *Transport) Close() error {
	if t.ctx == nil {
		return nil
	}
	if err := t.ctx.Uninit(); err != nil {
		return fmt.Errorf("mic: uninit audio context: %w", err)
	}
	t.ctx.Free()
	return nil
}

// NativeRate reports the sample rate the most recent capture stream ran at,
// so callers can tell the recognizer how to resample.
func (t *Transport) NativeRate() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nativeRate
}

// DefaultSampleRate is the rate requested from the capture device. malgo's
// backend resamples internally if the hardware's own native rate differs, so
// the sink always sees audio at this rate.
const DefaultSampleRate = 48000

// Start opens the default capture device, requesting signed 16-bit mono PCM
// at DefaultSampleRate. miniaudio resamples and reformats internally
// whenever the hardware's native format or rate differs from what's
// requested, so the callback always receives S16 at DefaultSampleRate
// already. The returned stop function must be called exactly once to
// release the device.
func (t *Transport) Start(sink Sink) (stop func(), err error) {
	deviceCfg := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceCfg.Capture.Format = malgo.FormatS16
	deviceCfg.Capture.Channels = 1
	deviceCfg.SampleRate = DefaultSampleRate

	onData := func(_, input []byte, frameCount uint32) {
		if input == nil {
			return
		}
		sink(audio.BytesToI16LE(input))
	}

	device, err := malgo.InitDevice(t.ctx.Context, deviceCfg, malgo.DeviceCallbacks{
		Data: onData,
	})
	if err != nil {
		return nil, fmt.Errorf("mic: init capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("mic: start capture device: %w", err)
	}

	t.mu.Lock()
	t.device = device
	t.nativeRate = DefaultSampleRate
	t.mu.Unlock()

	stopped := false
	return func() {
		if stopped {
			return
		}
		stopped = true
		device.Uninit()
		t.mu.Lock()
		t.device = nil
		t.mu.Unlock()
	}, nil
}
