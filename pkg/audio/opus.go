package audio

import (
	"fmt"

	opus "gopkg.in/hraban/opus.v2"
)

// OpusFrameSamples is the fixed 20ms frame length at 16kHz mono the BLE
// device's bundle format assumes.
const OpusFrameSamples = 320

const (
	opusSampleRate = 16000
	opusChannels   = 1
	opusBitrate    = 24000
)

// BundleCodec encodes and decodes the device's bundled Opus frame format:
//
//	packet := bundle_index:u8 || bundle_body
//	bundle_body := num_frames:u8 || frame[0] || frame[1] || ...
//	frame := frame_size:u8 || opus_bytes[frame_size]
//
// Encoder settings (VoIP application, 24kbps, VBR, complexity 5) are
// contractual for bit-identity with the source device and must not change.
// No signal-type hint is set on the encoder; libopus picks it itself.
type BundleCodec struct {
	enc *opus.Encoder
	dec *opus.Decoder
}

// NewBundleCodec builds a 16kHz/20ms mono encoder and decoder pair.
func NewBundleCodec() (*BundleCodec, error) {
	enc, err := opus.NewEncoder(opusSampleRate, opusChannels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("opus encoder: %w", err)
	}
	if err := enc.SetBitrate(opusBitrate); err != nil {
		return nil, fmt.Errorf("opus encoder bitrate: %w", err)
	}
	if err := enc.SetVbr(true); err != nil {
		return nil, fmt.Errorf("opus encoder vbr: %w", err)
	}
	if err := enc.SetComplexity(5); err != nil {
		return nil, fmt.Errorf("opus encoder complexity: %w", err)
	}

	dec, err := opus.NewDecoder(opusSampleRate, opusChannels)
	if err != nil {
		return nil, fmt.Errorf("opus decoder: %w", err)
	}

	return &BundleCodec{enc: enc, dec: dec}, nil
}

// EncodeBuffer emits 20ms Opus frames from pcm until fewer than
// OpusFrameSamples remain, zero-padding the final partial frame. It does not
// produce the bundle index or frame count header; callers wrap the frame
// slices into a bundle via EncodeBundle.
func (c *BundleCodec) EncodeBuffer(pcm []int16) ([][]byte, error) {
	var frames [][]byte
	buf := make([]byte, 1275) // RFC 6716 max Opus packet size

	for off := 0; off < len(pcm); off += OpusFrameSamples {
		end := off + OpusFrameSamples
		var frame []int16
		if end <= len(pcm) {
			frame = pcm[off:end]
		} else {
			frame = make([]int16, OpusFrameSamples)
			copy(frame, pcm[off:])
		}

		n, err := c.enc.Encode(frame, buf)
		if err != nil {
			return nil, fmt.Errorf("opus encode frame at %d: %w", off, err)
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		frames = append(frames, out)
	}
	return frames, nil
}

// EncodeBundle wraps encoded Opus frames into one bundle body with the
// given bundle index.
func EncodeBundle(bundleIndex byte, frames [][]byte) []byte {
	body := make([]byte, 0, 2+len(frames)*4)
	body = append(body, bundleIndex, byte(len(frames)))
	for _, f := range frames {
		body = append(body, byte(len(f)))
		body = append(body, f...)
	}
	return body
}

// DecodeBundle parses a bundle_body (num_frames || frame[0] || frame[1] ||
// ...), tolerating truncation: it stops at the first incomplete frame and
// returns what it already decoded, plus a bool reporting whether truncation
// was observed (callers log a warning on true, per spec).
func (c *BundleCodec) DecodeBundle(body []byte) (pcm []int16, truncated bool, err error) {
	if len(body) == 0 {
		return nil, false, nil
	}

	numFrames := int(body[0])
	pos := 1
	pcmBuf := make([]int16, OpusFrameSamples)

	for i := 0; i < numFrames; i++ {
		if pos >= len(body) {
			return pcm, true, nil
		}
		frameSize := int(body[pos])
		pos++
		if pos+frameSize > len(body) {
			return pcm, true, nil
		}
		frameBytes := body[pos : pos+frameSize]
		pos += frameSize

		n, derr := c.dec.Decode(frameBytes, pcmBuf)
		if derr != nil {
			return pcm, false, fmt.Errorf("opus decode frame %d: %w", i, derr)
		}
		pcm = append(pcm, pcmBuf[:n]...)
	}
	return pcm, false, nil
}
