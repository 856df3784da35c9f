package audio

import (
	"math"
	"testing"
)

func sineWave(n int, freqHz, sampleRate float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(10000 * math.Sin(2*math.Pi*freqHz*float64(i)/sampleRate))
	}
	return out
}

func TestBundleRoundTrip(t *testing.T) {
	codec, err := NewBundleCodec()
	if err != nil {
		t.Fatalf("NewBundleCodec: %v", err)
	}

	pcm := sineWave(OpusFrameSamples*5+100, 440, opusSampleRate)
	frames, err := codec.EncodeBuffer(pcm)
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	wantFrames := (len(pcm) + OpusFrameSamples - 1) / OpusFrameSamples
	if len(frames) != wantFrames {
		t.Fatalf("expected %d frames, got %d", wantFrames, len(frames))
	}

	bundle := EncodeBundle(7, frames)
	decoded, truncated, err := codec.DecodeBundle(bundle[1:]) // strip bundle_index
	if err != nil {
		t.Fatalf("DecodeBundle: %v", err)
	}
	if truncated {
		t.Fatalf("expected no truncation for a complete bundle")
	}

	wantLen := wantFrames * OpusFrameSamples
	if len(decoded) != wantLen {
		t.Fatalf("expected %d decoded samples, got %d", wantLen, len(decoded))
	}
}

func TestBundleTruncationDoesNotPanic(t *testing.T) {
	codec, err := NewBundleCodec()
	if err != nil {
		t.Fatalf("NewBundleCodec: %v", err)
	}

	pcm := sineWave(OpusFrameSamples*3, 220, opusSampleRate)
	frames, err := codec.EncodeBuffer(pcm)
	if err != nil {
		t.Fatalf("EncodeBuffer: %v", err)
	}
	bundle := EncodeBundle(1, frames)

	for cut := 1; cut < len(bundle); cut++ {
		_, _, err := codec.DecodeBundle(bundle[1:cut])
		if err != nil {
			// A decode error on a partial frame is acceptable; a panic is not.
			continue
		}
	}
}

func TestDecodeEmptyBundle(t *testing.T) {
	codec, err := NewBundleCodec()
	if err != nil {
		t.Fatalf("NewBundleCodec: %v", err)
	}
	pcm, truncated, err := codec.DecodeBundle(nil)
	if err != nil || truncated || pcm != nil {
		t.Fatalf("expected no-op decode for empty body, got pcm=%v truncated=%v err=%v", pcm, truncated, err)
	}
}
