package audio

import "math"

// BytesToI16LE reinterprets a little-endian int16 byte stream, truncating a
// trailing odd byte.
func BytesToI16LE(src []byte) []int16 {
	n := len(src) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(uint16(src[2*i]) | uint16(src[2*i+1])<<8)
	}
	return out
}

// I16ToBytesLE serializes canonical samples as little-endian int16 bytes,
// the form the data chunk of the AUDIO_WAV payload carries.
func I16ToBytesLE(src []int16) []byte {
	out := make([]byte, len(src)*2)
	for i, v := range src {
		out[2*i] = byte(uint16(v))
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}

// Resample performs linear-interpolation resampling of canonical int16 mono
// samples from srcRate to dstRate. Used to bring mic-rate audio (typically
// 44.1kHz/48kHz) down to the recognizer's configured 16kHz input rate.
func Resample(src []int16, srcRate, dstRate int) []int16 {
	if srcRate <= 0 || dstRate <= 0 || srcRate == dstRate || len(src) == 0 {
		out := make([]int16, len(src))
		copy(out, src)
		return out
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(math.Ceil(float64(len(src)) / ratio))
	out := make([]int16, outLen)

	for i := 0; i < outLen; i++ {
		srcPos := float64(i) * ratio
		idx := int(srcPos)
		frac := srcPos - float64(idx)

		if idx >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		a, b := float64(src[idx]), float64(src[idx+1])
		out[i] = int16(a + (b-a)*frac)
	}
	return out
}

// RMS computes the root-mean-square energy of canonical int16 samples,
// normalized to [0, 1].
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		f := float64(s) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(samples)))
}
