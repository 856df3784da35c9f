package audio

import "math"

// levelWeights shapes a flat RMS reading into the 7-band display curve the
// external UI renders as a meter.
var levelWeights = [7]float64{0.6, 0.8, 0.95, 1.0, 0.95, 0.8, 0.6}

// MicLevels derives the 7-float AUDIO_LEVELS payload from the last captured
// mic callback.
func MicLevels(samples []int16) [7]float64 {
	return levels(samples, 15000.0, 2.0)
}

// BleLevels derives the 7-float AUDIO_LEVELS payload from decoded BLE audio.
func BleLevels(samples []int16) [7]float64 {
	return levels(samples, 20000.0, 1.5)
}

func levels(samples []int16, divisor, gain float64) [7]float64 {
	// RMS is normalized to [0, 1] by the 32768 full-scale divisor; undo
	// that here since divisor/gain below are tuned against raw sample
	// magnitudes, matching the source telemetry's original scale.
	rawRMS := RMS(samples) * 32768

	v := (rawRMS / divisor) * gain
	if v > 1 {
		v = 1
	}
	v = math.Pow(v, 0.4)

	var out [7]float64
	for i, w := range levelWeights {
		out[i] = v * w
	}
	return out
}
