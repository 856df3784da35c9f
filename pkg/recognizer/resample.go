package recognizer

import "github.com/oliverbhull/memo-stt/pkg/audio"

// engineRate is the sample rate whisper.cpp models are trained against.
const engineRate = 16000

// toFloat32 resamples canonical int16 mono samples to engineRate and
// converts to the [-1, 1] float32 range whisper.cpp expects.
func toFloat32(samples []int16, sourceRate int) []float32 {
	resampled := audio.Resample(samples, sourceRate, engineRate)
	out := make([]float32, len(resampled))
	for i, s := range resampled {
		out[i] = float32(s) / 32768.0
	}
	return out
}
