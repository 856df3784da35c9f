package audio

import "testing"

func TestMicLevelsSilence(t *testing.T) {
	out := MicLevels(make([]int16, 480))
	for i, v := range out {
		if v != 0 {
			t.Fatalf("band %d: expected 0 for silence, got %v", i, v)
		}
	}
}

func TestMicLevelsClampAndWeight(t *testing.T) {
	loud := make([]int16, 480)
	for i := range loud {
		loud[i] = 32767
	}
	out := MicLevels(loud)
	if out[3] != 1 {
		t.Fatalf("expected clamped peak band to equal 1.0, got %v", out[3])
	}
	if out[0] >= out[3] {
		t.Fatalf("expected edge band to be attenuated relative to center band: %v vs %v", out[0], out[3])
	}
}

func TestBleLevelsUsesDistinctCurve(t *testing.T) {
	samples := make([]int16, 320)
	for i := range samples {
		samples[i] = 8000
	}
	mic := MicLevels(samples)
	ble := BleLevels(samples)
	if mic == ble {
		t.Fatalf("expected mic and BLE level curves to differ for the same input")
	}
}
