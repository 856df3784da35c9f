package perf

import "testing"

func TestProjectRequiresTwoSamples(t *testing.T) {
	var tr Tracker
	if _, ok := tr.Project(); ok {
		t.Fatal("expected no projection with zero samples")
	}
	tr.Record(2.0, 0.5)
	if _, ok := tr.Project(); ok {
		t.Fatal("expected no projection with one sample")
	}
}

func TestProjectDegenerateDenominator(t *testing.T) {
	var tr Tracker
	tr.Record(5.0, 0.4)
	tr.Record(5.0, 0.6)
	if _, ok := tr.Project(); ok {
		t.Fatal("expected no projection when all samples share audio_seconds")
	}
}

func TestProjectLinearFit(t *testing.T) {
	var tr Tracker
	// rtf = 0.1 + 0.02*audio_seconds exactly.
	tr.Record(1, 0.12)
	tr.Record(2, 0.14)
	tr.Record(3, 0.16)

	proj, ok := tr.Project()
	if !ok {
		t.Fatal("expected a projection")
	}
	want30 := 0.1 + 0.02*30
	want60 := 0.1 + 0.02*60
	if diff := proj.At30s - want30; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("At30s = %v, want %v", proj.At30s, want30)
	}
	if diff := proj.At60s - want60; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("At60s = %v, want %v", proj.At60s, want60)
	}
}

func TestRecordEvictsOldest(t *testing.T) {
	var tr Tracker
	for i := 0; i < 15; i++ {
		tr.Record(float64(i), 1.0)
	}
	tr.mu.Lock()
	n := len(tr.samples)
	first := tr.samples[0].audioSeconds
	tr.mu.Unlock()
	if n != maxSamples {
		t.Fatalf("expected window capped at %d, got %d", maxSamples, n)
	}
	if first != 5 {
		t.Fatalf("expected oldest sample evicted, first audio_seconds = %v", first)
	}
}
