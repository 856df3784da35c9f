// Package recognizer wraps on-device whisper.cpp inference behind the
// orchestrator's transcription contract: one exclusive lock serializes every
// call, and a sticky initial prompt biases the next transcription.
package recognizer

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Recognizer performs on-device speech recognition against one loaded
// model. Safe for concurrent use: every call serializes on a single
// exclusive lock, matching the engine's single-threaded inference context.
type Recognizer struct {
	mu         sync.Mutex
	model      engineModel
	sourceRate int
	prompt     string
}

// New loads the model at modelPath. sourceRate is the rate audio passed to
// Transcribe is sampled at — 16000 when the BLE wearable is the active
// audio source, or the mic's native rate otherwise.
func New(modelPath string, sourceRate int) (*Recognizer, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, ErrModelNotFound
	}
	model, err := loadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("recognizer: load model %s: %w", modelPath, err)
	}
	return &Recognizer{model: model, sourceRate: sourceRate}, nil
}

// newWithModel builds a Recognizer around an already-loaded engineModel,
// bypassing disk access. Used by tests to inject a fake engine.
func newWithModel(model engineModel, sourceRate int) *Recognizer {
	return &Recognizer{model: model, sourceRate: sourceRate}
}

// Close releases the underlying model.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model.Close()
}

// SetPrompt replaces the sticky initial prompt. A nil prompt clears it;
// whitespace-only prompts are normalized to empty, which the engine
// interprets as no prompt. Callers must call this even to clear, since the
// previous prompt otherwise persists on the next Transcribe.
func (r *Recognizer) SetPrompt(prompt *string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prompt == nil {
		r.prompt = ""
		return
	}
	r.prompt = strings.TrimSpace(*prompt)
}

// SetSourceRate changes the rate Transcribe assumes its input is sampled
// at. Callers switch this when the active AudioSource changes — the mic's
// native rate versus the BLE wearable's fixed 16kHz.
func (r *Recognizer) SetSourceRate(sourceRate int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sourceRate = sourceRate
}

// Transcribe resamples samples from sourceRate to the engine's 16kHz input
// rate and runs one blocking inference pass. Returns ErrAudioTooShort if
// fewer than one second of audio remains after resampling.
func (r *Recognizer) Transcribe(samples []int16) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runLocked(samples)
}

// Warmup runs one zero-filled inference pass to preload the model's
// execution graph (and GPU context, where available) before the first real
// utterance arrives.
func (r *Recognizer) Warmup() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	silence := make([]int16, r.sourceRate) // 1s of silence at the configured source rate
	_, err := r.runLocked(silence)
	return err
}

func (r *Recognizer) runLocked(samples []int16) (string, error) {
	floatSamples := toFloat32(samples, r.sourceRate)
	if len(floatSamples) < engineRate {
		return "", ErrAudioTooShort
	}

	ctx, err := r.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("recognizer: new context: %w", err)
	}
	if r.prompt != "" {
		ctx.SetInitialPrompt(r.prompt)
	}
	if err := ctx.Process(floatSamples); err != nil {
		return "", fmt.Errorf("recognizer: process: %w", err)
	}

	var parts []string
	for {
		text, ok, err := ctx.NextSegmentText()
		if err != nil {
			return "", fmt.Errorf("recognizer: next segment: %w", err)
		}
		if !ok {
			break
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " "), nil
}
