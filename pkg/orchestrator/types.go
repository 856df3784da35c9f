// Package orchestrator implements the session state machine at the heart
// of the dictation daemon: it merges trigger events, owns the audio ring
// for the active utterance, and drives the per-utterance transcription
// pipeline (context snapshot, prompt build, recognize, post-process,
// inject, record telemetry) on a detached goroutine per utterance.
package orchestrator

import "github.com/oliverbhull/memo-stt/pkg/fgapp"

// Logger is the minimal structured-logging surface every component in
// this daemon depends on, so any of zap, zerolog or a test double can
// back it.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// NoOpLogger discards everything; the default when no logger is wired.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...interface{}) {}
func (NoOpLogger) Info(string, ...interface{})  {}
func (NoOpLogger) Warn(string, ...interface{})  {}
func (NoOpLogger) Error(string, ...interface{}) {}

// AudioSource is the audio capture path an Orchestrator instance is bound
// to for its whole lifetime. A source change is implemented by the outer
// driver tearing down one Orchestrator and building another — see the
// design note on input-source hot-swap.
type AudioSource int

const (
	SourceMic AudioSource = iota
	SourceBLE
)

func (s AudioSource) String() string {
	if s == SourceBLE {
		return "ble"
	}
	return "mic"
}

// Recognizer is the slice of *recognizer.Recognizer this package depends
// on, so tests can substitute a fake.
type Recognizer interface {
	SetPrompt(prompt *string)
	Transcribe(samples []int16) (string, error)
}

// Injector is the slice of inject.Injector this package depends on.
type Injector interface {
	Inject(text string, pressEnter bool) error
}

// ContextProbe is the slice of fgapp.Probe this package depends on.
type ContextProbe interface {
	Snapshot() fgapp.Snapshot
}

// AppContext is captured once per utterance, at the moment recording
// stops, before the recognizer is invoked.
type AppContext struct {
	AppName     string `json:"appName"`
	WindowTitle string `json:"windowTitle"`
}

// FinalPayload is the JSON body of a FINAL: protocol line.
type FinalPayload struct {
	RawTranscript     string     `json:"rawTranscript"`
	ProcessedText     string     `json:"processedText"`
	WasProcessedByLLM bool       `json:"wasProcessedByLLM"`
	AppContext        AppContext `json:"appContext"`
}

// EventType discriminates the payload carried by an Event.
type EventType int

const (
	EventLocked EventType = iota
	EventUnlocked
	EventNoSpeech
	EventAudioTooShort
	EventFinal
	EventAudioLevels
	EventAudioData
	EventAudioWav
	EventAudioDuration
	EventInjectError
	EventTranscribeError
)

// Event is emitted on the Orchestrator's output channel; main drains it
// and renders each variant onto the appropriate stdout/stderr protocol
// line.
type Event struct {
	Type EventType

	Final           *FinalPayload
	Levels          [7]float64
	AudioData       []byte
	WavData         []byte
	DurationSeconds float64
	Err             error
}
