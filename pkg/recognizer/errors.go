package recognizer

import "errors"

// ErrModelNotFound is returned by New when the configured model file does
// not exist; the daemon treats this as a fatal init failure.
var ErrModelNotFound = errors.New("recognizer: model file not found")

// ErrAudioTooShort is returned by Transcribe when, after resampling to the
// engine's 16kHz input rate, fewer than one second of samples remain.
var ErrAudioTooShort = errors.New("recognizer: audio too short")
