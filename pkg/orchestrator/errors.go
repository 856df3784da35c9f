package orchestrator

import "errors"

var (
	// ErrNilRecognizer is returned by New when no Recognizer is supplied;
	// the recognizer is the one capability with no safe no-op substitute.
	ErrNilRecognizer = errors.New("orchestrator: recognizer is required")

	// ErrNilInjector is returned by New when no Injector is supplied.
	ErrNilInjector = errors.New("orchestrator: injector is required")
)
