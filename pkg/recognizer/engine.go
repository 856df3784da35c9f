package recognizer

// engineContext is the thin slice of the whisper.cpp binding this package
// depends on, so tests can substitute a fake without linking cgo.
type engineContext interface {
	SetInitialPrompt(prompt string)
	Process(samples []float32) error
	NextSegmentText() (text string, ok bool, err error)
}

// engineModel creates fresh inference contexts against one loaded model.
type engineModel interface {
	NewContext() (engineContext, error)
	Close() error
}
