// Package inject reproduces a clipboard-paste keystroke sequence in
// whatever application currently has focus. Clipboard contents are
// overwritten as a side effect; this is accepted and documented.
package inject

import "strings"

// Injector types text into the foreground application.
type Injector interface {
	// Inject pastes text into the focused application, optionally
	// following it with Return. Empty or whitespace-only text is a no-op
	// success.
	Inject(text string, pressEnter bool) error
}

// isBlank reports whether text has no non-whitespace content.
func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
