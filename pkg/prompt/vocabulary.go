// Package prompt composes the recognizer's initial-prompt text from a
// foreground-app snapshot and the runtime vocabulary fed in over the
// command channel.
package prompt

import "sync"

// Vocabulary holds the live list of app names and command words the user
// has taught the daemon, mutated from the command channel and
// snapshot-read once per utterance so a mid-utterance update never changes
// the prompt an in-flight transcription already started with.
type Vocabulary struct {
	mu       sync.Mutex
	apps     []string
	commands []string
}

// Replace atomically swaps in a new vocabulary.
func (v *Vocabulary) Replace(apps, commands []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.apps = append([]string(nil), apps...)
	v.commands = append([]string(nil), commands...)
}

// Snapshot copies out the current apps and commands lists.
func (v *Vocabulary) Snapshot() (apps, commands []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.apps...), append([]string(nil), v.commands...)
}
