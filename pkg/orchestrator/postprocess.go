package orchestrator

import "strings"

// stripShortTerminators splits text on '.', '!' and '?'; a phrase with
// fewer than four whitespace-separated words has its terminator dropped
// (a short dictated phrase reads as a label, not a sentence), otherwise
// the terminator is kept. Phrases are rejoined with a single space and
// trailing whitespace is trimmed.
func stripShortTerminators(text string) string {
	var phrases []string
	var terminators []byte

	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			phrases = append(phrases, text[start:i])
			terminators = append(terminators, byte(r))
			start = i + 1
		}
	}
	remainder := strings.TrimSpace(text[start:])

	var out []string
	for i, phrase := range phrases {
		trimmed := strings.TrimSpace(phrase)
		if trimmed == "" {
			continue
		}
		if len(strings.Fields(trimmed)) < 4 {
			out = append(out, trimmed)
		} else {
			out = append(out, trimmed+string(terminators[i]))
		}
	}
	if remainder != "" {
		out = append(out, remainder)
	}
	return strings.TrimSpace(strings.Join(out, " "))
}
