package prompt

import (
	"fmt"
	"strings"

	"github.com/oliverbhull/memo-stt/pkg/fgapp"
)

// Build composes the recognizer initial-prompt from a foreground-app
// snapshot and a vocabulary snapshot, returning ok=false when there is
// nothing to say — callers must still call Recognizer.SetPrompt(nil) in
// that case, since prompt state is sticky on the recognizer.
func Build(ctx fgapp.Snapshot, apps, commands []string) (string, bool) {
	var b strings.Builder

	switch {
	case ctx.AppName != "" && ctx.AppName != "Unknown" && ctx.WindowTitle != "":
		fmt.Fprintf(&b, "You are transcribing for %s. The current window is: %s.", ctx.AppName, ctx.WindowTitle)
	case ctx.AppName != "" && ctx.AppName != "Unknown":
		fmt.Fprintf(&b, "You are transcribing for %s.", ctx.AppName)
	}

	if len(apps) > 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "Voice commands: open %s.", strings.Join(apps, ", "))
	}
	if len(commands) > 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "Commands: %s.", strings.Join(commands, ", "))
	}

	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}
