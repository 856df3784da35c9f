//go:build darwin

package fgapp

import (
	"os/exec"
	"strings"
)

const windowTitleScript = `
tell application "System Events"
	set frontApp to first application process whose frontmost is true
	set appName to name of frontApp
	try
		tell process appName
			if (count of windows) > 0 then
				return name of window 1
			end if
		end tell
	end try
	return ""
end tell
`

// osascriptProbe shells out to System Events, the same automation facility
// the original daemon used to read the frontmost process name and title.
type osascriptProbe struct{}

// New builds the platform probe: AppleScript via osascript on darwin.
func New() Probe { return osascriptProbe{} }

func (osascriptProbe) Snapshot() Snapshot {
	appName := runOsascript(`tell application "System Events" to get name of first application process whose frontmost is true`)
	if appName == "" {
		appName = "Unknown"
	}
	return Snapshot{
		AppName:     appName,
		WindowTitle: runOsascript(windowTitleScript),
	}
}

func runOsascript(script string) string {
	out, err := exec.Command("osascript", "-e", script).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
