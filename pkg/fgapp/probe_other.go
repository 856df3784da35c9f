//go:build !darwin

package fgapp

// New builds the platform probe. Non-macOS hosts have no foreground-window
// automation facility wired up yet, so the probe always reports Unknown.
func New() Probe { return stubProbe{} }

type stubProbe struct{}

func (stubProbe) Snapshot() Snapshot {
	return Snapshot{AppName: "Unknown", WindowTitle: ""}
}
