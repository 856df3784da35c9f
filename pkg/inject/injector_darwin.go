//go:build darwin

package inject

import (
	"fmt"
	"os/exec"

	"github.com/atotto/clipboard"
)

// New builds the platform injector: clipboard write followed by a
// System Events keystroke of Cmd-V (and, optionally, Return).
func New() Injector { return darwinInjector{} }

type darwinInjector struct{}

func (darwinInjector) Inject(text string, pressEnter bool) error {
	if isBlank(text) {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write clipboard: %w", err)
	}

	script := `tell application "System Events" to keystroke "v" using command down`
	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		return fmt.Errorf("inject: paste keystroke: %w", err)
	}

	if pressEnter {
		if err := exec.Command("osascript", "-e", `tell application "System Events" to key code 36`).Run(); err != nil {
			return fmt.Errorf("inject: return keystroke: %w", err)
		}
	}
	return nil
}
