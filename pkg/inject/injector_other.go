//go:build !darwin

package inject

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/go-vgo/robotgo"
)

// New builds the platform injector: clipboard write followed by a
// synthetic Ctrl-V (and, optionally, Return) via robotgo.
func New() Injector { return otherInjector{} }

type otherInjector struct{}

func (otherInjector) Inject(text string, pressEnter bool) error {
	if isBlank(text) {
		return nil
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write clipboard: %w", err)
	}

	robotgo.KeyTap("v", "ctrl")
	if pressEnter {
		robotgo.KeyTap("enter")
	}
	return nil
}
