package trigger

import (
	"strings"

	"golang.design/x/hotkey"
)

// ParseHotkey maps a CLI/config key name onto a hotkey.Key, case-insensitive
// over the documented alphabet. It returns ok=false on any unlisted string;
// callers fall back to the default trigger key and log a warning.
func ParseHotkey(s string) (hotkey.Key, bool) {
	switch strings.ToLower(s) {
	case "function", "fn":
		return hotkey.Key(hotkeyFunction), true
	case "space":
		return hotkey.KeySpace, true
	case "ctrl", "controlleft":
		return hotkey.KeyCtrl, true
	case "controlright":
		return hotkey.KeyCtrl, true
	case "alt", "altleft":
		return hotkey.KeyOption, true
	case "altright":
		return hotkey.KeyOption, true
	case "cmd", "command", "metaleft", "metaright":
		return hotkey.KeyCmd, true
	case "shift", "shiftleft", "shiftright":
		return hotkey.KeyShift, true
	case "f1":
		return hotkey.KeyF1, true
	case "f2":
		return hotkey.KeyF2, true
	case "f3":
		return hotkey.KeyF3, true
	case "f4":
		return hotkey.KeyF4, true
	case "f5":
		return hotkey.KeyF5, true
	case "f6":
		return hotkey.KeyF6, true
	case "f7":
		return hotkey.KeyF7, true
	case "f8":
		return hotkey.KeyF8, true
	case "f9":
		return hotkey.KeyF9, true
	case "f10":
		return hotkey.KeyF10, true
	case "f11":
		return hotkey.KeyF11, true
	case "f12":
		return hotkey.KeyF12, true
	default:
		return 0, false
	}
}

// hotkeyFunction is the default trigger key. The Globe/Fn key has no
// standard virtual keycode hotkey.Key exposes, so it is bound to F18, an
// otherwise-unused function key slot on full keyboards.
const hotkeyFunction = hotkey.KeyF18
