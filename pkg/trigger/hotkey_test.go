package trigger

import "testing"

func TestParseHotkeyCaseInsensitive(t *testing.T) {
	for _, variant := range []string{"space", "SPACE", "Space", "sPaCe"} {
		if _, ok := ParseHotkey(variant); !ok {
			t.Fatalf("expected %q to parse", variant)
		}
	}
}

func TestParseHotkeyAlphabet(t *testing.T) {
	names := []string{
		"function", "fn", "f1", "f2", "f3", "f4", "f5", "f6", "f7", "f8", "f9", "f10", "f11", "f12",
		"space", "ctrl", "controlleft", "controlright", "alt", "altleft", "altright",
		"cmd", "command", "metaleft", "metaright", "shift", "shiftleft", "shiftright",
	}
	for _, name := range names {
		if _, ok := ParseHotkey(name); !ok {
			t.Fatalf("expected %q to be recognized", name)
		}
	}
}

func TestParseHotkeyUnknown(t *testing.T) {
	for _, bad := range []string{"", "banana", "f13", "enter", "escape"} {
		if _, ok := ParseHotkey(bad); ok {
			t.Fatalf("expected %q to be unrecognized", bad)
		}
	}
}
