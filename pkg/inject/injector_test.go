package inject

import "testing"

func TestIsBlank(t *testing.T) {
	cases := map[string]bool{
		"":        true,
		"   ":     true,
		"\t\n":    true,
		"hello":   false,
		"  hi  ":  false,
	}
	for text, want := range cases {
		if got := isBlank(text); got != want {
			t.Fatalf("isBlank(%q) = %v, want %v", text, got, want)
		}
	}
}
