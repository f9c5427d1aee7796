package data

import (
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		input string
		want  VirtualLocation
	}{
		{"myserver", "server://myserver"},
		{"server://myserver", "server://myserver"},
		{"", "server://"},
		{"server://", "server://"},
		{" spaced ", "server:// spaced "},
		{"SERVER://upper", "server://SERVER://upper"},
		{"http://example.com", "server://http://example.com"},
	}

	for _, tt := range tests {
		if got := Resolve(tt.input); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestResolve_Idempotent(t *testing.T) {
	inputs := []string{"", "a", "home", "server://", "server://x", "server:/x", "ſerver://x", "日本"}

	for _, input := range inputs {
		once := Resolve(input)
		twice := Resolve(string(once))

		if once != twice {
			t.Errorf("Resolve not idempotent for %q: %q != %q", input, once, twice)
		}
		if !strings.HasPrefix(string(once), Scheme) {
			t.Errorf("Resolve(%q) = %q is missing the scheme", input, once)
		}
	}
}

func TestVirtualLocation_Name(t *testing.T) {
	if got := HomeLocation.Name(); got != "home" {
		t.Errorf("HomeLocation.Name() = %q, want home", got)
	}
	if got := Resolve("").Name(); got != "" {
		t.Errorf("empty location name = %q, want empty", got)
	}
}
