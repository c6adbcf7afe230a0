package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAuthDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"bare tilde", "~", filepath.Clean(home)},
		{"tilde with path", "~/.config/x-bookmarks", filepath.Join(home, ".config", "x-bookmarks")},
		{"absolute path untouched", "/var/lib/x-bookmarks", filepath.Clean("/var/lib/x-bookmarks")},
		{"relative path cleaned", "auth/../tokens", filepath.Clean("auth/../tokens")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveAuthDir(tt.input)
			if err != nil {
				t.Fatalf("ResolveAuthDir(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ResolveAuthDir(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
