// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"2025-01-31-digest.html", "2025-01-31-digest.html", false},
		{"../../etc/passwd", "passwd", false},
		{"nested/dir/file.html", "file.html", false},
		{"..", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := SanitizeFilename(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("SanitizeFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	got, err := SafeJoinPath(base, "2025-01-31-digest.html")
	if err != nil {
		t.Fatalf("SafeJoinPath: %v", err)
	}
	if want := filepath.Join(base, "2025-01-31-digest.html"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if _, err := SafeJoinPath(base, "..", "escape.html"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}
