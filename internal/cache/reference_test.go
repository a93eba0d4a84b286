package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReferenceClassification(t *testing.T) {
	tests := []struct {
		uri        string
		wantRemote bool
		wantLocal  bool
	}{
		{"http://example.org/data/brain.nrrd", true, false},
		{"https://example.org/brain.nrrd", true, false},
		{"xnat://host/project/scan", true, false},
		{"file:///tmp/brain.nrrd", false, true},
		{"[brain.nrrd]:file:///tmp/x", false, true},
		{"[brain.nrrd]:http://host/x", true, false},
		{"/tmp/brain.nrrd", false, false},
		{"relative/brain.nrrd", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			if got := IsRemoteReference(tt.uri); got != tt.wantRemote {
				t.Fatalf("IsRemoteReference(%q) = %v, want %v", tt.uri, got, tt.wantRemote)
			}
			if got := IsLocalReference(tt.uri); got != tt.wantLocal {
				t.Fatalf("IsLocalReference(%q) = %v, want %v", tt.uri, got, tt.wantLocal)
			}
		})
	}
}

func TestLocalFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "present.nrrd")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name string
		uri  string
		want bool
	}{
		{"plain path", path, true},
		{"file uri", "file://" + path, true},
		{"missing", filepath.Join(dir, "absent.nrrd"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LocalFileExists(tt.uri); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
