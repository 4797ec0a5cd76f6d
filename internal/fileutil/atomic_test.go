package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "registry.json")

	if err := WriteAtomic(path, []byte("one")); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	if err := WriteAtomic(path, []byte("two")); err != nil {
		t.Fatalf("WriteAtomic overwrite failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "two" {
		t.Errorf("content = %q, want %q", data, "two")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != "registry.json" {
			t.Errorf("leftover temp file: %s", entry.Name())
		}
	}
}
