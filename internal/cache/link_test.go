package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLinkHardLinksWithinSameFilesystem(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.txt")
	dst := filepath.Join(dir, "dest.txt")

	if err := os.WriteFile(src, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	if err := Link(src, dst); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(data) != "hello" {
		t.Fatalf("expected linked content, got %q", data)
	}
}

func TestLinkMissingSourceErrors(t *testing.T) {
	dir := t.TempDir()
	if err := Link(filepath.Join(dir, "missing.txt"), filepath.Join(dir, "dest.txt")); err == nil {
		t.Fatal("expected error linking a nonexistent source")
	}
}
