package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDirectoryHandlerWriteJSONRoundTrip(t *testing.T) {
	dir := NewDirectoryHandler(t.TempDir())

	type payload struct {
		Name string `json:"name"`
	}
	if err := dir.WriteJSON("sub/info.json", payload{Name: "q3dm1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got payload
	if !dir.ReadJSON("sub/info.json", &got) {
		t.Fatal("expected to read back written json")
	}
	if got.Name != "q3dm1" {
		t.Fatalf("expected name preserved, got %q", got.Name)
	}
}

func TestDirectoryHandlerReadJSONMissingFile(t *testing.T) {
	dir := NewDirectoryHandler(t.TempDir())
	var out map[string]interface{}
	if dir.ReadJSON("nothere.json", &out) {
		t.Fatal("expected false for missing file, not an error")
	}
}

func TestDirectoryHandlerGetWritePathCreatesParent(t *testing.T) {
	root := t.TempDir()
	dir := NewDirectoryHandler(root)

	path := dir.GetWritePath("a/b/c.txt")
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Fatalf("expected parent directory created: %v", err)
	}
}

func TestDirectoryHandlerGetSubdir(t *testing.T) {
	root := t.TempDir()
	dir := NewDirectoryHandler(root)
	sub := dir.GetSubdir("cache")

	if sub.Path != filepath.Join(root, "cache") {
		t.Fatalf("expected subdir path joined, got %q", sub.Path)
	}
}
