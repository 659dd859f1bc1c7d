package cache

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileImporterPrefersLocalDirectoryOverCache(t *testing.T) {
	localRoot := t.TempDir()
	cacheRoot := t.TempDir()

	if err := os.WriteFile(filepath.Join(localRoot, "deadbeef"), []byte("local"), 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cacheRoot, "deadbeef"), []byte("cached"), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	importer := NewFileImporter(NewDirectoryHandler(cacheRoot), nil)
	importer.LocalDirectories = append(importer.LocalDirectories, NewDirectoryHandler(localRoot))

	data, err := importer.GetData("deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "local" {
		t.Fatalf("expected local directory to win, got %q", data)
	}
}

func TestFileImporterFallsBackToCache(t *testing.T) {
	cacheRoot := t.TempDir()
	if err := os.WriteFile(filepath.Join(cacheRoot, "deadbeef"), []byte("cached"), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	importer := NewFileImporter(NewDirectoryHandler(cacheRoot), nil)
	data, err := importer.GetData("deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "cached" {
		t.Fatalf("expected cache content, got %q", data)
	}
}

func TestFileImporterErrorsWhenUnavailable(t *testing.T) {
	importer := NewFileImporter(NewDirectoryHandler(t.TempDir()), nil)
	if _, err := importer.GetData("deadbeef"); err == nil {
		t.Fatal("expected error when resource cannot be found or downloaded")
	}
}

func TestFileImporterRecordsAndConsultsIndex(t *testing.T) {
	cacheRoot := t.TempDir()
	cachePath := filepath.Join(cacheRoot, "deadbeef")
	if err := os.WriteFile(cachePath, []byte("cached"), 0o644); err != nil {
		t.Fatalf("write cache: %v", err)
	}

	idx, err := OpenCacheIndex(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	importer := NewFileImporter(NewDirectoryHandler(cacheRoot), nil)
	importer.Index = idx

	if _, err := importer.GetPath("deadbeef"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path, ok := idx.LookupResource("deadbeef"); !ok || path != cachePath {
		t.Fatalf("expected acquisition recorded in index, got path=%q ok=%v", path, ok)
	}

	// Remove the on-disk file; the recorded index entry now points at a
	// removed path. GetPath must stat that path rather than trust it, fall
	// through to a fresh cache stat, and fail cleanly.
	if err := os.Remove(cachePath); err != nil {
		t.Fatalf("remove cache file: %v", err)
	}
	if _, err := importer.GetPath("deadbeef"); err == nil {
		t.Fatal("expected error once both index-recorded path and cache path are gone")
	}
}
