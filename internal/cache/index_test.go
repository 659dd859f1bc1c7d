package cache

import (
	"path/filepath"
	"testing"
)

func TestCacheIndexRecordAndLookupResource(t *testing.T) {
	idx, err := OpenCacheIndex(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	if _, ok := idx.LookupResource("deadbeef"); ok {
		t.Fatal("expected no entry before recording")
	}

	if err := idx.RecordResource("deadbeef", "/cache/resources/deadbeef"); err != nil {
		t.Fatalf("record resource: %v", err)
	}

	path, ok := idx.LookupResource("deadbeef")
	if !ok || path != "/cache/resources/deadbeef" {
		t.Fatalf("expected recorded path, got %q ok=%v", path, ok)
	}
}

func TestCacheIndexRecordResourceUpsert(t *testing.T) {
	idx, err := OpenCacheIndex(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	idx.RecordResource("deadbeef", "/old/path")
	idx.RecordResource("deadbeef", "/new/path")

	path, ok := idx.LookupResource("deadbeef")
	if !ok || path != "/new/path" {
		t.Fatalf("expected upserted path, got %q ok=%v", path, ok)
	}
}

func TestCacheIndexPk3Info(t *testing.T) {
	idx, err := OpenCacheIndex(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	defer idx.Close()

	if err := idx.RecordPk3Info("abc123", "/cache/pk3info/abc123.json"); err != nil {
		t.Fatalf("record pk3 info: %v", err)
	}

	infoPath, ok := idx.LookupPk3Info("abc123")
	if !ok || infoPath != "/cache/pk3info/abc123.json" {
		t.Fatalf("expected recorded pk3 info path, got %q ok=%v", infoPath, ok)
	}
}
