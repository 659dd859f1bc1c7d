package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/chomenor/mapbundle/internal/manifest"
)

func TestSummarizeCountsBytesAndBspEntries(t *testing.T) {
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, "bsp_q3dm1.pk3"), []byte("1234567"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "mapinfo.pk3"), []byte("123"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	totalBytes, mapCount := summarize(dataDir)
	if totalBytes != 10 {
		t.Fatalf("expected 10 total bytes, got %d", totalBytes)
	}
	if mapCount != 1 {
		t.Fatalf("expected 1 map counted, got %d", mapCount)
	}
}

func TestSummarizeEmptyDirectory(t *testing.T) {
	totalBytes, mapCount := summarize(filepath.Join(t.TempDir(), "missing"))
	if totalBytes != 0 || mapCount != 0 {
		t.Fatalf("expected zero counts for missing dir, got bytes=%d maps=%d", totalBytes, mapCount)
	}
}

func TestLoadFragmentsLoadsLocalFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fragment.json")
	if err := os.WriteFile(path, []byte(`{"resource_urls":["http://example.com"]}`), 0o644); err != nil {
		t.Fatalf("write fragment: %v", err)
	}

	man := manifest.New()
	if err := loadFragments(man, []string{path}, nil, "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !man.ResourceURLs["http://example.com"] {
		t.Fatalf("expected resource url imported, got %+v", man.ResourceURLs)
	}
}

func TestLoadFragmentsSkipsFailingRemoteFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	man := manifest.New()
	if err := loadFragments(man, nil, []string{srv.URL + "/fragment.json"}, "", ""); err != nil {
		t.Fatalf("expected remote fetch failures to be tolerated, got %v", err)
	}
}

func TestLoadFragmentsImportsRemoteFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"resource_urls":["http://example.com/remote"]}`))
	}))
	defer srv.Close()

	man := manifest.New()
	if err := loadFragments(man, nil, []string{srv.URL + "/fragment.json"}, "", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !man.ResourceURLs["http://example.com/remote"] {
		t.Fatalf("expected remote resource url imported, got %+v", man.ResourceURLs)
	}
}

func TestLoadFragmentsPropagatesLocalLoadError(t *testing.T) {
	man := manifest.New()
	err := loadFragments(man, []string{filepath.Join(t.TempDir(), "missing.json")}, nil, "", "")
	if err == nil {
		t.Fatal("expected error for missing local fragment file")
	}
}
