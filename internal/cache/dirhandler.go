// Package cache implements the on-disk cache/resource layout shared between
// the export orchestrator and a standalone prefetch run: directory path
// resolution, hash-addressed resource acquisition (local directories, then
// cache, then an HTTP downloader), a SQLite accelerant index over that
// layout, and the bsp/aas single-entry pk3 writer.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// DirectoryHandler resolves paths relative to a root directory, creating
// parent directories on demand for writes.
type DirectoryHandler struct {
	Path string

	mu          sync.Mutex
	createdDirs map[string]bool
}

// NewDirectoryHandler returns a handler rooted at path.
func NewDirectoryHandler(path string) *DirectoryHandler {
	return &DirectoryHandler{Path: path, createdDirs: make(map[string]bool)}
}

// GetReadPath converts relPath to a full path without creating anything.
func (d *DirectoryHandler) GetReadPath(relPath string) string {
	return filepath.Join(d.Path, relPath)
}

// ReadJSON reads and decodes a JSON file at relPath, returning ok=false if
// the file is missing or malformed rather than an error — callers treat a
// missing cache entry as "not cached yet", not a failure.
func (d *DirectoryHandler) ReadJSON(relPath string, out interface{}) bool {
	data, err := os.ReadFile(d.GetReadPath(relPath))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false
	}
	return true
}

// GetWritePath converts relPath to a full path, creating its parent
// directory the first time it's requested.
func (d *DirectoryHandler) GetWritePath(relPath string) string {
	fullPath := filepath.Join(d.Path, relPath)

	d.mu.Lock()
	defer d.mu.Unlock()
	relDir := filepath.Dir(relPath)
	if !d.createdDirs[relDir] {
		os.MkdirAll(filepath.Dir(fullPath), 0o755)
		d.createdDirs[relDir] = true
	}

	return fullPath
}

// WriteJSON encodes data as JSON and writes it to relPath.
func (d *DirectoryHandler) WriteJSON(relPath string, data interface{}) error {
	encoded, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(d.GetWritePath(relPath), encoded, 0o644)
}

// GetSubdir returns a handler for a subdirectory of this one.
func (d *DirectoryHandler) GetSubdir(relPath string) *DirectoryHandler {
	return NewDirectoryHandler(filepath.Join(d.Path, relPath))
}
