package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// CacheIndex is a SQLite accelerant over the cache directory: it records
// where a resource hash or pk3 sha256 was last found on disk, sparing a
// directory stat on every lookup. It is never authoritative — the on-disk
// layout in the cache directory always is — so a missing or corrupt index
// file just means every lookup falls through to that disk check instead.
type CacheIndex struct {
	db *sql.DB
}

// OpenCacheIndex opens (creating if needed) the SQLite index file at path.
func OpenCacheIndex(path string) (*CacheIndex, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS resources (
			hash TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			last_seen INTEGER NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create resources table: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS pk3_info (
			sha256 TEXT PRIMARY KEY,
			info_path TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create pk3_info table: %w", err)
	}
	return &CacheIndex{db: db}, nil
}

// Close releases the underlying database handle.
func (c *CacheIndex) Close() error {
	return c.db.Close()
}

// RecordResource notes that resHash was found at path just now.
func (c *CacheIndex) RecordResource(resHash, path string) error {
	_, err := c.db.Exec(
		`INSERT INTO resources(hash, path, last_seen) VALUES(?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET path=excluded.path, last_seen=excluded.last_seen`,
		resHash, path, time.Now().Unix())
	return err
}

// LookupResource returns the last-recorded path for resHash, if any.
func (c *CacheIndex) LookupResource(resHash string) (path string, ok bool) {
	row := c.db.QueryRow(`SELECT path FROM resources WHERE hash = ?`, resHash)
	if err := row.Scan(&path); err != nil {
		return "", false
	}
	return path, true
}

// RecordPk3Info notes where the cached pk3-info JSON for sha256 lives.
func (c *CacheIndex) RecordPk3Info(sha256, infoPath string) error {
	_, err := c.db.Exec(
		`INSERT INTO pk3_info(sha256, info_path) VALUES(?, ?)
		 ON CONFLICT(sha256) DO UPDATE SET info_path=excluded.info_path`,
		sha256, infoPath)
	return err
}

// LookupPk3Info returns the cached pk3-info JSON path for sha256, if any.
func (c *CacheIndex) LookupPk3Info(sha256 string) (infoPath string, ok bool) {
	row := c.db.QueryRow(`SELECT info_path FROM pk3_info WHERE sha256 = ?`, sha256)
	if err := row.Scan(&infoPath); err != nil {
		return "", false
	}
	return infoPath, true
}
