// Package store provides a SQLite-backed read cache of fetched uploads, so
// the CLI and TUI can render the last known state when the backend is slow
// or unreachable. Credentials are never written here; rows are keyed by
// identity name only.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/davrell/chemviz/internal/api"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Cache is a SQLite-backed cache of fetched history lists and details.
type Cache struct {
	db *sql.DB
}

// CachePath returns the default cache database location.
func CachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "chemviz", "cache.db")
}

// Open opens or creates the cache database at the given path.
func Open(dbPath string) (*Cache, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)")
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// SaveHistory replaces the cached history list for an identity.
func (c *Cache) SaveHistory(identity string, uploads []api.Upload) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM history WHERE identity = ?", identity); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, u := range uploads {
		summary, err := json.Marshal(u.Summary)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`INSERT INTO history
			(identity, position, upload_id, filename, summary_json, created_at, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			identity, i, u.ID, u.Filename, string(summary), u.CreatedAt, now,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LoadHistory returns the cached history list for an identity, oldest cache
// entry order preserved (position ascending, newest upload first).
func (c *Cache) LoadHistory(identity string) ([]api.Upload, error) {
	rows, err := c.db.Query(`SELECT upload_id, filename, summary_json, created_at
		FROM history WHERE identity = ? ORDER BY position`, identity)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []api.Upload
	for rows.Next() {
		var u api.Upload
		var summaryJSON string
		var createdAt sql.NullString
		if err := rows.Scan(&u.ID, &u.Filename, &summaryJSON, &createdAt); err != nil {
			return nil, err
		}
		if createdAt.Valid {
			u.CreatedAt = createdAt.String
		}
		_ = json.Unmarshal([]byte(summaryJSON), &u.Summary)
		out = append(out, u)
	}
	return out, rows.Err()
}

// SaveDetail stores a fetched detail snapshot for an upload.
func (c *Cache) SaveDetail(identity string, id int64, filename string, summary api.Summary, dataRows []api.Row) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	rowsJSON, err := json.Marshal(dataRows)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = c.db.Exec(`INSERT OR REPLACE INTO details
		(identity, upload_id, filename, summary_json, rows_json, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		identity, id, filename, string(summaryJSON), string(rowsJSON), now,
	)
	return err
}

// LoadDetail returns a cached detail snapshot, or ok=false when absent.
func (c *Cache) LoadDetail(identity string, id int64) (filename string, summary api.Summary, dataRows []api.Row, ok bool, err error) {
	var summaryJSON, rowsJSON string
	row := c.db.QueryRow(`SELECT filename, summary_json, rows_json
		FROM details WHERE identity = ? AND upload_id = ?`, identity, id)
	switch err = row.Scan(&filename, &summaryJSON, &rowsJSON); err {
	case nil:
	case sql.ErrNoRows:
		return "", api.Summary{}, nil, false, nil
	default:
		return "", api.Summary{}, nil, false, err
	}

	_ = json.Unmarshal([]byte(summaryJSON), &summary)
	_ = json.Unmarshal([]byte(rowsJSON), &dataRows)
	return filename, summary, dataRows, true, nil
}
