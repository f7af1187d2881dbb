// Package cache persists per-document render state in SQLite so
// unchanged pages can be skipped on later runs and pages for removed
// handles can be pruned from the output directory.
package cache

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache is the SQLite layer tracking rendered artifacts between runs.
type Cache struct {
	db *sql.DB
}

// Artifact is one cached render record. DocHash covers the document's
// semantic fields, OutputHash the rendered bytes.
type Artifact struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	FileName   string    `json:"fileName"`
	DocHash    string    `json:"docHash"`
	OutputHash string    `json:"outputHash"`
	RenderedAt time.Time `json:"renderedAt"`
}

// Open opens the cache database at dbPath with WAL mode enabled,
// creating the schema when missing.
func Open(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache database: %w", err)
	}
	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// migrate creates the tables. Idempotent.
func (c *Cache) migrate() error {
	if _, err := c.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate cache: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS artifacts (
  id           TEXT PRIMARY KEY,
  name         TEXT NOT NULL,
  file_name    TEXT NOT NULL UNIQUE,
  doc_hash     TEXT NOT NULL,
  output_hash  TEXT NOT NULL,
  rendered_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key          TEXT PRIMARY KEY,
  value        TEXT NOT NULL
);
`

const artifactCols = "id, name, file_name, doc_hash, output_hash, rendered_at"

// Artifact returns the cached record for id, or nil when absent.
func (c *Cache) Artifact(id string) (*Artifact, error) {
	a := &Artifact{}
	err := c.db.QueryRow(
		"SELECT "+artifactCols+" FROM artifacts WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &a.FileName, &a.DocHash, &a.OutputHash, &a.RenderedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("artifact by id: %w", err)
	}
	return a, nil
}

// Artifacts returns all cached records ordered by id.
func (c *Cache) Artifacts() ([]*Artifact, error) {
	return c.queryArtifacts("SELECT " + artifactCols + " FROM artifacts ORDER BY id")
}

// ArtifactsByPrefix returns cached records whose id starts with
// prefix, ordered by id.
func (c *Cache) ArtifactsByPrefix(prefix string) ([]*Artifact, error) {
	return c.queryArtifacts(
		"SELECT "+artifactCols+" FROM artifacts WHERE id LIKE ? ESCAPE '\\' ORDER BY id",
		escapeLike(prefix)+"%",
	)
}

func (c *Cache) queryArtifacts(query string, args ...any) ([]*Artifact, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()
	var artifacts []*Artifact
	for rows.Next() {
		a := &Artifact{}
		if err := rows.Scan(&a.ID, &a.Name, &a.FileName, &a.DocHash, &a.OutputHash, &a.RenderedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// ReplaceAll makes the cache reflect exactly rows in one transaction
// and returns the file names of records that were dropped, so callers
// can prune the output directory. The stored set is replaced wholesale
// rather than diffed, which keeps the file_name uniqueness constraint
// out of the way when names move between ids across runs.
func (c *Cache) ReplaceAll(rows []*Artifact) ([]string, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	keep := make([]any, 0, len(rows))
	for _, a := range rows {
		keep = append(keep, a.ID)
	}

	query := "SELECT file_name FROM artifacts"
	if len(keep) > 0 {
		query += " WHERE id NOT IN (" + placeholderList(len(keep)) + ")"
	}
	prunedRows, err := tx.Query(query, keep...)
	if err != nil {
		return nil, fmt.Errorf("query pruned artifacts: %w", err)
	}
	var pruned []string
	for prunedRows.Next() {
		var name string
		if err := prunedRows.Scan(&name); err != nil {
			prunedRows.Close()
			return nil, fmt.Errorf("scan pruned file name: %w", err)
		}
		pruned = append(pruned, name)
	}
	prunedRows.Close()
	if err := prunedRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pruned artifacts: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM artifacts"); err != nil {
		return nil, fmt.Errorf("clear artifacts: %w", err)
	}
	for _, a := range rows {
		if _, err := tx.Exec(
			"INSERT INTO artifacts ("+artifactCols+") VALUES (?, ?, ?, ?, ?, ?)",
			a.ID, a.Name, a.FileName, a.DocHash, a.OutputHash, a.RenderedAt,
		); err != nil {
			return nil, fmt.Errorf("insert artifact %s: %w", a.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return pruned, nil
}

// GetMetadata returns the value stored under key, or "" when unset.
func (c *Cache) GetMetadata(key string) (string, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (c *Cache) SetMetadata(key, value string) error {
	_, err := c.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// Clear removes every cached artifact and metadata row.
func (c *Cache) Clear() error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	for _, q := range []string{"DELETE FROM artifacts", "DELETE FROM metadata"} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}
	return tx.Commit()
}

// Count returns the number of cached artifacts.
func (c *Cache) Count() (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM artifacts").Scan(&n); err != nil {
		return 0, fmt.Errorf("count artifacts: %w", err)
	}
	return n, nil
}

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// escapeLike escapes SQL LIKE special characters (% and _) with backslash.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
