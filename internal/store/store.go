// Package store caches parsed aggregates in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/tally/internal/aggregate"
	"github.com/verte-zerg/tally/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Extension is appended to the input's base name to build the cache file name.
const Extension = ".db"

// ErrNoCache is returned by Load when the cache holds no aggregate yet.
var ErrNoCache = errors.New("no cached aggregate")

// Meta describes the aggregate stored in a cache file.
type Meta struct {
	Source    string
	WrittenAt time.Time
	Entries   int
	Accepted  int
	Discarded int
}

// Store wraps one SQLite cache file.
type Store struct {
	db *sql.DB
}

// PathFor returns the cache file for input inside dir: the input's base name
// with its extension replaced by Extension.
func PathFor(dir, input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+Extension)
}

// Exists reports whether a cache file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Open opens or creates the cache database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS durations (
			day TEXT NOT NULL,
			identity TEXT NOT NULL,
			seconds INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			PRIMARY KEY (day, identity)
		);`,
		`CREATE TABLE IF NOT EXISTS meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			source TEXT NOT NULL,
			written_at TEXT NOT NULL,
			entries INTEGER NOT NULL,
			accepted INTEGER NOT NULL,
			discarded INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_durations_seq ON durations(seq);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save replaces the cached aggregate in a single transaction.
func (s *Store) Save(ctx context.Context, agg *aggregate.Aggregate, meta Meta) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, stmt := range []string{`DELETE FROM durations`, `DELETE FROM meta`} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO durations (day, identity, seconds, seq) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	entries := agg.Entries()
	for i, e := range entries {
		if _, err = stmt.ExecContext(ctx, e.Date.String(), e.Identity, int64(e.Duration/time.Second), i); err != nil {
			return err
		}
	}

	writtenAt := meta.WrittenAt
	if writtenAt.IsZero() {
		writtenAt = time.Now()
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO meta (id, source, written_at, entries, accepted, discarded) VALUES (1, ?, ?, ?, ?, ?)`,
		meta.Source,
		writtenAt.Format(time.RFC3339Nano),
		len(entries),
		meta.Accepted,
		meta.Discarded,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// Load rebuilds the cached aggregate, preserving identity order within each date.
func (s *Store) Load(ctx context.Context) (*aggregate.Aggregate, error) {
	if _, err := s.Meta(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT day, identity, seconds FROM durations ORDER BY seq ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	agg := aggregate.New()
	for rows.Next() {
		var day, identity string
		var seconds int64
		if err := rows.Scan(&day, &identity, &seconds); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(model.DateLayout, day)
		if err != nil {
			return nil, fmt.Errorf("bad cached date %q: %w", day, err)
		}
		agg.Set(model.DateOf(parsed), identity, time.Duration(seconds)*time.Second)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return agg, nil
}

// Meta returns the description of the cached aggregate, or ErrNoCache.
func (s *Store) Meta(ctx context.Context) (Meta, error) {
	var meta Meta
	var writtenAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT source, written_at, entries, accepted, discarded FROM meta WHERE id = 1`,
	).Scan(&meta.Source, &writtenAt, &meta.Entries, &meta.Accepted, &meta.Discarded)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, ErrNoCache
	}
	if err != nil {
		return Meta{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, writtenAt)
	if err != nil {
		return Meta{}, err
	}
	meta.WrittenAt = parsed
	return meta, nil
}
