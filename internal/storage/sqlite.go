package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/IshaanNene/briefbot/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	source     TEXT NOT NULL,
	title      TEXT NOT NULL,
	author     TEXT,
	url        TEXT NOT NULL,
	body       TEXT NOT NULL,
	extra      TEXT,
	scraped_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS records_run ON records(run_id);
CREATE INDEX IF NOT EXISTS records_url ON records(url);
`

// SQLiteStorage archives records in a local SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	count  int
	logger *slog.Logger
}

// NewSQLiteStorage opens or creates the database at path. ":memory:" keeps
// the archive in memory.
func NewSQLiteStorage(path string, logger *slog.Logger) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &types.StorageError{Backend: "sqlite", Err: err}
	}
	// one connection so ":memory:" is a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &types.StorageError{Backend: "sqlite", Err: fmt.Errorf("schema: %w", err)}
	}

	return &SQLiteStorage{db: db, logger: logger.With("component", "sqlite_storage")}, nil
}

func (s *SQLiteStorage) Name() string { return "sqlite" }

// Store inserts the records of one run in a single transaction.
func (s *SQLiteStorage) Store(runID string, records []*types.Record) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records
		(run_id, source, title, author, url, body, extra, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer stmt.Close()

	for _, rec := range records {
		extra, err := json.Marshal(rec.Extra)
		if err != nil {
			return &types.StorageError{Backend: s.Name(), Err: err}
		}
		if _, err := stmt.ExecContext(ctx,
			runID, rec.Source, rec.Title, rec.Author, rec.URL, rec.Body, string(extra), rec.ScrapedAt.Unix(),
		); err != nil {
			return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("insert %s: %w", rec.URL, err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: err}
	}

	s.count += len(records)
	s.logger.Debug("records stored in sqlite", "count", len(records), "total", s.count)
	return nil
}

// Records returns the archived records of a run in insertion order.
func (s *SQLiteStorage) Records(ctx context.Context, runID string) ([]*types.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, title, author, url, body, extra, scraped_at
		FROM records WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Err: err}
	}
	defer rows.Close()

	var out []*types.Record
	for rows.Next() {
		var (
			rec     types.Record
			author  sql.NullString
			extra   sql.NullString
			scraped int64
		)
		if err := rows.Scan(&rec.Source, &rec.Title, &author, &rec.URL, &rec.Body, &extra, &scraped); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Err: err}
		}
		rec.Author = author.String
		rec.Extra = make(map[string]string)
		if extra.Valid && extra.String != "" {
			if err := json.Unmarshal([]byte(extra.String), &rec.Extra); err != nil {
				return nil, &types.StorageError{Backend: s.Name(), Err: err}
			}
		}
		rec.Excerpt = types.Excerpt(rec.Body, types.ExcerptLength)
		rec.ScrapedAt = time.Unix(scraped, 0)
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStorage) Close() error {
	s.logger.Info("sqlite storage closing", "total_records", s.count)
	return s.db.Close()
}
