// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kugiri/internal/models"
	"github.com/hyperjump/kugiri/internal/segment"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS deliveries (
		run_id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		doc_id TEXT,
		fingerprint TEXT,
		characters INTEGER NOT NULL,
		truncated INTEGER NOT NULL,
		total INTEGER NOT NULL,
		delivered INTEGER NOT NULL,
		hint_sent INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_deliveries_started_at ON deliveries(started_at);
	CREATE INDEX IF NOT EXISTS idx_deliveries_doc_id ON deliveries(doc_id);

	CREATE TABLE IF NOT EXISTS delivery_segments (
		run_id TEXT NOT NULL,
		segment_index INTEGER NOT NULL,
		total INTEGER NOT NULL,
		content TEXT NOT NULL,
		separator TEXT NOT NULL,
		target_length INTEGER NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		PRIMARY KEY (run_id, segment_index),
		FOREIGN KEY (run_id) REFERENCES deliveries(run_id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS fingerprints (
		doc_id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// RecordDelivery inserts a delivery and its segments in one transaction.
func (s *SQLiteStorage) RecordDelivery(ctx context.Context, d *models.Delivery, segments []segment.Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO deliveries (run_id, source, doc_id, fingerprint, characters, truncated, total,
		 delivered, hint_sent, status, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.RunID, d.Source, d.DocID, d.Fingerprint, d.Characters, d.Truncated, d.Total,
		d.Delivered, d.HintSent, d.Status, d.Error, d.StartedAt, d.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO delivery_segments (run_id, segment_index, total, content, separator,
		 target_length, start_offset, end_offset)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, seg := range segments {
		if _, err := stmt.ExecContext(ctx, d.RunID, seg.Index, seg.Total, seg.Content, seg.Separator,
			seg.TargetLength, seg.Start, seg.End); err != nil {
			return fmt.Errorf("insert segment %d: %w", seg.Index, err)
		}
	}
	return tx.Commit()
}

const deliveryColumns = `run_id, source, doc_id, fingerprint, characters, truncated, total,
	delivered, hint_sent, status, error, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDelivery(row rowScanner) (*models.Delivery, error) {
	var d models.Delivery
	var docID, fingerprint, errText sql.NullString
	if err := row.Scan(&d.RunID, &d.Source, &docID, &fingerprint, &d.Characters, &d.Truncated, &d.Total,
		&d.Delivered, &d.HintSent, &d.Status, &errText, &d.StartedAt, &d.FinishedAt); err != nil {
		return nil, err
	}
	d.DocID = docID.String
	d.Fingerprint = fingerprint.String
	d.Error = errText.String
	return &d, nil
}

// GetDelivery returns a delivery by run ID.
func (s *SQLiteStorage) GetDelivery(ctx context.Context, runID string) (*models.Delivery, error) {
	d, err := scanDelivery(s.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetSegments returns the segments of a delivery ordered by index.
func (s *SQLiteStorage) GetSegments(ctx context.Context, runID string) ([]segment.Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT segment_index, total, content, separator, target_length, start_offset, end_offset
		 FROM delivery_segments WHERE run_id = ? ORDER BY segment_index`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segs []segment.Segment
	for rows.Next() {
		var seg segment.Segment
		if err := rows.Scan(&seg.Index, &seg.Total, &seg.Content, &seg.Separator,
			&seg.TargetLength, &seg.Start, &seg.End); err != nil {
			return nil, err
		}
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}

// ListDeliveries returns deliveries newest first with offset and limit.
func (s *SQLiteStorage) ListDeliveries(ctx context.Context, offset, limit int) ([]*models.Delivery, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// GetFingerprint returns the fingerprint of the last delivered text of docID, or "".
func (s *SQLiteStorage) GetFingerprint(ctx context.Context, docID string) (string, error) {
	var fp string
	err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM fingerprints WHERE doc_id = ?`, docID).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return fp, err
}

// SetFingerprint stores the fingerprint of the text delivered for docID.
func (s *SQLiteStorage) SetFingerprint(ctx context.Context, docID, path, fingerprint string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fingerprints (doc_id, path, fingerprint, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET path = excluded.path, fingerprint = excluded.fingerprint,
		 updated_at = excluded.updated_at`,
		docID, path, fingerprint, time.Now(),
	)
	return err
}

// DeleteFingerprint removes the fingerprint of docID.
func (s *SQLiteStorage) DeleteFingerprint(ctx context.Context, docID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM fingerprints WHERE doc_id = ?`, docID)
	return err
}

// CountDeliveries returns the total number of recorded deliveries.
func (s *SQLiteStorage) CountDeliveries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM deliveries`).Scan(&count)
	return count, err
}

// SizeBytes returns the on-disk size of the database including its WAL files.
// Files that do not exist yet count as 0.
func (s *SQLiteStorage) SizeBytes() (int64, error) {
	var total int64
	for _, p := range []string{s.path, s.path + "-wal", s.path + "-shm"} {
		info, err := os.Stat(p)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += info.Size()
	}
	return total, nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
