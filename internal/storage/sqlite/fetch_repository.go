package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/italolelis/fetch_nodes/internal/storage"
)

const defaultFetchLimit = 100

type FetchRepository struct {
	db *sql.DB
}

func NewFetchRepository(dbConn *sql.DB) *FetchRepository {
	return &FetchRepository{db: dbConn}
}

func (r *FetchRepository) RecordFetch(ctx context.Context, rec storage.FetchRecord) error {
	if rec.FetchedAt.IsZero() {
		rec.FetchedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fetches (url, file_path, outcome, status, bytes, fetched_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.URL, rec.FilePath, rec.Outcome, rec.Status, rec.Bytes, rec.FetchedAt.UTC().Format(time.RFC3339Nano),
	)

	return err
}

// GetFetches returns the most recent fetches first. A non-positive limit falls back to 100.
func (r *FetchRepository) GetFetches(ctx context.Context, limit int) ([]storage.FetchRecord, error) {
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, url, file_path, outcome, status, bytes, fetched_at
		FROM fetches
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFetches(rows)
}

func (r *FetchRepository) GetSavedFetches(ctx context.Context) ([]storage.FetchRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, url, file_path, outcome, status, bytes, fetched_at
		FROM fetches
		WHERE id IN (
			SELECT MAX(id) FROM fetches WHERE outcome = 'saved' GROUP BY file_path
		)
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFetches(rows)
}

func scanFetches(rows *sql.Rows) ([]storage.FetchRecord, error) {
	var fetches []storage.FetchRecord

	for rows.Next() {
		var (
			record    storage.FetchRecord
			fetchedAt string
		)

		if err := rows.Scan(&record.ID, &record.URL, &record.FilePath, &record.Outcome, &record.Status, &record.Bytes, &fetchedAt); err != nil {
			return nil, err
		}

		t, err := time.Parse(time.RFC3339Nano, fetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fetched_at %q: %w", fetchedAt, err)
		}

		record.FetchedAt = t
		fetches = append(fetches, record)
	}

	return fetches, rows.Err()
}
