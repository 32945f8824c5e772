package storage

import (
	"context"
	"time"
)

// FetchRecord is one entry of the fetch history.
type FetchRecord struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	FilePath  string    `json:"file_path"`
	Outcome   string    `json:"outcome"`
	Status    string    `json:"status"`
	Bytes     int64     `json:"bytes"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FetchRepository persists the fetch history.
type FetchRepository interface {
	RecordFetch(ctx context.Context, rec FetchRecord) error
	GetFetches(ctx context.Context, limit int) ([]FetchRecord, error)
	// GetSavedFetches returns the latest saved record per file path.
	GetSavedFetches(ctx context.Context) ([]FetchRecord, error)
}
