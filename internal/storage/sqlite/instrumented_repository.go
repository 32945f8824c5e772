package sqlite

import (
	"context"
	"database/sql"

	"github.com/italolelis/fetch_nodes/internal/storage"
	"github.com/italolelis/fetch_nodes/internal/telemetry"
)

// InstrumentedFetchRepository wraps FetchRepository with telemetry.
type InstrumentedFetchRepository struct {
	repo      *FetchRepository
	telemetry *telemetry.Telemetry
}

// NewInstrumentedFetchRepository creates a new instrumented fetch repository.
func NewInstrumentedFetchRepository(dbConn *sql.DB, tel *telemetry.Telemetry) *InstrumentedFetchRepository {
	return &InstrumentedFetchRepository{
		repo:      NewFetchRepository(dbConn),
		telemetry: tel,
	}
}

func (r *InstrumentedFetchRepository) RecordFetch(ctx context.Context, rec storage.FetchRecord) error {
	return r.telemetry.InstrumentDBOperation(ctx, "record_fetch", func(ctx context.Context) error {
		return r.repo.RecordFetch(ctx, rec)
	})
}

func (r *InstrumentedFetchRepository) GetFetches(ctx context.Context, limit int) ([]storage.FetchRecord, error) {
	var result []storage.FetchRecord

	err := r.telemetry.InstrumentDBOperation(ctx, "get_fetches", func(ctx context.Context) error {
		var err error
		result, err = r.repo.GetFetches(ctx, limit)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *InstrumentedFetchRepository) GetSavedFetches(ctx context.Context) ([]storage.FetchRecord, error) {
	var result []storage.FetchRecord

	err := r.telemetry.InstrumentDBOperation(ctx, "get_saved_fetches", func(ctx context.Context) error {
		var err error
		result, err = r.repo.GetSavedFetches(ctx)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
