package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/italolelis/fetch_nodes/internal/storage"
	"github.com/italolelis/fetch_nodes/internal/telemetry"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) storage.FetchRepository {
	t.Helper()

	db, err := InitDB(filepath.Join(t.TempDir(), "fetches.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewInstrumentedFetchRepository(db, &telemetry.Telemetry{})
}

func TestRecordAndGetFetches(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.RecordFetch(ctx, storage.FetchRecord{
		URL: "https://example.com/a", FilePath: "/data/a", Outcome: "saved",
		Status: "File fetched and saved successfully", Bytes: 42, FetchedAt: at,
	}))
	require.NoError(t, repo.RecordFetch(ctx, storage.FetchRecord{
		URL: "https://example.com/b", FilePath: "/data/b", Outcome: "failed",
		Status: "Error: 404 Client Error: Not Found for url: https://example.com/b",
	}))

	fetches, err := repo.GetFetches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, fetches, 2)

	require.Equal(t, "https://example.com/b", fetches[0].URL)
	require.Equal(t, "failed", fetches[0].Outcome)
	require.False(t, fetches[0].FetchedAt.IsZero())

	require.Equal(t, "/data/a", fetches[1].FilePath)
	require.EqualValues(t, 42, fetches[1].Bytes)
	require.True(t, at.Equal(fetches[1].FetchedAt))

	limited, err := repo.GetFetches(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestGetSavedFetchesReturnsLatestPerPath(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)

	require.NoError(t, repo.RecordFetch(ctx, storage.FetchRecord{URL: "u", FilePath: "/data/a", Outcome: "saved", Status: "s", FetchedAt: first}))
	require.NoError(t, repo.RecordFetch(ctx, storage.FetchRecord{URL: "u", FilePath: "/data/a", Outcome: "saved", Status: "s", FetchedAt: second}))
	require.NoError(t, repo.RecordFetch(ctx, storage.FetchRecord{URL: "u", FilePath: "/data/a", Outcome: "exists", Status: "File already exists"}))
	require.NoError(t, repo.RecordFetch(ctx, storage.FetchRecord{URL: "u", FilePath: "/data/b", Outcome: "failed", Status: "Error: x"}))

	saved, err := repo.GetSavedFetches(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	require.Equal(t, "/data/a", saved[0].FilePath)
	require.True(t, second.Equal(saved[0].FetchedAt))
}
