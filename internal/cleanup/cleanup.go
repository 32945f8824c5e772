package cleanup

import (
	"context"
	"os"
	"time"

	"github.com/italolelis/fetch_nodes/internal/logctx"
	"github.com/italolelis/fetch_nodes/internal/storage"
)

// DeleteExpiredFiles deletes fetched files saved more than keepDuration ago.
// A non-positive keepDuration disables deletion. It returns the number of files removed.
func DeleteExpiredFiles(ctx context.Context, records []storage.FetchRecord, keepDuration time.Duration) (int, error) {
	if keepDuration <= 0 {
		return 0, nil
	}

	logger := logctx.LoggerFromContext(ctx)
	now := time.Now()
	deleted := 0

	for _, rec := range records {
		info, err := os.Stat(rec.FilePath)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			logger.ErrorContext(ctx, "failed to stat file", "file", rec.FilePath, "err", err)

			return deleted, err
		}

		fetchedAt := rec.FetchedAt
		if fetchedAt.IsZero() {
			logger.WarnContext(ctx, "missing fetch time, using file mod time", "file", rec.FilePath)

			fetchedAt = info.ModTime()
		}

		if now.Sub(fetchedAt) <= keepDuration {
			continue
		}

		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			logger.ErrorContext(ctx, "failed to delete expired file", "file", rec.FilePath, "err", err)

			return deleted, err
		}

		deleted++

		logger.InfoContext(ctx, "deleted expired file", "file", rec.FilePath)
	}

	return deleted, nil
}
