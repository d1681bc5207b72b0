package repository

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSearchLogRecordAndRecent(t *testing.T) {
	repo := NewSearchLogRepository(newTestDB(t), zerolog.Nop())
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, 5, "mode: Ranked", 3))
	require.NoError(t, repo.Record(ctx, 5, "no filters", 12))
	require.NoError(t, repo.Record(ctx, 9, "mode: Turbo", 0))

	records, err := repo.RecentByUser(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Equal(t, int64(5), rec.UserID)
		require.NotEmpty(t, rec.ID)
	}

	n, err := repo.CountSince(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Equal(t, 3, n)
}
