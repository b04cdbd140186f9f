package curator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslans/NGA-opendata/internal/domain/repository"
	apperrors "github.com/dslans/NGA-opendata/pkg/errors"
)

type fakeStatsRepo struct {
	stats *repository.CollectionStats
	err   error
	calls int
}

func (f *fakeStatsRepo) GetCollectionStats(_ context.Context) (*repository.CollectionStats, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func TestStatsService_GetCollectionStats(t *testing.T) {
	t.Run("queries repository without cache", func(t *testing.T) {
		repo := &fakeStatsRepo{stats: &repository.CollectionStats{
			TotalObjects:       130000,
			AccessionedObjects: 128000,
			ObjectsWithImage:   95000,
			DistinctArtists:    12000,
			TopClassifications: []*repository.ClassificationCount{
				{Classification: "Print", Count: 60000},
			},
		}}
		svc := NewStatsService(testCuratorConfig(), repo, nil)

		stats, err := svc.GetCollectionStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(130000), stats.TotalObjects)
		assert.Equal(t, 1, repo.calls)
	})

	t.Run("wraps repository errors", func(t *testing.T) {
		repo := &fakeStatsRepo{err: errors.New("connection refused")}
		svc := NewStatsService(testCuratorConfig(), repo, nil)

		_, err := svc.GetCollectionStats(context.Background())
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeRetrievalFailed, apperrors.AsAppError(err).Code)
	})
}
