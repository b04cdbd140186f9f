package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

type fakeStatsRepo struct {
	stats *repository.CollectionStats
	err   error
}

func (f *fakeStatsRepo) GetCollectionStats(_ context.Context) (*repository.CollectionStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func TestValidator_Run(t *testing.T) {
	catalog := &fakeCatalogRepo{
		issues: []*repository.IntegrityIssue{
			{Check: "objects_constituents_orphans", Description: "relations pointing at missing objects", Count: 0},
			{Check: "published_images_orphans", Description: "images pointing at missing objects", Count: 0},
		},
		roleTypes: []*repository.RoleTypeCount{
			{RoleType: "artist", Count: 160000},
			{RoleType: "donor", Count: 41000},
		},
	}
	stats := &fakeStatsRepo{stats: &repository.CollectionStats{
		TotalObjects:       130000,
		AccessionedObjects: 128000,
		ObjectsWithImage:   95000,
		ObjectsWithArtist:  120000,
		DistinctArtists:    12000,
	}}

	report, err := NewValidator(catalog, stats).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Issues, 2)
	assert.Len(t, report.RoleTypes, 2)
	assert.Equal(t, int64(33000), report.AccessionedWithoutImage)
	assert.Equal(t, int64(10000), report.ObjectsWithoutArtist)
	assert.False(t, report.HasViolations())
}

func TestValidator_Run_IntegrityCheckError(t *testing.T) {
	catalog := &fakeCatalogRepo{integrityErr: errors.New("relation objects does not exist")}
	stats := &fakeStatsRepo{stats: &repository.CollectionStats{}}

	_, err := NewValidator(catalog, stats).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run integrity checks")
}

func TestValidationReport_HasViolations(t *testing.T) {
	tests := []struct {
		name   string
		issues []*repository.IntegrityIssue
		want   bool
	}{
		{
			name: "all checks clean",
			issues: []*repository.IntegrityIssue{
				{Check: "objects_constituents_orphans", Count: 0},
			},
			want: false,
		},
		{
			name:   "no checks ran",
			issues: nil,
			want:   false,
		},
		{
			name: "orphan rows detected",
			issues: []*repository.IntegrityIssue{
				{Check: "objects_constituents_orphans", Count: 0},
				{Check: "objects_terms_orphans", Count: 37},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &ValidationReport{Issues: tt.issues}
			assert.Equal(t, tt.want, report.HasViolations())
		})
	}
}
