package curator

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslans/NGA-opendata/internal/domain/entity"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	apperrors "github.com/dslans/NGA-opendata/pkg/errors"
)

type fakeDetailRepo struct {
	objects     map[int64]*entity.ArtObject
	provenance  map[int64][]*repository.ProvenanceEntry
	textEntries map[int64][]*entity.TextEntry
	related     map[int64][]*repository.RelatedArtwork

	relatedLimit int

	// provenanceErrs 按调用顺序消费，用尽后返回正常数据
	provenanceErrs  []error
	provenanceCalls int
}

func (f *fakeDetailRepo) GetByID(_ context.Context, objectID int64) (*entity.ArtObject, error) {
	return f.objects[objectID], nil
}

func (f *fakeDetailRepo) GetProvenance(_ context.Context, objectID int64) ([]*repository.ProvenanceEntry, error) {
	f.provenanceCalls++
	if len(f.provenanceErrs) > 0 {
		err := f.provenanceErrs[0]
		f.provenanceErrs = f.provenanceErrs[1:]
		return nil, err
	}
	return f.provenance[objectID], nil
}

func (f *fakeDetailRepo) GetTextEntries(_ context.Context, objectID int64) ([]*entity.TextEntry, error) {
	return f.textEntries[objectID], nil
}

func (f *fakeDetailRepo) GetRelatedArtworks(_ context.Context, objectID int64, limit int) ([]*repository.RelatedArtwork, error) {
	f.relatedLimit = limit
	return f.related[objectID], nil
}

func newFakeDetailRepo() *fakeDetailRepo {
	return &fakeDetailRepo{
		objects: map[int64]*entity.ArtObject{
			1138: {ObjectID: 1138, Title: "The Japanese Footbridge", Accessioned: true},
		},
		provenance: map[int64][]*repository.ProvenanceEntry{
			1138: {
				{RoleType: "owner", Name: "Private collection, Paris", DisplayOrder: intPtr(1)},
				{RoleType: "donor", Name: "Victoria Nebeker Coberly", DisplayOrder: intPtr(2)},
			},
		},
		textEntries: map[int64][]*entity.TextEntry{
			1138: {
				{ObjectID: 1138, TextType: "bibliography", Text: "Monet catalog raisonne", Year: "1974"},
			},
		},
		related: map[int64][]*repository.RelatedArtwork{
			1138: {
				{ObjectID: 52064, Title: "Seascape Study", IIIFURL: "https://api.nga.gov/iiif/def"},
			},
		},
	}
}

func TestDetailService_GetArtwork(t *testing.T) {
	svc := NewDetailService(testCuratorConfig(), newFakeDetailRepo())

	t.Run("found", func(t *testing.T) {
		object, err := svc.GetArtwork(context.Background(), 1138)
		require.NoError(t, err)
		assert.Equal(t, "The Japanese Footbridge", object.Title)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetArtwork(context.Background(), 99999)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeObjectNotFound, apperrors.AsAppError(err).Code)
	})
}

func TestDetailService_GetProvenance(t *testing.T) {
	repo := newFakeDetailRepo()
	svc := NewDetailService(testCuratorConfig(), repo)

	entries, err := svc.GetProvenance(context.Background(), 1138)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "owner", entries[0].RoleType)
	assert.Equal(t, "donor", entries[1].RoleType)

	// 无来源记录不是错误
	entries, err = svc.GetProvenance(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDetailService_GetProvenance_Retry(t *testing.T) {
	t.Run("retries transient database errors", func(t *testing.T) {
		repo := newFakeDetailRepo()
		repo.provenanceErrs = []error{&pq.Error{Code: "08006"}}
		svc := NewDetailService(testCuratorConfig(), repo)

		entries, err := svc.GetProvenance(context.Background(), 1138)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, 2, repo.provenanceCalls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		repo := newFakeDetailRepo()
		repo.provenanceErrs = []error{
			errors.New("pq: relation objects_constituents does not exist"),
		}
		svc := NewDetailService(testCuratorConfig(), repo)

		_, err := svc.GetProvenance(context.Background(), 1138)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeRetrievalFailed, apperrors.AsAppError(err).Code)
		assert.Equal(t, 1, repo.provenanceCalls)
	})

	t.Run("exhausted retries surface the fault", func(t *testing.T) {
		repo := newFakeDetailRepo()
		repo.provenanceErrs = []error{
			&pq.Error{Code: "08006"},
			&pq.Error{Code: "08006"},
			&pq.Error{Code: "08006"},
		}
		svc := NewDetailService(testCuratorConfig(), repo)

		_, err := svc.GetProvenance(context.Background(), 1138)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeRetrievalFailed, apperrors.AsAppError(err).Code)
		assert.Equal(t, 3, repo.provenanceCalls)
	})
}

func TestDetailService_GetRelatedArtworks_CapsLimit(t *testing.T) {
	repo := newFakeDetailRepo()
	svc := NewDetailService(testCuratorConfig(), repo)

	related, err := svc.GetRelatedArtworks(context.Background(), 1138)
	require.NoError(t, err)
	assert.Len(t, related, 1)
	assert.Equal(t, 5, repo.relatedLimit)
}

func TestDetailService_GetArtworkDetails(t *testing.T) {
	t.Run("aggregates all sections", func(t *testing.T) {
		svc := NewDetailService(testCuratorConfig(), newFakeDetailRepo())

		details, err := svc.GetArtworkDetails(context.Background(), 1138)
		require.NoError(t, err)
		assert.Equal(t, int64(1138), details.Object.ObjectID)
		assert.Len(t, details.Provenance, 2)
		assert.Len(t, details.TextEntries, 1)
		assert.Len(t, details.Related, 1)
	})

	t.Run("missing object short circuits", func(t *testing.T) {
		svc := NewDetailService(testCuratorConfig(), newFakeDetailRepo())

		_, err := svc.GetArtworkDetails(context.Background(), 99999)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeObjectNotFound, apperrors.AsAppError(err).Code)
	})

	t.Run("sub query failure surfaces", func(t *testing.T) {
		repo := newFakeDetailRepo()
		repo.provenanceErrs = []error{errors.New("pq: permission denied for table objects_constituents")}
		svc := NewDetailService(testCuratorConfig(), repo)

		_, err := svc.GetArtworkDetails(context.Background(), 1138)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeRetrievalFailed, apperrors.AsAppError(err).Code)
	})
}
