package curator

import (
	"context"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslans/NGA-opendata/internal/domain/repository"
	apperrors "github.com/dslans/NGA-opendata/pkg/errors"
)

// fakeSearchRepo 记录收到的查询并按调用序号返回脚本化结果
type fakeSearchRepo struct {
	mu      sync.Mutex
	queries []repository.SearchQuery
	rows    []*repository.ResultRow
	errs    []error
}

func (f *fakeSearchRepo) Search(_ context.Context, q repository.SearchQuery) ([]*repository.ResultRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.queries)
	f.queries = append(f.queries, q)
	if call < len(f.errs) && f.errs[call] != nil {
		return nil, f.errs[call]
	}
	return f.rows, nil
}

func (f *fakeSearchRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func sampleRows() []*repository.ResultRow {
	return []*repository.ResultRow{
		{
			ObjectID:       1138,
			Title:          "The Japanese Footbridge",
			BeginYear:      intPtr(1899),
			Classification: "Painting",
			Artist:         strPtr("Claude Monet"),
			IIIFURL:        "https://api.nga.gov/iiif/abc",
		},
		{
			ObjectID:       52064,
			Title:          "Seascape Study",
			BeginYear:      intPtr(1871),
			Classification: "Painting",
			Artist:         strPtr("Claude Monet"),
			IIIFURL:        "https://api.nga.gov/iiif/def",
		},
	}
}

func newTestSearchService(repo repository.ArtworkSearchRepository, factory *fakeModelFactory) *SearchService {
	cfg := testCuratorConfig()
	return NewSearchService(cfg, repo, newTestKeywordService(cfg, factory), nil)
}

func TestSearchService_SearchByKeywords(t *testing.T) {
	t.Run("normalizes keywords scope and limit", func(t *testing.T) {
		repo := &fakeSearchRepo{rows: sampleRows()}
		svc := newTestSearchService(repo, &fakeModelFactory{})

		result, err := svc.SearchByKeywords(context.Background(), &SearchInput{
			Keywords: []string{"  Monet ", "", "SEASCAPES"},
		})
		require.NoError(t, err)

		require.Equal(t, 1, repo.callCount())
		query := repo.queries[0]
		assert.Equal(t, []string{"monet", "seascapes"}, query.Keywords)
		assert.Equal(t, repository.ScopeComprehensive, query.Scope)
		assert.Equal(t, 10, query.Limit)
		assert.Len(t, result.Rows, 2)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		tests := []struct {
			name string
			in   *SearchInput
		}{
			{name: "nil input", in: nil},
			{name: "no keywords", in: &SearchInput{Keywords: nil}},
			{name: "blank keywords", in: &SearchInput{Keywords: []string{"  ", ""}}},
			{name: "unknown scope", in: &SearchInput{Keywords: []string{"monet"}, Scope: "fuzzy"}},
			{name: "negative limit", in: &SearchInput{Keywords: []string{"monet"}, Limit: -3}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := &fakeSearchRepo{}
				svc := newTestSearchService(repo, &fakeModelFactory{})

				_, err := svc.SearchByKeywords(context.Background(), tt.in)
				require.Error(t, err)
				assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
				assert.Zero(t, repo.callCount())
			})
		}
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		repo := &fakeSearchRepo{rows: []*repository.ResultRow{}}
		svc := newTestSearchService(repo, &fakeModelFactory{})

		result, err := svc.SearchByKeywords(context.Background(), &SearchInput{
			Keywords: []string{"xyzzy"},
		})
		require.NoError(t, err)
		assert.Empty(t, result.Rows)
		assert.Equal(t, 0, result.Stats.TotalResults)
	})

	t.Run("retries transient database errors", func(t *testing.T) {
		repo := &fakeSearchRepo{
			rows: sampleRows(),
			errs: []error{driver.ErrBadConn, nil},
		}
		svc := newTestSearchService(repo, &fakeModelFactory{})

		result, err := svc.SearchByKeywords(context.Background(), &SearchInput{
			Keywords: []string{"monet"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, repo.callCount())
		assert.Len(t, result.Rows, 2)
	})

	t.Run("does not retry query errors", func(t *testing.T) {
		repo := &fakeSearchRepo{
			errs: []error{errors.New("syntax error near SELECT")},
		}
		svc := newTestSearchService(repo, &fakeModelFactory{})

		_, err := svc.SearchByKeywords(context.Background(), &SearchInput{
			Keywords: []string{"monet"},
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeRetrievalFailed, apperrors.AsAppError(err).Code)
		assert.Equal(t, 1, repo.callCount())
	})
}

func TestSearchService_SearchByTheme(t *testing.T) {
	t.Run("extracted keywords drive the search", func(t *testing.T) {
		repo := &fakeSearchRepo{rows: sampleRows()}
		chat := &fakeChatModel{generate: func(_ int, _ []*schema.Message) (*schema.Message, error) {
			return textResponse("Storms, Seascapes"), nil
		}}
		svc := newTestSearchService(repo, &fakeModelFactory{model: chat})

		result, err := svc.SearchByTheme(context.Background(), &ThemeSearchInput{
			Theme: "Stormy coastal scenes",
		})
		require.NoError(t, err)
		assert.Equal(t, KeywordSourceLLM, result.KeywordSource)
		assert.Equal(t, []string{"storms", "seascapes"}, result.Keywords)
		require.NotNil(t, result.Usage)
		require.Equal(t, 1, repo.callCount())
		assert.Equal(t, []string{"storms", "seascapes"}, repo.queries[0].Keywords)
	})

	t.Run("falls back to raw theme when extraction fails", func(t *testing.T) {
		repo := &fakeSearchRepo{rows: sampleRows()}
		svc := newTestSearchService(repo, &fakeModelFactory{err: errors.New("invalid api key")})

		result, err := svc.SearchByTheme(context.Background(), &ThemeSearchInput{
			Theme: "Stormy Coastal Scenes",
		})
		require.NoError(t, err)
		assert.Equal(t, KeywordSourceFallback, result.KeywordSource)
		assert.Equal(t, []string{"stormy coastal scenes"}, result.Keywords)
		assert.Nil(t, result.Usage)
		require.Equal(t, 1, repo.callCount())
		assert.Equal(t, []string{"stormy coastal scenes"}, repo.queries[0].Keywords)
	})

	t.Run("empty theme is invalid, not a fallback", func(t *testing.T) {
		repo := &fakeSearchRepo{}
		svc := newTestSearchService(repo, &fakeModelFactory{})

		_, err := svc.SearchByTheme(context.Background(), &ThemeSearchInput{Theme: "  "})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
		assert.Zero(t, repo.callCount())
	})

	t.Run("search failure surfaces after fallback", func(t *testing.T) {
		repo := &fakeSearchRepo{errs: []error{errors.New("relation does not exist")}}
		svc := newTestSearchService(repo, &fakeModelFactory{err: errors.New("invalid api key")})

		_, err := svc.SearchByTheme(context.Background(), &ThemeSearchInput{Theme: "gardens"})
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeRetrievalFailed, apperrors.AsAppError(err).Code)
	})
}

func TestComputeResultStats(t *testing.T) {
	rows := []*repository.ResultRow{
		{ObjectID: 1, Classification: "Painting", Artist: strPtr("Claude Monet"), BeginYear: intPtr(1899)},
		{ObjectID: 2, Classification: "Painting", Artist: strPtr("Claude Monet"), BeginYear: intPtr(1871)},
		{ObjectID: 3, Classification: "Drawing", Artist: strPtr("Edgar Degas"), BeginYear: intPtr(1904)},
		{ObjectID: 4},
		nil,
	}

	stats := ComputeResultStats(rows)
	assert.Equal(t, 5, stats.TotalResults)
	assert.Equal(t, 2, stats.DistinctArtists)
	assert.Equal(t, map[string]int{"Painting": 2, "Drawing": 1}, stats.Classifications)
	require.NotNil(t, stats.EarliestYear)
	require.NotNil(t, stats.LatestYear)
	assert.Equal(t, 1871, *stats.EarliestYear)
	assert.Equal(t, 1904, *stats.LatestYear)
}

func TestComputeResultStats_Empty(t *testing.T) {
	stats := ComputeResultStats(nil)
	assert.Equal(t, 0, stats.TotalResults)
	assert.Equal(t, 0, stats.DistinctArtists)
	assert.Nil(t, stats.EarliestYear)
	assert.Nil(t, stats.LatestYear)
}

func TestIsTransientDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
	}{
		{name: "nil", err: nil, transient: false},
		{name: "canceled", err: context.Canceled, transient: false},
		{name: "deadline", err: context.DeadlineExceeded, transient: true},
		{name: "bad conn", err: driver.ErrBadConn, transient: true},
		{name: "connection failure class", err: &pq.Error{Code: "08006"}, transient: true},
		{name: "insufficient resources class", err: &pq.Error{Code: "53300"}, transient: true},
		{name: "admin shutdown class", err: &pq.Error{Code: "57P01"}, transient: true},
		{name: "syntax error class", err: &pq.Error{Code: "42601"}, transient: false},
		{name: "plain error", err: errors.New("boom"), transient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.transient, isTransientDBError(tt.err))
		})
	}
}
