package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslans/NGA-opendata/internal/application/curator"
	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/domain/entity"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	wfchain "github.com/dslans/NGA-opendata/internal/workflow/chain"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeChatModel 返回固定的关键词列表或固定错误
type fakeChatModel struct {
	content string
	err     error
}

func (m *fakeChatModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: m.content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 42, CompletionTokens: 7, TotalTokens: 49},
		},
	}, nil
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type fakeModelFactory struct {
	model model.BaseChatModel
	err   error
}

func (f *fakeModelFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

type fakeSearchRepo struct {
	mu      sync.Mutex
	queries []repository.SearchQuery
	rows    []*repository.ResultRow
	err     error
}

func (f *fakeSearchRepo) Search(_ context.Context, query repository.SearchQuery) ([]*repository.ResultRow, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeSearchRepo) lastQuery() (repository.SearchQuery, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queries) == 0 {
		return repository.SearchQuery{}, false
	}
	return f.queries[len(f.queries)-1], true
}

type fakeDetailRepo struct {
	objects     map[int64]*entity.ArtObject
	provenance  map[int64][]*repository.ProvenanceEntry
	textEntries map[int64][]*entity.TextEntry
	related     map[int64][]*repository.RelatedArtwork
}

func (f *fakeDetailRepo) GetByID(_ context.Context, objectID int64) (*entity.ArtObject, error) {
	return f.objects[objectID], nil
}

func (f *fakeDetailRepo) GetProvenance(_ context.Context, objectID int64) ([]*repository.ProvenanceEntry, error) {
	return f.provenance[objectID], nil
}

func (f *fakeDetailRepo) GetTextEntries(_ context.Context, objectID int64) ([]*entity.TextEntry, error) {
	return f.textEntries[objectID], nil
}

func (f *fakeDetailRepo) GetRelatedArtworks(_ context.Context, objectID int64, _ int) ([]*repository.RelatedArtwork, error) {
	return f.related[objectID], nil
}

type fakeBrowseRepo struct {
	filter *repository.BrowseFilter
	page   repository.Pagination
	sort   repository.Sort
	result *repository.PagedResult[*entity.ArtObject]
	err    error
}

func (f *fakeBrowseRepo) List(_ context.Context, filter *repository.BrowseFilter, pagination repository.Pagination, sort repository.Sort) (*repository.PagedResult[*entity.ArtObject], error) {
	f.filter = filter
	f.page = pagination
	f.sort = sort
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeStatsRepo struct {
	stats *repository.CollectionStats
	err   error
}

func (f *fakeStatsRepo) GetCollectionStats(context.Context) (*repository.CollectionStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func testServerConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{
			DefaultProvider: "openai",
			Providers: map[string]config.ProviderConfig{
				"openai":   {Model: "gpt-4o-mini", Temperature: 0.2},
				"deepseek": {Model: "deepseek-chat", Temperature: 0.2},
			},
		},
		Curator: config.CuratorConfig{
			Keywords: config.KeywordsConfig{
				MaxKeywords: 10,
				Timeout:     time.Second,
				Retry: config.RetryConfig{
					MaxRetries: 1,
					Backoff:    config.BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2.0},
				},
			},
			Search: config.SearchConfig{
				DefaultLimit: 10,
				QueryTimeout: time.Second,
				Retry: config.RetryConfig{
					MaxRetries: 1,
					Backoff:    config.BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2.0},
				},
			},
		},
	}
}

func newKeywordService(cfg *config.Config, factory *fakeModelFactory) *curator.KeywordService {
	return curator.NewKeywordService(cfg, wfchain.NewKeywordExtractChain(factory))
}

func performJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if raw, ok := body.(string); ok {
		reader = bytes.NewReader([]byte(raw))
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func performGet(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var envelope struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, 200, envelope.Code)

	var data T
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	return data
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, w.Code, envelope.Code)
	return envelope.Message
}

func TestResolveProviderModel(t *testing.T) {
	cfg := testServerConfig()

	tests := []struct {
		name         string
		provider     string
		model        string
		wantProvider string
		wantModel    string
		wantErr      string
	}{
		{name: "defaults from config", wantProvider: "openai", wantModel: "gpt-4o-mini"},
		{name: "explicit provider uses its model", provider: "deepseek", wantProvider: "deepseek", wantModel: "deepseek-chat"},
		{name: "explicit model overrides", provider: "deepseek", model: "deepseek-reasoner", wantProvider: "deepseek", wantModel: "deepseek-reasoner"},
		{name: "whitespace trimmed", provider: "  openai  ", wantProvider: "openai", wantModel: "gpt-4o-mini"},
		{name: "unknown provider rejected", provider: "anthropic", wantErr: "llm provider not found: anthropic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, model, err := resolveProviderModel(cfg, tt.provider, tt.model)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, provider)
			assert.Equal(t, tt.wantModel, model)
		})
	}

	t.Run("no default provider configured", func(t *testing.T) {
		_, _, err := resolveProviderModel(&config.Config{}, "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "llm provider not specified")
	})
}

func TestResolveLimit(t *testing.T) {
	t.Run("nil means service default", func(t *testing.T) {
		limit, err := resolveLimit(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, limit)
	})

	t.Run("positive passes through", func(t *testing.T) {
		v := 25
		limit, err := resolveLimit(&v)
		require.NoError(t, err)
		assert.Equal(t, 25, limit)
	})

	t.Run("zero and negative rejected", func(t *testing.T) {
		for _, v := range []int{0, -3} {
			value := v
			_, err := resolveLimit(&value)
			require.Error(t, err, "limit %d must be rejected", v)
		}
	})
}
