package curator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslans/NGA-opendata/internal/config"
	wfchain "github.com/dslans/NGA-opendata/internal/workflow/chain"
	apperrors "github.com/dslans/NGA-opendata/pkg/errors"
)

// fakeChatModel 按调用序号返回脚本化的响应
type fakeChatModel struct {
	mu       sync.Mutex
	calls    int
	generate func(call int, msgs []*schema.Message) (*schema.Message, error)
}

func (m *fakeChatModel) Generate(_ context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	m.calls++
	call := m.calls
	m.mu.Unlock()
	return m.generate(call, msgs)
}

func (m *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *fakeChatModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeModelFactory struct {
	mu       sync.Mutex
	model    model.BaseChatModel
	err      error
	lastName string
}

func (f *fakeModelFactory) Get(_ context.Context, name string) (model.BaseChatModel, error) {
	f.mu.Lock()
	f.lastName = name
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

func textResponse(content string) *schema.Message {
	return &schema.Message{
		Role:    schema.Assistant,
		Content: content,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     42,
				CompletionTokens: 7,
				TotalTokens:      49,
			},
		},
	}
}

func testCuratorConfig() *config.Config {
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
				MaxKeywords: 5,
				Timeout:     time.Second,
				Retry: config.RetryConfig{
					MaxRetries: 2,
					Backoff: config.BackoffConfig{
						Initial:    time.Millisecond,
						Max:        5 * time.Millisecond,
						Multiplier: 2.0,
					},
				},
			},
			Search: config.SearchConfig{
				DefaultLimit: 10,
				QueryTimeout: time.Second,
				Retry: config.RetryConfig{
					MaxRetries: 2,
					Backoff: config.BackoffConfig{
						Initial:    time.Millisecond,
						Max:        5 * time.Millisecond,
						Multiplier: 2.0,
					},
				},
			},
		},
	}
}

func newTestKeywordService(cfg *config.Config, factory *fakeModelFactory) *KeywordService {
	return NewKeywordService(cfg, wfchain.NewKeywordExtractChain(factory))
}

func TestKeywordService_Extract(t *testing.T) {
	cfg := testCuratorConfig()

	t.Run("parses llm output", func(t *testing.T) {
		chat := &fakeChatModel{generate: func(_ int, _ []*schema.Message) (*schema.Message, error) {
			return textResponse("Impressionism, Seascapes, Coastal Life"), nil
		}}
		svc := newTestKeywordService(cfg, &fakeModelFactory{model: chat})

		result, err := svc.Extract(context.Background(), "Impressionist seascapes", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"impressionism", "seascapes", "coastal life"}, result.Keywords)
		assert.Equal(t, KeywordSourceLLM, result.Source)
		require.NotNil(t, result.Usage)
		assert.Equal(t, "openai", result.Usage.Provider)
		assert.Equal(t, "gpt-4o-mini", result.Usage.Model)
		assert.Equal(t, 42, result.Usage.PromptTokens)
		assert.Equal(t, 7, result.Usage.CompletionTokens)
		assert.Equal(t, 1, chat.callCount())
	})

	t.Run("empty theme is invalid", func(t *testing.T) {
		svc := newTestKeywordService(cfg, &fakeModelFactory{model: &fakeChatModel{}})

		_, err := svc.Extract(context.Background(), "   ", nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeInvalidParam, apperrors.AsAppError(err).Code)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		chat := &fakeChatModel{generate: func(call int, _ []*schema.Message) (*schema.Message, error) {
			if call == 1 {
				return nil, errors.New("rate limit exceeded")
			}
			return textResponse("storms"), nil
		}}
		svc := newTestKeywordService(cfg, &fakeModelFactory{model: chat})

		result, err := svc.Extract(context.Background(), "storm paintings", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"storms"}, result.Keywords)
		assert.Equal(t, 2, chat.callCount())
	})

	t.Run("does not retry permanent failures", func(t *testing.T) {
		chat := &fakeChatModel{generate: func(_ int, _ []*schema.Message) (*schema.Message, error) {
			return nil, errors.New("invalid api key")
		}}
		svc := newTestKeywordService(cfg, &fakeModelFactory{model: chat})

		_, err := svc.Extract(context.Background(), "storm paintings", nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeKeywordExtractionFailed, apperrors.AsAppError(err).Code)
		assert.Equal(t, 1, chat.callCount())
	})

	t.Run("empty model output is an extraction failure", func(t *testing.T) {
		chat := &fakeChatModel{generate: func(_ int, _ []*schema.Message) (*schema.Message, error) {
			return textResponse("  ,  , "), nil
		}}
		svc := newTestKeywordService(cfg, &fakeModelFactory{model: chat})

		_, err := svc.Extract(context.Background(), "storm paintings", nil)
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeKeywordExtractionFailed, apperrors.AsAppError(err).Code)
	})

	t.Run("provider and model overrides", func(t *testing.T) {
		chat := &fakeChatModel{generate: func(_ int, _ []*schema.Message) (*schema.Message, error) {
			return textResponse("gardens"), nil
		}}
		factory := &fakeModelFactory{model: chat}
		svc := newTestKeywordService(cfg, factory)

		result, err := svc.Extract(context.Background(), "garden scenes", &ExtractOptions{
			Provider: "deepseek",
			Model:    "deepseek-reasoner",
		})
		require.NoError(t, err)
		assert.Equal(t, "deepseek", factory.lastName)
		assert.Equal(t, "deepseek", result.Usage.Provider)
		assert.Equal(t, "deepseek-reasoner", result.Usage.Model)
	})

	t.Run("keyword count capped by config", func(t *testing.T) {
		chat := &fakeChatModel{generate: func(_ int, _ []*schema.Message) (*schema.Message, error) {
			return textResponse("a, b, c, d, e, f, g, h"), nil
		}}
		svc := newTestKeywordService(cfg, &fakeModelFactory{model: chat})

		result, err := svc.Extract(context.Background(), "alphabet", nil)
		require.NoError(t, err)
		assert.Len(t, result.Keywords, 5)
	})
}

func TestKeywordService_FallbackResult(t *testing.T) {
	svc := newTestKeywordService(testCuratorConfig(), &fakeModelFactory{})

	result := svc.FallbackResult("  Coastal Storms  ")
	assert.Equal(t, []string{"coastal storms"}, result.Keywords)
	assert.Equal(t, KeywordSourceFallback, result.Source)
	assert.Nil(t, result.Usage)
}

func TestParseKeywordList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		max      int
		expected []string
	}{
		{
			name:     "comma separated list",
			raw:      "Impressionism, Seascapes, coastal life",
			max:      10,
			expected: []string{"impressionism", "seascapes", "coastal life"},
		},
		{
			name:     "strips quotes",
			raw:      `"Monet", 'water lilies'`,
			max:      10,
			expected: []string{"monet", "water lilies"},
		},
		{
			name:     "deduplicates case insensitively",
			raw:      "Paris, paris, PARIS, Seine",
			max:      10,
			expected: []string{"paris", "seine"},
		},
		{
			name:     "drops blank items",
			raw:      " , storms,, ,waves",
			max:      10,
			expected: []string{"storms", "waves"},
		},
		{
			name:     "caps at max",
			raw:      "a, b, c, d",
			max:      2,
			expected: []string{"a", "b"},
		},
		{
			name:     "non positive max uses default",
			raw:      "a, b, c, d, e, f, g, h, i, j, k, l",
			max:      0,
			expected: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"},
		},
		{
			name:     "empty input",
			raw:      "   ",
			max:      10,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseKeywordList(tt.raw, tt.max))
		})
	}
}
