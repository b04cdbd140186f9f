// Package curator 实现主题策展流水线的应用服务
package curator

import (
	"context"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/cloudwego/eino/schema"

	"github.com/dslans/NGA-opendata/internal/config"
	wfchain "github.com/dslans/NGA-opendata/internal/workflow/chain"
	wfmodel "github.com/dslans/NGA-opendata/internal/workflow/model"
	wfnode "github.com/dslans/NGA-opendata/internal/workflow/node"
	apperrors "github.com/dslans/NGA-opendata/pkg/errors"
	"github.com/dslans/NGA-opendata/pkg/logger"
	"github.com/dslans/NGA-opendata/pkg/metrics"
)

// 关键词来源标识
const (
	KeywordSourceLLM      = "llm"
	KeywordSourceFallback = "fallback"
)

// defaultMaxKeywords 未配置上限时的关键词数量上限
const defaultMaxKeywords = 10

// KeywordResult 关键词提取结果
type KeywordResult struct {
	Theme    string
	Keywords []string
	Source   string
	Usage    *wfmodel.LLMUsageMeta
}

// ExtractOptions 关键词提取的可选覆盖项，零值走配置默认
type ExtractOptions struct {
	Provider string
	Model    string
}

// KeywordService 关键词提取服务
// 把自由文本的展览主题交给 LLM，产出用于检索的关键词列表。
type KeywordService struct {
	cfg   *config.Config
	chain *wfchain.KeywordExtractChain
}

// NewKeywordService 创建关键词提取服务
func NewKeywordService(cfg *config.Config, extractChain *wfchain.KeywordExtractChain) *KeywordService {
	return &KeywordService{
		cfg:   cfg,
		chain: extractChain,
	}
}

// Extract 从展览主题提取检索关键词
// 瞬时故障（超时/限流/上游不可用）按配置做有界重试，其余错误直接上抛。
func (s *KeywordService) Extract(ctx context.Context, theme string, opts *ExtractOptions) (*KeywordResult, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "theme must not be empty")
	}

	kwCfg := s.cfg.Curator.Keywords
	maxKeywords := kwCfg.MaxKeywords
	if maxKeywords <= 0 {
		maxKeywords = defaultMaxKeywords
	}
	provider := strings.TrimSpace(s.cfg.LLM.DefaultProvider)
	model := ""
	if opts != nil {
		if p := strings.TrimSpace(opts.Provider); p != "" {
			provider = p
		}
		model = strings.TrimSpace(opts.Model)
	}

	in := &wfmodel.KeywordExtractInput{
		Theme:       theme,
		MaxKeywords: maxKeywords,
		Provider:    provider,
		Model:       model,
	}

	operation := func() (*schema.Message, error) {
		callCtx := ctx
		if kwCfg.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, kwCfg.Timeout)
			defer cancel()
		}

		msg, err := s.chain.Invoke(callCtx, in)
		if err != nil {
			if wfnode.IsTransientLLMError(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return msg, nil
	}

	msg, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(newExponentialBackOff(kwCfg.Retry.Backoff)),
		backoff.WithMaxTries(uint(kwCfg.Retry.MaxRetries+1)),
	)
	if err != nil {
		metrics.KeywordExtractionTotal.WithLabelValues("error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeKeywordExtractionFailed, "keyword extraction failed")
	}

	keywords := ParseKeywordList(msg.Content, maxKeywords)
	if len(keywords) == 0 {
		metrics.KeywordExtractionTotal.WithLabelValues("error").Inc()
		return nil, apperrors.New(apperrors.CodeKeywordExtractionFailed, "keyword extraction produced no keywords")
	}

	metrics.KeywordExtractionTotal.WithLabelValues("ok").Inc()
	logger.Info(ctx, "keywords extracted",
		"theme", theme,
		"keyword_count", len(keywords),
	)

	return &KeywordResult{
		Theme:    theme,
		Keywords: keywords,
		Source:   KeywordSourceLLM,
		Usage:    buildUsageMeta(s.cfg, provider, model, msg),
	}, nil
}

// FallbackResult 把原始主题降级为单关键词结果
// 用于提取失败时维持检索可用（策略见检索服务）。
func (s *KeywordService) FallbackResult(theme string) *KeywordResult {
	metrics.KeywordExtractionTotal.WithLabelValues("fallback").Inc()
	return &KeywordResult{
		Theme:    theme,
		Keywords: []string{strings.ToLower(strings.TrimSpace(theme))},
		Source:   KeywordSourceFallback,
	}
}

// ParseKeywordList 解析模型输出的逗号分隔关键词列表
// 逐项去除首尾空白和引号，丢弃空项，统一小写并按序去重，最多保留 max 个。
func ParseKeywordList(raw string, max int) []string {
	if max <= 0 {
		max = defaultMaxKeywords
	}

	seen := make(map[string]struct{})
	keywords := make([]string, 0, max)
	for _, part := range strings.Split(raw, ",") {
		kw := strings.TrimSpace(part)
		kw = strings.Trim(kw, `"'`)
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		keywords = append(keywords, kw)
		if len(keywords) >= max {
			break
		}
	}
	return keywords
}

func buildUsageMeta(cfg *config.Config, provider, model string, msg *schema.Message) *wfmodel.LLMUsageMeta {
	meta := &wfmodel.LLMUsageMeta{
		Provider:    provider,
		GeneratedAt: time.Now().UTC(),
	}
	if providerCfg, ok := cfg.LLM.Providers[provider]; ok {
		meta.Model = providerCfg.Model
		meta.Temperature = providerCfg.Temperature
	}
	if model != "" {
		meta.Model = model
	}
	if msg != nil && msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		meta.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		meta.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
	}
	return meta
}

func newExponentialBackOff(cfg config.BackoffConfig) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	if cfg.Initial > 0 {
		b.InitialInterval = cfg.Initial
	}
	if cfg.Max > 0 {
		b.MaxInterval = cfg.Max
	}
	if cfg.Multiplier > 0 {
		b.Multiplier = cfg.Multiplier
	}
	return b
}
