package curator

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/lib/pq"

	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	"github.com/dslans/NGA-opendata/internal/infrastructure/persistence/redis"
	wfmodel "github.com/dslans/NGA-opendata/internal/workflow/model"
	apperrors "github.com/dslans/NGA-opendata/pkg/errors"
	"github.com/dslans/NGA-opendata/pkg/logger"
	"github.com/dslans/NGA-opendata/pkg/metrics"
)

// SearchInput 关键词检索输入
// Limit 为 0 时使用配置的默认值，负数视为非法参数。
type SearchInput struct {
	Keywords []string
	Scope    repository.SearchScope
	Limit    int
}

// ThemeSearchInput 主题检索输入
type ThemeSearchInput struct {
	Theme    string
	Scope    repository.SearchScope
	Limit    int
	Provider string
	Model    string
}

// ResultStats 当前结果集的聚合统计
type ResultStats struct {
	TotalResults    int            `json:"total_results"`
	DistinctArtists int            `json:"distinct_artists"`
	Classifications map[string]int `json:"classifications"`
	EarliestYear    *int           `json:"earliest_year,omitempty"`
	LatestYear      *int           `json:"latest_year,omitempty"`
}

// SearchResult 关键词检索结果
type SearchResult struct {
	Keywords []string
	Scope    repository.SearchScope
	Limit    int
	Rows     []*repository.ResultRow
	Stats    *ResultStats
}

// ThemeSearchResult 主题检索结果
// KeywordSource 标识关键词来自 LLM 提取还是原始主题降级。
type ThemeSearchResult struct {
	Theme         string
	Keywords      []string
	KeywordSource string
	Usage         *wfmodel.LLMUsageMeta
	Search        *SearchResult
}

// SearchService 艺术品检索服务
// 负责参数校验、缓存、瞬时故障重试与指标上报；SQL 构造在仓储层。
type SearchService struct {
	cfg      *config.Config
	repo     repository.ArtworkSearchRepository
	keywords *KeywordService
	cache    *redis.Cache
}

// NewSearchService 创建检索服务
func NewSearchService(
	cfg *config.Config,
	repo repository.ArtworkSearchRepository,
	keywordSvc *KeywordService,
	cache *redis.Cache,
) *SearchService {
	return &SearchService{
		cfg:      cfg,
		repo:     repo,
		keywords: keywordSvc,
		cache:    cache,
	}
}

// SearchByTheme 主题检索：提取关键词后执行关键词检索
// 关键词提取失败时降级为把原始主题当作单个关键词，检索本身的失败照常上抛。
func (s *SearchService) SearchByTheme(ctx context.Context, in *ThemeSearchInput) (*ThemeSearchResult, error) {
	if in == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "search input is nil")
	}
	theme := strings.TrimSpace(in.Theme)
	if theme == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "theme must not be empty")
	}

	kwResult, err := s.keywords.Extract(ctx, theme, &ExtractOptions{
		Provider: in.Provider,
		Model:    in.Model,
	})
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr.Code == apperrors.CodeInvalidParam {
			return nil, err
		}
		logger.Warn(ctx, "keyword extraction failed, falling back to raw theme",
			"theme", theme,
			"error", err,
		)
		kwResult = s.keywords.FallbackResult(theme)
	}

	searchResult, err := s.SearchByKeywords(ctx, &SearchInput{
		Keywords: kwResult.Keywords,
		Scope:    in.Scope,
		Limit:    in.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &ThemeSearchResult{
		Theme:         theme,
		Keywords:      kwResult.Keywords,
		KeywordSource: kwResult.Source,
		Usage:         kwResult.Usage,
		Search:        searchResult,
	}, nil
}

// SearchByKeywords 按关键词检索艺术品
func (s *SearchService) SearchByKeywords(ctx context.Context, in *SearchInput) (*SearchResult, error) {
	query, err := s.normalizeQuery(in)
	if err != nil {
		return nil, err
	}

	scopeLabel := string(query.Scope)
	start := time.Now()

	rows, err := s.executeSearch(ctx, query)
	if err != nil {
		metrics.SearchTotal.WithLabelValues(scopeLabel, "error").Inc()
		return nil, err
	}

	metrics.SearchTotal.WithLabelValues(scopeLabel, "ok").Inc()
	metrics.SearchDuration.WithLabelValues(scopeLabel).Observe(time.Since(start).Seconds())
	metrics.SearchResultCount.WithLabelValues(scopeLabel).Observe(float64(len(rows)))

	logger.Info(ctx, "artwork search completed",
		"scope", scopeLabel,
		"keyword_count", len(query.Keywords),
		"result_count", len(rows),
	)

	return &SearchResult{
		Keywords: query.Keywords,
		Scope:    query.Scope,
		Limit:    query.Limit,
		Rows:     rows,
		Stats:    ComputeResultStats(rows),
	}, nil
}

// normalizeQuery 校验并规范化检索参数
func (s *SearchService) normalizeQuery(in *SearchInput) (*repository.SearchQuery, error) {
	if in == nil {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "search input is nil")
	}

	keywords := make([]string, 0, len(in.Keywords))
	for _, kw := range in.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}
	if len(keywords) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "keywords must not be empty")
	}

	scope := in.Scope
	if scope == "" {
		scope = repository.ScopeComprehensive
	}
	if !scope.Valid() {
		return nil, apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("invalid search scope: %s", in.Scope))
	}

	limit := in.Limit
	if limit == 0 {
		limit = s.cfg.Curator.Search.DefaultLimit
	}
	if limit <= 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "limit must be a positive integer")
	}

	return &repository.SearchQuery{
		Keywords: keywords,
		Scope:    scope,
		Limit:    limit,
	}, nil
}

// executeSearch 执行检索，启用缓存时走 GetOrLoadSafe
// 缓存基础设施故障降级为直查，不影响检索可用性。
func (s *SearchService) executeSearch(ctx context.Context, query *repository.SearchQuery) ([]*repository.ResultRow, error) {
	if s.cache == nil || !s.cfg.Cache.Search.Enabled {
		return s.searchWithRetry(ctx, query)
	}

	key := redis.BuildSearchKey(query.Keywords, string(query.Scope), query.Limit)
	data, err := s.cache.GetOrLoadSafe(ctx, key, s.cfg.Cache.Search.TTL, func() (interface{}, error) {
		return s.searchWithRetry(ctx, query)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		logger.Warn(ctx, "search cache unavailable, querying directly", "error", err)
		return s.searchWithRetry(ctx, query)
	}

	var rows []*repository.ResultRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to decode cached search result")
	}
	return rows, nil
}

// searchWithRetry 带瞬时故障重试的仓储检索
func (s *SearchService) searchWithRetry(ctx context.Context, query *repository.SearchQuery) ([]*repository.ResultRow, error) {
	searchCfg := s.cfg.Curator.Search

	operation := func() ([]*repository.ResultRow, error) {
		callCtx := ctx
		if searchCfg.QueryTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, searchCfg.QueryTimeout)
			defer cancel()
		}

		rows, err := s.repo.Search(callCtx, *query)
		if err != nil {
			if isTransientDBError(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return rows, nil
	}

	rows, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(newExponentialBackOff(searchCfg.Retry.Backoff)),
		backoff.WithMaxTries(uint(searchCfg.Retry.MaxRetries+1)),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "artwork retrieval failed")
	}
	return rows, nil
}

// ComputeResultStats 计算结果集的聚合统计
// 纯函数：分类计数、创作年代范围、不重复艺术家数。
func ComputeResultStats(rows []*repository.ResultRow) *ResultStats {
	stats := &ResultStats{
		TotalResults:    len(rows),
		Classifications: make(map[string]int),
	}

	artists := make(map[string]struct{})
	for _, row := range rows {
		if row == nil {
			continue
		}
		if row.Classification != "" {
			stats.Classifications[row.Classification]++
		}
		if row.Artist != nil && *row.Artist != "" {
			artists[*row.Artist] = struct{}{}
		}
		if row.BeginYear != nil {
			year := *row.BeginYear
			if stats.EarliestYear == nil || year < *stats.EarliestYear {
				y := year
				stats.EarliestYear = &y
			}
			if stats.LatestYear == nil || year > *stats.LatestYear {
				y := year
				stats.LatestYear = &y
			}
		}
	}
	stats.DistinctArtists = len(artists)
	return stats
}

// isTransientDBError 判断数据库错误是否可重试
// 连接类故障（class 08）、资源不足（53）、管理性关停（57）与超时视为瞬时。
func isTransientDBError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code.Class()) {
		case "08", "53", "57":
			return true
		}
	}
	return false
}
