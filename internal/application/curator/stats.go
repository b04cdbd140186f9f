package curator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	"github.com/dslans/NGA-opendata/internal/infrastructure/persistence/redis"
	apperrors "github.com/dslans/NGA-opendata/pkg/errors"
	"github.com/dslans/NGA-opendata/pkg/logger"
)

// statsCacheTTL 馆藏统计的缓存时长。统计仅在目录重载时变化，重载事件会主动失效缓存
const statsCacheTTL = time.Hour

// StatsService 馆藏统计应用服务
type StatsService struct {
	cfg   *config.Config
	repo  repository.CollectionStatsRepository
	cache *redis.Cache
}

// NewStatsService 创建馆藏统计服务
func NewStatsService(cfg *config.Config, repo repository.CollectionStatsRepository, cache *redis.Cache) *StatsService {
	return &StatsService{
		cfg:   cfg,
		repo:  repo,
		cache: cache,
	}
}

// GetCollectionStats 获取馆藏整体统计，优先读缓存
func (s *StatsService) GetCollectionStats(ctx context.Context) (*repository.CollectionStats, error) {
	if s.cache == nil {
		return s.loadStats(ctx)
	}

	data, err := s.cache.GetOrLoad(ctx, redis.BuildStatsKey(), statsCacheTTL, func() (interface{}, error) {
		return s.loadStats(ctx)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		logger.Warn(ctx, "stats cache unavailable, querying directly", "error", err)
		return s.loadStats(ctx)
	}

	var stats repository.CollectionStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeCacheError, "failed to decode cached collection stats")
	}
	return &stats, nil
}

func (s *StatsService) loadStats(ctx context.Context) (*repository.CollectionStats, error) {
	stats, err := s.repo.GetCollectionStats(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "failed to get collection stats")
	}
	return stats, nil
}
