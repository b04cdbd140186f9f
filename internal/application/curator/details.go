package curator

import (
	"context"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/domain/entity"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	apperrors "github.com/dslans/NGA-opendata/pkg/errors"
)

// relatedArtworksLimit 相关作品返回上限
const relatedArtworksLimit = 5

// ArtworkDetails 聚合的单件作品详情
type ArtworkDetails struct {
	Object      *entity.ArtObject
	Provenance  []*repository.ProvenanceEntry
	TextEntries []*entity.TextEntry
	Related     []*repository.RelatedArtwork
}

// DetailService 艺术品详情服务
// 三类子查询相互独立，聚合详情时并发取数。
type DetailService struct {
	cfg  *config.Config
	repo repository.ArtworkDetailRepository
}

// NewDetailService 创建详情服务
func NewDetailService(cfg *config.Config, repo repository.ArtworkDetailRepository) *DetailService {
	return &DetailService{
		cfg:  cfg,
		repo: repo,
	}
}

// GetArtwork 获取单件作品
func (s *DetailService) GetArtwork(ctx context.Context, objectID int64) (*entity.ArtObject, error) {
	object, err := fetchWithRetry(ctx, s.cfg.Curator.Search, func(callCtx context.Context) (*entity.ArtObject, error) {
		return s.repo.GetByID(callCtx, objectID)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "failed to get artwork")
	}
	if object == nil {
		return nil, apperrors.New(apperrors.CodeObjectNotFound, "artwork not found")
	}
	return object, nil
}

// GetProvenance 获取来源链（owner/donor），按 displayorder 升序
// 无来源记录时返回空切片。
func (s *DetailService) GetProvenance(ctx context.Context, objectID int64) ([]*repository.ProvenanceEntry, error) {
	entries, err := fetchWithRetry(ctx, s.cfg.Curator.Search, func(callCtx context.Context) ([]*repository.ProvenanceEntry, error) {
		return s.repo.GetProvenance(callCtx, objectID)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "failed to get provenance")
	}
	return entries, nil
}

// GetTextEntries 获取文本条目，按 (texttype, year) 升序
func (s *DetailService) GetTextEntries(ctx context.Context, objectID int64) ([]*entity.TextEntry, error) {
	entries, err := fetchWithRetry(ctx, s.cfg.Curator.Search, func(callCtx context.Context) ([]*entity.TextEntry, error) {
		return s.repo.GetTextEntries(callCtx, objectID)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "failed to get text entries")
	}
	return entries, nil
}

// GetRelatedArtworks 获取同一主创艺术家的其他作品，至多 5 件
func (s *DetailService) GetRelatedArtworks(ctx context.Context, objectID int64) ([]*repository.RelatedArtwork, error) {
	related, err := fetchWithRetry(ctx, s.cfg.Curator.Search, func(callCtx context.Context) ([]*repository.RelatedArtwork, error) {
		return s.repo.GetRelatedArtworks(callCtx, objectID, relatedArtworksLimit)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeRetrievalFailed, "failed to get related artworks")
	}
	return related, nil
}

// fetchWithRetry 给单个详情子查询施加查询超时与瞬时故障重试
// 详情与检索走同一个数仓，沿用 curator.search 的超时与重试配置。
func fetchWithRetry[T any](ctx context.Context, searchCfg config.SearchConfig, fetch func(context.Context) (T, error)) (T, error) {
	operation := func() (T, error) {
		callCtx := ctx
		if searchCfg.QueryTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, searchCfg.QueryTimeout)
			defer cancel()
		}

		result, err := fetch(callCtx)
		if err != nil {
			if isTransientDBError(err) {
				return result, err
			}
			return result, backoff.Permanent(err)
		}
		return result, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(newExponentialBackOff(searchCfg.Retry.Backoff)),
		backoff.WithMaxTries(uint(searchCfg.Retry.MaxRetries+1)),
	)
}

// GetArtworkDetails 并发聚合作品详情
// 各子查询只依赖 objectid，之间没有共享可变状态，可安全扇出。
func (s *DetailService) GetArtworkDetails(ctx context.Context, objectID int64) (*ArtworkDetails, error) {
	object, err := s.GetArtwork(ctx, objectID)
	if err != nil {
		return nil, err
	}

	details := &ArtworkDetails{Object: object}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := s.GetProvenance(gctx, objectID)
		if err != nil {
			return err
		}
		details.Provenance = entries
		return nil
	})
	g.Go(func() error {
		entries, err := s.GetTextEntries(gctx, objectID)
		if err != nil {
			return err
		}
		details.TextEntries = entries
		return nil
	})
	g.Go(func() error {
		related, err := s.GetRelatedArtworks(gctx, objectID)
		if err != nil {
			return err
		}
		details.Related = related
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}
