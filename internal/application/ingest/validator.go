package ingest

import (
	"context"
	"fmt"

	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

// ValidationReport 装载后数据体检报告
// Issues 为引用完整性违规，Count 大于零即为违规；
// 其余字段是数据质量画像，仅供人工判断
type ValidationReport struct {
	Issues    []*repository.IntegrityIssue `json:"issues"`
	Stats     *repository.CollectionStats  `json:"stats"`
	RoleTypes []*repository.RoleTypeCount  `json:"role_types"`

	// AccessionedWithoutImage 已入藏但没有主图的艺术品数，这些作品不会出现在检索结果中
	AccessionedWithoutImage int64 `json:"accessioned_without_image"`
	// ObjectsWithoutArtist 没有任何创作者关联的艺术品数
	ObjectsWithoutArtist int64 `json:"objects_without_artist"`
}

// HasViolations 判断是否存在引用完整性违规
func (r *ValidationReport) HasViolations() bool {
	for _, issue := range r.Issues {
		if issue.Count > 0 {
			return true
		}
	}
	return false
}

// Validator 装载后校验服务
type Validator struct {
	catalogRepo repository.CatalogRepository
	statsRepo   repository.CollectionStatsRepository
}

// NewValidator 创建装载后校验服务
func NewValidator(catalogRepo repository.CatalogRepository, statsRepo repository.CollectionStatsRepository) *Validator {
	return &Validator{
		catalogRepo: catalogRepo,
		statsRepo:   statsRepo,
	}
}

// Run 执行全部完整性检查与数据质量统计
func (v *Validator) Run(ctx context.Context) (*ValidationReport, error) {
	ctx, span := tracer.Start(ctx, "ingest.Validator.Run")
	defer span.End()

	issues, err := v.catalogRepo.ValidateIntegrity(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to run integrity checks: %w", err)
	}

	stats, err := v.statsRepo.GetCollectionStats(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to collect data quality stats: %w", err)
	}

	roleTypes, err := v.catalogRepo.RoleTypeDistribution(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to collect roletype distribution: %w", err)
	}

	return &ValidationReport{
		Issues:                  issues,
		Stats:                   stats,
		RoleTypes:               roleTypes,
		AccessionedWithoutImage: stats.AccessionedObjects - stats.ObjectsWithImage,
		ObjectsWithoutArtist:    stats.TotalObjects - stats.ObjectsWithArtist,
	}, nil
}
