// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"github.com/dslans/NGA-opendata/internal/domain/entity"
)

// BrowseFilter 馆藏浏览过滤条件
type BrowseFilter struct {
	Classification string
	Artist         string
	OnlyWithImage  bool
}

// ArtworkBrowseRepository 馆藏浏览仓储接口
type ArtworkBrowseRepository interface {
	// List 分页浏览已入藏的艺术品
	List(ctx context.Context, filter *BrowseFilter, pagination Pagination, sort Sort) (*PagedResult[*entity.ArtObject], error)
}
