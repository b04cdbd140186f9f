// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"github.com/dslans/NGA-opendata/internal/domain/entity"
)

// ProvenanceEntry 来源链条目（前藏家/捐赠人）
type ProvenanceEntry struct {
	RoleType     string `json:"roletype"`
	Role         string `json:"role,omitempty"`
	DisplayDate  string `json:"displaydate,omitempty"`
	Name         string `json:"name"`
	DisplayOrder *int   `json:"displayorder,omitempty"`
}

// RelatedArtwork 同一艺术家的相关作品
type RelatedArtwork struct {
	ObjectID    int64  `json:"objectid"`
	Title       string `json:"title"`
	DisplayDate string `json:"displaydate,omitempty"`
	IIIFURL     string `json:"iiifurl"`
}

// ArtworkDetailRepository 艺术品详情仓储接口
// 三个列表查询相互独立；无匹配行时返回空切片而非错误
type ArtworkDetailRepository interface {
	// GetByID 根据 objectid 获取艺术品，不存在时返回 (nil, nil)
	GetByID(ctx context.Context, objectID int64) (*entity.ArtObject, error)

	// GetProvenance 获取来源链，按 displayorder 升序
	GetProvenance(ctx context.Context, objectID int64) ([]*ProvenanceEntry, error)

	// GetTextEntries 获取文本条目，按 (texttype, year) 升序
	GetTextEntries(ctx context.Context, objectID int64) ([]*entity.TextEntry, error)

	// GetRelatedArtworks 获取同一主创艺术家的其他作品
	// 主创取 displayorder 最小的 artist 关联；排除种子作品本身，要求有主图
	GetRelatedArtworks(ctx context.Context, objectID int64, limit int) ([]*RelatedArtwork, error)
}
