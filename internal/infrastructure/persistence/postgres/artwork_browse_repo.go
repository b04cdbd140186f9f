// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"

	"github.com/dslans/NGA-opendata/internal/domain/entity"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

// 浏览接口允许的排序字段
var browseSortFields = map[string]string{
	"objectid":  "objectid",
	"title":     "title",
	"beginyear": "beginyear",
}

// ArtworkBrowseRepo 馆藏浏览仓储实现
type ArtworkBrowseRepo struct {
	client *Client
}

// NewArtworkBrowseRepo 创建馆藏浏览仓储
func NewArtworkBrowseRepo(client *Client) *ArtworkBrowseRepo {
	return &ArtworkBrowseRepo{client: client}
}

// List 分页浏览已入藏的艺术品
func (r *ArtworkBrowseRepo) List(ctx context.Context, filter *repository.BrowseFilter, pagination repository.Pagination, sort repository.Sort) (*repository.PagedResult[*entity.ArtObject], error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtworkBrowseRepo.List")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.ArtObject{}).Where("accessioned = ?", true)

	// 应用过滤条件
	if filter != nil {
		if filter.Classification != "" {
			query = query.Where("classification = ?", filter.Classification)
		}
		if filter.Artist != "" {
			query = query.Where(
				"objectid IN (SELECT oc.objectid FROM objects_constituents oc JOIN constituents c ON c.constituentid = oc.constituentid WHERE oc.roletype = 'artist' AND c.preferreddisplayname ILIKE ?)",
				"%"+filter.Artist+"%",
			)
		}
		if filter.OnlyWithImage {
			query = query.Where(
				"EXISTS (SELECT 1 FROM published_images pi WHERE pi.objectid = objects.objectid AND pi.viewtype = 'primary' AND pi.iiifurl IS NOT NULL)",
			)
		}
	}

	// 获取总数
	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count artworks: %w", err)
	}

	// 获取列表
	var objects []*entity.ArtObject
	if err := query.Order(browseOrderClause(sort)).
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&objects).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list artworks: %w", err)
	}

	return repository.NewPagedResult(objects, total, pagination), nil
}

// browseOrderClause 将排序参数映射为白名单内的 ORDER BY 子句
func browseOrderClause(sort repository.Sort) string {
	field, ok := browseSortFields[sort.Field]
	if !ok {
		field = "objectid"
	}
	order := "ASC"
	if sort.Order == repository.SortOrderDesc {
		order = "DESC"
	}
	return fmt.Sprintf("%s %s", field, order)
}
