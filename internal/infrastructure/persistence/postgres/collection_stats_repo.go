// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"

	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

// CollectionStatsRepo 馆藏统计仓储实现
type CollectionStatsRepo struct {
	client *Client
}

// NewCollectionStatsRepo 创建馆藏统计仓储
func NewCollectionStatsRepo(client *Client) *CollectionStatsRepo {
	return &CollectionStatsRepo{client: client}
}

// GetCollectionStats 获取馆藏整体统计
func (r *CollectionStatsRepo) GetCollectionStats(ctx context.Context) (*repository.CollectionStats, error) {
	ctx, span := tracer.Start(ctx, "postgres.CollectionStatsRepo.GetCollectionStats")
	defer span.End()

	const statsQuery = `
SELECT
	(SELECT COUNT(*) FROM objects),
	(SELECT COUNT(*) FROM objects WHERE accessioned = true),
	(SELECT COUNT(DISTINCT o.objectid)
		FROM objects o
		JOIN published_images pi ON pi.objectid = o.objectid
			AND pi.viewtype = 'primary' AND pi.iiifurl IS NOT NULL
		WHERE o.accessioned = true),
	(SELECT COUNT(DISTINCT o.objectid)
		FROM objects o
		JOIN objects_constituents oc ON oc.objectid = o.objectid
		WHERE oc.roletype = 'artist'),
	(SELECT COUNT(DISTINCT oc.constituentid) FROM objects_constituents oc WHERE oc.roletype = 'artist')`

	stats := &repository.CollectionStats{}
	err := getQuerier(ctx, r.client.sqlDB).QueryRowContext(ctx, statsQuery).Scan(
		&stats.TotalObjects,
		&stats.AccessionedObjects,
		&stats.ObjectsWithImage,
		&stats.ObjectsWithArtist,
		&stats.DistinctArtists,
	)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query collection stats: %w", err)
	}

	const classificationQuery = `
SELECT classification, COUNT(*) AS cnt
FROM objects
WHERE accessioned = true AND classification IS NOT NULL
GROUP BY classification
ORDER BY cnt DESC, classification
LIMIT 10`

	rows, err := getQuerier(ctx, r.client.sqlDB).QueryContext(ctx, classificationQuery)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query classification counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cc repository.ClassificationCount
		if err := rows.Scan(&cc.Classification, &cc.Count); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan classification count: %w", err)
		}
		stats.TopClassifications = append(stats.TopClassifications, &cc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate classification counts: %w", err)
	}

	return stats, nil
}
