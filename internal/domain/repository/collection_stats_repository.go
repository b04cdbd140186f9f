// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

// ClassificationCount 分类及其作品数量
type ClassificationCount struct {
	Classification string `json:"classification"`
	Count          int64  `json:"count"`
}

// CollectionStats 馆藏整体统计
type CollectionStats struct {
	TotalObjects       int64                  `json:"total_objects"`
	AccessionedObjects int64                  `json:"accessioned_objects"`
	ObjectsWithImage   int64                  `json:"objects_with_image"`
	ObjectsWithArtist  int64                  `json:"objects_with_artist"`
	DistinctArtists    int64                  `json:"distinct_artists"`
	TopClassifications []*ClassificationCount `json:"top_classifications"`
}

// CollectionStatsRepository 馆藏统计仓储接口
type CollectionStatsRepository interface {
	// GetCollectionStats 获取馆藏整体统计
	GetCollectionStats(ctx context.Context) (*CollectionStats, error)
}
