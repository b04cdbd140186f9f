// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

// ClassificationCountResponse 分类及其作品数量
type ClassificationCountResponse struct {
	Classification string `json:"classification"`
	Count          int64  `json:"count"`
}

// CollectionStatsResponse 馆藏整体统计
type CollectionStatsResponse struct {
	TotalObjects       int64                          `json:"total_objects"`
	AccessionedObjects int64                          `json:"accessioned_objects"`
	ObjectsWithImage   int64                          `json:"objects_with_image"`
	ObjectsWithArtist  int64                          `json:"objects_with_artist"`
	DistinctArtists    int64                          `json:"distinct_artists"`
	TopClassifications []*ClassificationCountResponse `json:"top_classifications"`
}

// ToCollectionStatsResponse 转换馆藏统计
func ToCollectionStatsResponse(stats *repository.CollectionStats) *CollectionStatsResponse {
	if stats == nil {
		return nil
	}
	resp := &CollectionStatsResponse{
		TotalObjects:       stats.TotalObjects,
		AccessionedObjects: stats.AccessionedObjects,
		ObjectsWithImage:   stats.ObjectsWithImage,
		ObjectsWithArtist:  stats.ObjectsWithArtist,
		DistinctArtists:    stats.DistinctArtists,
	}
	for _, cc := range stats.TopClassifications {
		resp.TopClassifications = append(resp.TopClassifications, &ClassificationCountResponse{
			Classification: cc.Classification,
			Count:          cc.Count,
		})
	}
	return resp
}
