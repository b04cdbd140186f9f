// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/infrastructure/persistence/redis"
	"github.com/dslans/NGA-opendata/internal/interfaces/http/middleware"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, cfg *config.Config, limiter *redis.RateLimiter, h *Handlers) {
	// 主题策展，LLM 端点单独限流
	curator := v1.Group("/curator")
	curator.Use(middleware.RateLimit(cfg.Security.RateLimit, limiter))
	{
		curator.POST("/keywords", h.Curator.ExtractKeywords)
		curator.POST("/search", h.Curator.SearchByTheme)
	}

	// 艺术品检索与详情
	artworks := v1.Group("/artworks")
	{
		artworks.POST("/search", h.Artwork.SearchByKeywords)
		artworks.GET("", h.Artwork.ListArtworks)
		artworks.GET("/:objectid", h.Artwork.GetArtwork)
		artworks.GET("/:objectid/provenance", h.Artwork.GetProvenance)
		artworks.GET("/:objectid/text-entries", h.Artwork.GetTextEntries)
		artworks.GET("/:objectid/related", h.Artwork.GetRelatedArtworks)
		artworks.GET("/:objectid/details", h.Artwork.GetArtworkDetails)
	}

	// 馆藏统计
	collection := v1.Group("/collection")
	{
		collection.GET("/stats", h.Stats.GetCollectionStats)
	}
}
