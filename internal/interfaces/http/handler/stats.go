// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dslans/NGA-opendata/internal/application/curator"
	"github.com/dslans/NGA-opendata/internal/interfaces/http/dto"
	"github.com/dslans/NGA-opendata/pkg/errors"
	"github.com/dslans/NGA-opendata/pkg/logger"
)

// StatsHandler 馆藏统计处理器
type StatsHandler struct {
	statsSvc *curator.StatsService
}

// NewStatsHandler 创建馆藏统计处理器
func NewStatsHandler(statsSvc *curator.StatsService) *StatsHandler {
	return &StatsHandler{
		statsSvc: statsSvc,
	}
}

// GetCollectionStats 获取馆藏整体统计
// @Summary 获取馆藏统计
// @Description 返回馆藏规模、有主图/有艺术家作品数与高频分类
// @Tags Stats
// @Accept json
// @Produce json
// @Success 200 {object} dto.Response[dto.CollectionStatsResponse]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/collection/stats [get]
func (h *StatsHandler) GetCollectionStats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.statsSvc.GetCollectionStats(ctx)
	if err != nil {
		if errors.IsAppError(err) {
			appErr := errors.AsAppError(err)
			c.JSON(appErr.HTTPStatus, dto.ErrorResponse{
				Code:    appErr.HTTPStatus,
				Message: appErr.Message,
				TraceID: c.GetString("trace_id"),
			})
			return
		}
		logger.Error(ctx, "failed to get collection stats", err)
		dto.InternalError(c, "failed to get collection stats")
		return
	}

	dto.Success(c, dto.ToCollectionStatsResponse(stats))
}
