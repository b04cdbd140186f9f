// Package handler 提供 HTTP 请求处理器
package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dslans/NGA-opendata/internal/application/curator"
	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	"github.com/dslans/NGA-opendata/internal/interfaces/http/dto"
	"github.com/dslans/NGA-opendata/pkg/errors"
	"github.com/dslans/NGA-opendata/pkg/logger"
)

// CuratorHandler 主题策展处理器
type CuratorHandler struct {
	cfg        *config.Config
	searchSvc  *curator.SearchService
	keywordSvc *curator.KeywordService
}

// NewCuratorHandler 创建主题策展处理器
func NewCuratorHandler(cfg *config.Config, searchSvc *curator.SearchService, keywordSvc *curator.KeywordService) *CuratorHandler {
	return &CuratorHandler{
		cfg:        cfg,
		searchSvc:  searchSvc,
		keywordSvc: keywordSvc,
	}
}

// ExtractKeywords 从展览主题提取检索关键词
// @Summary 提取检索关键词
// @Description 将自由文本的展览主题交给 LLM，返回用于检索的关键词列表
// @Tags Curator
// @Accept json
// @Produce json
// @Param body body dto.ExtractKeywordsRequest true "提取请求"
// @Success 200 {object} dto.Response[dto.ExtractKeywordsResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Router /v1/curator/keywords [post]
func (h *CuratorHandler) ExtractKeywords(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ExtractKeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	// 独立提取接口不做降级，提取失败按错误返回
	result, err := h.keywordSvc.Extract(ctx, req.Theme, &curator.ExtractOptions{
		Provider: provider,
		Model:    model,
	})
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
		logger.Error(ctx, "failed to extract keywords", err)
		dto.InternalError(c, "failed to extract keywords")
		return
	}

	dto.Success(c, dto.ToExtractKeywordsResponse(result))
}

// SearchByTheme 主题策展检索
// @Summary 主题策展检索
// @Description 提取主题关键词后检索馆藏，提取失败时降级为按原始主题检索
// @Tags Curator
// @Accept json
// @Produce json
// @Param body body dto.ThemeSearchRequest true "主题检索请求"
// @Success 200 {object} dto.Response[dto.ThemeSearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/curator/search [post]
func (h *CuratorHandler) SearchByTheme(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ThemeSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	limit, err := resolveLimit(req.Limit)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.searchSvc.SearchByTheme(ctx, &curator.ThemeSearchInput{
		Theme:    req.Theme,
		Scope:    repository.SearchScope(req.Scope),
		Limit:    limit,
		Provider: provider,
		Model:    model,
	})
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
		logger.Error(ctx, "failed to search by theme", err)
		dto.InternalError(c, "failed to search by theme")
		return
	}

	dto.Success(c, dto.ToThemeSearchResponse(result))
}
