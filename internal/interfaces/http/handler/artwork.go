// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dslans/NGA-opendata/internal/application/curator"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	"github.com/dslans/NGA-opendata/internal/interfaces/http/dto"
	"github.com/dslans/NGA-opendata/pkg/errors"
	"github.com/dslans/NGA-opendata/pkg/logger"
)

// ArtworkHandler 艺术品检索与详情处理器
type ArtworkHandler struct {
	searchSvc  *curator.SearchService
	detailSvc  *curator.DetailService
	browseRepo repository.ArtworkBrowseRepository
}

// NewArtworkHandler 创建艺术品处理器
func NewArtworkHandler(searchSvc *curator.SearchService, detailSvc *curator.DetailService, browseRepo repository.ArtworkBrowseRepository) *ArtworkHandler {
	return &ArtworkHandler{
		searchSvc:  searchSvc,
		detailSvc:  detailSvc,
		browseRepo: browseRepo,
	}
}

// SearchByKeywords 关键词直查
// @Summary 关键词检索艺术品
// @Description 按给定关键词检索馆藏，不经过 LLM
// @Tags Artworks
// @Accept json
// @Produce json
// @Param body body dto.KeywordSearchRequest true "检索请求"
// @Success 200 {object} dto.Response[dto.KeywordSearchResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/artworks/search [post]
func (h *ArtworkHandler) SearchByKeywords(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.KeywordSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	limit, err := resolveLimit(req.Limit)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	result, err := h.searchSvc.SearchByKeywords(ctx, &curator.SearchInput{
		Keywords: req.Keywords,
		Scope:    repository.SearchScope(req.Scope),
		Limit:    limit,
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
		logger.Error(ctx, "failed to search artworks", err)
		dto.InternalError(c, "failed to search artworks")
		return
	}

	dto.Success(c, dto.ToKeywordSearchResponse(result))
}

// ListArtworks 分页浏览馆藏
// @Summary 浏览馆藏
// @Description 分页浏览已入藏的艺术品，支持分类与艺术家过滤
// @Tags Artworks
// @Accept json
// @Produce json
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Param classification query string false "分类过滤"
// @Param artist query string false "艺术家名称模糊过滤"
// @Param with_image query bool false "仅含主图作品"
// @Success 200 {object} dto.Response[[]dto.ArtObjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/artworks [get]
func (h *ArtworkHandler) ListArtworks(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.BrowseArtworksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		dto.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}
	page := dto.BindPage(c)
	sort := bindBrowseSort(c)

	filter := &repository.BrowseFilter{
		Classification: strings.TrimSpace(req.Classification),
		Artist:         strings.TrimSpace(req.Artist),
		OnlyWithImage:  req.WithImage,
	}

	result, err := h.browseRepo.List(ctx, filter,
		repository.NewPagination(page.Page, page.PageSize), sort)
	if err != nil {
		logger.Error(ctx, "failed to list artworks", err)
		dto.InternalError(c, "failed to list artworks")
		return
	}

	resp := dto.ToArtObjectListResponse(result.Items)
	dto.SuccessWithPage(c, resp, dto.NewPageMeta(result.Page, result.PageSize, int(result.Total)))
}

// GetArtwork 获取单件艺术品
// @Summary 获取艺术品
// @Description 按 objectid 获取单件艺术品的完整字段
// @Tags Artworks
// @Accept json
// @Produce json
// @Param objectid path int true "艺术品编号"
// @Success 200 {object} dto.Response[dto.ArtObjectResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/artworks/{objectid} [get]
func (h *ArtworkHandler) GetArtwork(c *gin.Context) {
	ctx := c.Request.Context()

	objectID, err := dto.BindObjectID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	object, err := h.detailSvc.GetArtwork(ctx, objectID)
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
		logger.Error(ctx, "failed to get artwork", err)
		dto.InternalError(c, "failed to get artwork")
		return
	}

	dto.Success(c, dto.ToArtObjectResponse(object))
}

// GetProvenance 获取来源链
// @Summary 获取来源链
// @Description 按 displayorder 升序返回前藏家与捐赠人
// @Tags Artworks
// @Accept json
// @Produce json
// @Param objectid path int true "艺术品编号"
// @Success 200 {object} dto.Response[[]dto.ProvenanceEntryResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/artworks/{objectid}/provenance [get]
func (h *ArtworkHandler) GetProvenance(c *gin.Context) {
	ctx := c.Request.Context()

	objectID, err := dto.BindObjectID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	entries, err := h.detailSvc.GetProvenance(ctx, objectID)
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
		logger.Error(ctx, "failed to get provenance", err)
		dto.InternalError(c, "failed to get provenance")
		return
	}

	dto.Success(c, dto.ToProvenanceResponse(entries))
}

// GetTextEntries 获取文本条目
// @Summary 获取文本条目
// @Description 按 (texttype, year) 升序返回展览历史与文献记录
// @Tags Artworks
// @Accept json
// @Produce json
// @Param objectid path int true "艺术品编号"
// @Success 200 {object} dto.Response[[]dto.TextEntryResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/artworks/{objectid}/text-entries [get]
func (h *ArtworkHandler) GetTextEntries(c *gin.Context) {
	ctx := c.Request.Context()

	objectID, err := dto.BindObjectID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	entries, err := h.detailSvc.GetTextEntries(ctx, objectID)
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
		logger.Error(ctx, "failed to get text entries", err)
		dto.InternalError(c, "failed to get text entries")
		return
	}

	dto.Success(c, dto.ToTextEntriesResponse(entries))
}

// GetRelatedArtworks 获取相关作品
// @Summary 获取相关作品
// @Description 返回同一主创艺术家的其他有主图作品，至多五件
// @Tags Artworks
// @Accept json
// @Produce json
// @Param objectid path int true "艺术品编号"
// @Success 200 {object} dto.Response[[]dto.RelatedArtworkResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/artworks/{objectid}/related [get]
func (h *ArtworkHandler) GetRelatedArtworks(c *gin.Context) {
	ctx := c.Request.Context()

	objectID, err := dto.BindObjectID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	related, err := h.detailSvc.GetRelatedArtworks(ctx, objectID)
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
		logger.Error(ctx, "failed to get related artworks", err)
		dto.InternalError(c, "failed to get related artworks")
		return
	}

	dto.Success(c, dto.ToRelatedArtworksResponse(related))
}

// GetArtworkDetails 获取详情聚合文档
// @Summary 获取详情聚合文档
// @Description 并发拉取艺术品本体、来源链、文本条目与相关作品
// @Tags Artworks
// @Accept json
// @Produce json
// @Param objectid path int true "艺术品编号"
// @Success 200 {object} dto.Response[dto.ArtworkDetailsResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/artworks/{objectid}/details [get]
func (h *ArtworkHandler) GetArtworkDetails(c *gin.Context) {
	ctx := c.Request.Context()

	objectID, err := dto.BindObjectID(c)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	details, err := h.detailSvc.GetArtworkDetails(ctx, objectID)
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
		logger.Error(ctx, "failed to get artwork details", err)
		dto.InternalError(c, "failed to get artwork details")
		return
	}

	dto.Success(c, dto.ToArtworkDetailsResponse(details))
}

// bindBrowseSort 从查询参数绑定排序，字段白名单在仓储层兜底
func bindBrowseSort(c *gin.Context) repository.Sort {
	field := strings.TrimSpace(c.Query("sort"))
	if field == "" {
		field = "objectid"
	}
	order := repository.SortOrderAsc
	if strings.EqualFold(c.Query("order"), "desc") {
		order = repository.SortOrderDesc
	}
	return repository.NewSort(field, order)
}
