// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/dslans/NGA-opendata/internal/application/curator"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	wfmodel "github.com/dslans/NGA-opendata/internal/workflow/model"
)

// ExtractKeywordsRequest 关键词提取请求
type ExtractKeywordsRequest struct {
	Theme    string `json:"theme" binding:"required,max=2000"`
	Provider string `json:"provider,omitempty" binding:"omitempty,max=32"`
	Model    string `json:"model,omitempty" binding:"omitempty,max=64"`
}

// ThemeSearchRequest 主题策展检索请求
type ThemeSearchRequest struct {
	Theme    string `json:"theme" binding:"required,max=2000"`
	Scope    string `json:"scope,omitempty" binding:"omitempty,oneof=comprehensive terms_only title_only"`
	Limit    *int   `json:"limit,omitempty"`
	Provider string `json:"provider,omitempty" binding:"omitempty,max=32"`
	Model    string `json:"model,omitempty" binding:"omitempty,max=64"`
}

// KeywordSearchRequest 关键词直查请求，不经过 LLM
type KeywordSearchRequest struct {
	Keywords []string `json:"keywords" binding:"required,min=1,max=20,dive,max=100"`
	Scope    string   `json:"scope,omitempty" binding:"omitempty,oneof=comprehensive terms_only title_only"`
	Limit    *int     `json:"limit,omitempty"`
}

// LLMUsage 一次模型调用的用量
type LLMUsage struct {
	Provider         string `json:"provider"`
	Model            string `json:"model,omitempty"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
}

// ExtractKeywordsResponse 关键词提取响应
type ExtractKeywordsResponse struct {
	Theme    string    `json:"theme"`
	Keywords []string  `json:"keywords"`
	Source   string    `json:"source"`
	Usage    *LLMUsage `json:"usage,omitempty"`
}

// ArtworkResult 检索结果行，艺术家字段可为空
type ArtworkResult struct {
	ObjectID          int64   `json:"objectid"`
	Title             string  `json:"title"`
	DisplayDate       string  `json:"displaydate,omitempty"`
	BeginYear         *int    `json:"beginyear,omitempty"`
	Medium            string  `json:"medium,omitempty"`
	Classification    string  `json:"classification,omitempty"`
	Attribution       string  `json:"attribution,omitempty"`
	Artist            *string `json:"artist,omitempty"`
	ArtistDisplayDate *string `json:"artist_displaydate,omitempty"`
	ArtistNationality *string `json:"artist_nationality,omitempty"`
	AllTerms          string  `json:"all_terms,omitempty"`
	IIIFURL           string  `json:"iiifurl"`
	IIIFThumbURL      string  `json:"iiifthumburl,omitempty"`
}

// ResultStatsResponse 当前结果集的聚合统计
type ResultStatsResponse struct {
	TotalResults    int            `json:"total_results"`
	DistinctArtists int            `json:"distinct_artists"`
	Classifications map[string]int `json:"classifications"`
	EarliestYear    *int           `json:"earliest_year,omitempty"`
	LatestYear      *int           `json:"latest_year,omitempty"`
}

// KeywordSearchResponse 关键词检索响应
type KeywordSearchResponse struct {
	Keywords []string             `json:"keywords"`
	Scope    string               `json:"scope"`
	Limit    int                  `json:"limit"`
	Results  []*ArtworkResult     `json:"results"`
	Stats    *ResultStatsResponse `json:"stats"`
}

// ThemeSearchResponse 主题策展检索响应
// KeywordSource 为 fallback 时表示提取失败、按原始主题降级检索。
type ThemeSearchResponse struct {
	Theme         string               `json:"theme"`
	Keywords      []string             `json:"keywords"`
	KeywordSource string               `json:"keyword_source"`
	Usage         *LLMUsage            `json:"usage,omitempty"`
	Scope         string               `json:"scope"`
	Limit         int                  `json:"limit"`
	Results       []*ArtworkResult     `json:"results"`
	Stats         *ResultStatsResponse `json:"stats"`
}

// ToLLMUsage 转换模型用量
func ToLLMUsage(meta *wfmodel.LLMUsageMeta) *LLMUsage {
	if meta == nil {
		return nil
	}
	return &LLMUsage{
		Provider:         meta.Provider,
		Model:            meta.Model,
		PromptTokens:     meta.PromptTokens,
		CompletionTokens: meta.CompletionTokens,
		TotalTokens:      meta.PromptTokens + meta.CompletionTokens,
	}
}

// ToExtractKeywordsResponse 转换关键词提取结果
func ToExtractKeywordsResponse(result *curator.KeywordResult) *ExtractKeywordsResponse {
	return &ExtractKeywordsResponse{
		Theme:    result.Theme,
		Keywords: result.Keywords,
		Source:   result.Source,
		Usage:    ToLLMUsage(result.Usage),
	}
}

// ToArtworkResults 转换检索结果行
func ToArtworkResults(rows []*repository.ResultRow) []*ArtworkResult {
	results := make([]*ArtworkResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, &ArtworkResult{
			ObjectID:          row.ObjectID,
			Title:             row.Title,
			DisplayDate:       row.DisplayDate,
			BeginYear:         row.BeginYear,
			Medium:            row.Medium,
			Classification:    row.Classification,
			Attribution:       row.Attribution,
			Artist:            row.Artist,
			ArtistDisplayDate: row.ArtistDisplayDate,
			ArtistNationality: row.ArtistNationality,
			AllTerms:          row.AllTerms,
			IIIFURL:           row.IIIFURL,
			IIIFThumbURL:      row.IIIFThumbURL,
		})
	}
	return results
}

// ToResultStats 转换结果集统计
func ToResultStats(stats *curator.ResultStats) *ResultStatsResponse {
	if stats == nil {
		return nil
	}
	return &ResultStatsResponse{
		TotalResults:    stats.TotalResults,
		DistinctArtists: stats.DistinctArtists,
		Classifications: stats.Classifications,
		EarliestYear:    stats.EarliestYear,
		LatestYear:      stats.LatestYear,
	}
}

// ToKeywordSearchResponse 转换关键词检索结果
func ToKeywordSearchResponse(result *curator.SearchResult) *KeywordSearchResponse {
	return &KeywordSearchResponse{
		Keywords: result.Keywords,
		Scope:    string(result.Scope),
		Limit:    result.Limit,
		Results:  ToArtworkResults(result.Rows),
		Stats:    ToResultStats(result.Stats),
	}
}

// ToThemeSearchResponse 转换主题检索结果
func ToThemeSearchResponse(result *curator.ThemeSearchResult) *ThemeSearchResponse {
	resp := &ThemeSearchResponse{
		Theme:         result.Theme,
		Keywords:      result.Keywords,
		KeywordSource: result.KeywordSource,
		Usage:         ToLLMUsage(result.Usage),
	}
	if result.Search != nil {
		resp.Scope = string(result.Search.Scope)
		resp.Limit = result.Search.Limit
		resp.Results = ToArtworkResults(result.Search.Rows)
		resp.Stats = ToResultStats(result.Search.Stats)
	}
	return resp
}
