// Package repository 定义数据访问层接口
package repository

import (
	"context"
)

// SearchScope 关键词匹配的列范围
type SearchScope string

const (
	// ScopeComprehensive 匹配标题、标签、艺术家、材质、分类
	ScopeComprehensive SearchScope = "comprehensive"
	// ScopeTermsOnly 仅匹配标签
	ScopeTermsOnly SearchScope = "terms_only"
	// ScopeTitleOnly 仅匹配标题
	ScopeTitleOnly SearchScope = "title_only"
)

// Valid 校验范围取值是否合法
func (s SearchScope) Valid() bool {
	switch s {
	case ScopeComprehensive, ScopeTermsOnly, ScopeTitleOnly:
		return true
	}
	return false
}

// SearchQuery 艺术品检索请求
// 关键词之间为 OR 关系，每个关键词按不区分大小写的子串匹配
type SearchQuery struct {
	Keywords []string
	Scope    SearchScope
	Limit    int
}

// ResultRow 检索结果行，字段已反规范化便于直接展示
type ResultRow struct {
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

// HasArtist 判断结果行是否带有艺术家信息
func (r *ResultRow) HasArtist() bool {
	return r.Artist != nil && *r.Artist != ""
}

// ArtworkSearchRepository 艺术品检索仓储接口
type ArtworkSearchRepository interface {
	// Search 按关键词检索艺术品
	// 只返回已入藏且有主图的艺术品；无匹配时返回空切片而非错误
	Search(ctx context.Context, query SearchQuery) ([]*ResultRow, error)
}
