// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"github.com/dslans/NGA-opendata/internal/application/curator"
	"github.com/dslans/NGA-opendata/internal/domain/entity"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

// BrowseArtworksRequest 馆藏浏览过滤参数
type BrowseArtworksRequest struct {
	Classification string `form:"classification" binding:"omitempty,max=64"`
	Artist         string `form:"artist" binding:"omitempty,max=255"`
	WithImage      bool   `form:"with_image"`
}

// ArtObjectResponse 艺术品完整信息
type ArtObjectResponse struct {
	ObjectID       int64  `json:"objectid"`
	Accessioned    bool   `json:"accessioned"`
	AccessionNum   string `json:"accessionnum,omitempty"`
	Title          string `json:"title,omitempty"`
	DisplayDate    string `json:"displaydate,omitempty"`
	BeginYear      *int   `json:"beginyear,omitempty"`
	EndYear        *int   `json:"endyear,omitempty"`
	Medium         string `json:"medium,omitempty"`
	Dimensions     string `json:"dimensions,omitempty"`
	Classification string `json:"classification,omitempty"`
	Attribution    string `json:"attribution,omitempty"`
	CreditLine     string `json:"creditline,omitempty"`
	LocationID     *int64 `json:"locationid,omitempty"`
}

// ProvenanceEntryResponse 来源链条目
type ProvenanceEntryResponse struct {
	RoleType     string `json:"roletype"`
	Role         string `json:"role,omitempty"`
	DisplayDate  string `json:"displaydate,omitempty"`
	Name         string `json:"name"`
	DisplayOrder *int   `json:"displayorder,omitempty"`
}

// TextEntryResponse 文本条目
type TextEntryResponse struct {
	TextType string `json:"texttype,omitempty"`
	Text     string `json:"text,omitempty"`
	Year     string `json:"year,omitempty"`
}

// RelatedArtworkResponse 同一艺术家的相关作品
type RelatedArtworkResponse struct {
	ObjectID    int64  `json:"objectid"`
	Title       string `json:"title"`
	DisplayDate string `json:"displaydate,omitempty"`
	IIIFURL     string `json:"iiifurl"`
}

// ArtworkDetailsResponse 详情聚合文档
type ArtworkDetailsResponse struct {
	Object      *ArtObjectResponse         `json:"object"`
	Provenance  []*ProvenanceEntryResponse `json:"provenance"`
	TextEntries []*TextEntryResponse       `json:"text_entries"`
	Related     []*RelatedArtworkResponse  `json:"related"`
}

// ToArtObjectResponse 转换艺术品实体
func ToArtObjectResponse(o *entity.ArtObject) *ArtObjectResponse {
	if o == nil {
		return nil
	}
	return &ArtObjectResponse{
		ObjectID:       o.ObjectID,
		Accessioned:    o.Accessioned,
		AccessionNum:   o.AccessionNum,
		Title:          o.Title,
		DisplayDate:    o.DisplayDate,
		BeginYear:      o.BeginYear,
		EndYear:        o.EndYear,
		Medium:         o.Medium,
		Dimensions:     o.Dimensions,
		Classification: o.Classification,
		Attribution:    o.Attribution,
		CreditLine:     o.CreditLine,
		LocationID:     o.LocationID,
	}
}

// ToArtObjectListResponse 转换艺术品列表
func ToArtObjectListResponse(objects []*entity.ArtObject) []*ArtObjectResponse {
	list := make([]*ArtObjectResponse, 0, len(objects))
	for _, o := range objects {
		list = append(list, ToArtObjectResponse(o))
	}
	return list
}

// ToProvenanceResponse 转换来源链
func ToProvenanceResponse(entries []*repository.ProvenanceEntry) []*ProvenanceEntryResponse {
	list := make([]*ProvenanceEntryResponse, 0, len(entries))
	for _, e := range entries {
		list = append(list, &ProvenanceEntryResponse{
			RoleType:     e.RoleType,
			Role:         e.Role,
			DisplayDate:  e.DisplayDate,
			Name:         e.Name,
			DisplayOrder: e.DisplayOrder,
		})
	}
	return list
}

// ToTextEntriesResponse 转换文本条目
func ToTextEntriesResponse(entries []*entity.TextEntry) []*TextEntryResponse {
	list := make([]*TextEntryResponse, 0, len(entries))
	for _, e := range entries {
		list = append(list, &TextEntryResponse{
			TextType: e.TextType,
			Text:     e.Text,
			Year:     e.Year,
		})
	}
	return list
}

// ToRelatedArtworksResponse 转换相关作品
func ToRelatedArtworksResponse(related []*repository.RelatedArtwork) []*RelatedArtworkResponse {
	list := make([]*RelatedArtworkResponse, 0, len(related))
	for _, r := range related {
		list = append(list, &RelatedArtworkResponse{
			ObjectID:    r.ObjectID,
			Title:       r.Title,
			DisplayDate: r.DisplayDate,
			IIIFURL:     r.IIIFURL,
		})
	}
	return list
}

// ToArtworkDetailsResponse 转换详情聚合文档
func ToArtworkDetailsResponse(details *curator.ArtworkDetails) *ArtworkDetailsResponse {
	return &ArtworkDetailsResponse{
		Object:      ToArtObjectResponse(details.Object),
		Provenance:  ToProvenanceResponse(details.Provenance),
		TextEntries: ToTextEntriesResponse(details.TextEntries),
		Related:     ToRelatedArtworksResponse(details.Related),
	}
}
