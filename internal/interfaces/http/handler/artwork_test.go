package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dslans/NGA-opendata/internal/application/curator"
	"github.com/dslans/NGA-opendata/internal/domain/entity"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	"github.com/dslans/NGA-opendata/internal/interfaces/http/dto"
)

func newArtworkTestServer(searchRepo *fakeSearchRepo, detailRepo *fakeDetailRepo, browseRepo *fakeBrowseRepo) *gin.Engine {
	cfg := testServerConfig()
	keywordSvc := newKeywordService(cfg, &fakeModelFactory{model: &fakeChatModel{content: "unused"}})
	searchSvc := curator.NewSearchService(cfg, searchRepo, keywordSvc, nil)
	detailSvc := curator.NewDetailService(cfg, detailRepo)
	h := NewArtworkHandler(searchSvc, detailSvc, browseRepo)

	engine := gin.New()
	engine.POST("/v1/artworks/search", h.SearchByKeywords)
	engine.GET("/v1/artworks", h.ListArtworks)
	engine.GET("/v1/artworks/:objectid", h.GetArtwork)
	engine.GET("/v1/artworks/:objectid/provenance", h.GetProvenance)
	engine.GET("/v1/artworks/:objectid/text-entries", h.GetTextEntries)
	engine.GET("/v1/artworks/:objectid/related", h.GetRelatedArtworks)
	engine.GET("/v1/artworks/:objectid/details", h.GetArtworkDetails)
	return engine
}

func footbridgeDetailRepo() *fakeDetailRepo {
	begin := 1899
	order1, order2 := 1, 2
	return &fakeDetailRepo{
		objects: map[int64]*entity.ArtObject{
			1138: {
				ObjectID:       1138,
				Accessioned:    true,
				AccessionNum:   "1992.9.1",
				Title:          "The Japanese Footbridge",
				DisplayDate:    "1899",
				BeginYear:      &begin,
				Medium:         "oil on canvas",
				Classification: "Painting",
				Attribution:    "Claude Monet",
			},
		},
		provenance: map[int64][]*repository.ProvenanceEntry{
			1138: {
				{RoleType: "owner", Name: "Galerie Durand-Ruel, Paris", DisplayOrder: &order1},
				{RoleType: "donor", Name: "Victoria Nebeker Coberly", DisplayOrder: &order2},
			},
		},
		textEntries: map[int64][]*entity.TextEntry{
			1138: {
				{ObjectID: 1138, TextType: "bibliography", Text: "Kelder 1980", Year: "1980"},
			},
		},
		related: map[int64][]*repository.RelatedArtwork{
			1138: {
				{ObjectID: 52064, Title: "Seascape", DisplayDate: "1871", IIIFURL: "https://api.nga.gov/iiif/77f1d2aa"},
			},
		},
	}
}

func TestArtworkHandler_SearchByKeywords(t *testing.T) {
	t.Run("searches without llm", func(t *testing.T) {
		searchRepo := &fakeSearchRepo{rows: monetRows()}
		engine := newArtworkTestServer(searchRepo, footbridgeDetailRepo(), &fakeBrowseRepo{})

		w := performJSON(t, engine, http.MethodPost, "/v1/artworks/search",
			dto.KeywordSearchRequest{Keywords: []string{"Monet", "footbridge"}})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse[dto.KeywordSearchResponse](t, w)
		assert.Equal(t, []string{"monet", "footbridge"}, resp.Keywords)
		assert.Equal(t, "comprehensive", resp.Scope)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "The Japanese Footbridge", resp.Results[0].Title)
	})

	t.Run("empty keyword list rejected by binding", func(t *testing.T) {
		searchRepo := &fakeSearchRepo{}
		engine := newArtworkTestServer(searchRepo, footbridgeDetailRepo(), &fakeBrowseRepo{})

		w := performJSON(t, engine, http.MethodPost, "/v1/artworks/search",
			dto.KeywordSearchRequest{Keywords: []string{}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, searchRepo.queries)
	})

	t.Run("empty result is an empty list, not an error", func(t *testing.T) {
		searchRepo := &fakeSearchRepo{}
		engine := newArtworkTestServer(searchRepo, footbridgeDetailRepo(), &fakeBrowseRepo{})

		w := performJSON(t, engine, http.MethodPost, "/v1/artworks/search",
			dto.KeywordSearchRequest{Keywords: []string{"zzzunmatched"}})

		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse[dto.KeywordSearchResponse](t, w)
		assert.Empty(t, resp.Results)
		require.NotNil(t, resp.Stats)
		assert.Equal(t, 0, resp.Stats.TotalResults)
	})
}

func TestArtworkHandler_GetArtwork(t *testing.T) {
	engine := newArtworkTestServer(&fakeSearchRepo{}, footbridgeDetailRepo(), &fakeBrowseRepo{})

	t.Run("returns full object", func(t *testing.T) {
		w := performGet(engine, "/v1/artworks/1138")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse[dto.ArtObjectResponse](t, w)
		assert.Equal(t, int64(1138), resp.ObjectID)
		assert.Equal(t, "1992.9.1", resp.AccessionNum)
		assert.True(t, resp.Accessioned)
	})

	t.Run("unknown object is a 404", func(t *testing.T) {
		w := performGet(engine, "/v1/artworks/999999")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id is a bad request", func(t *testing.T) {
		for _, path := range []string{"/v1/artworks/abc", "/v1/artworks/0", "/v1/artworks/-5"} {
			w := performGet(engine, path)
			assert.Equal(t, http.StatusBadRequest, w.Code, "path %s", path)
		}
	})
}

func TestArtworkHandler_GetProvenance(t *testing.T) {
	engine := newArtworkTestServer(&fakeSearchRepo{}, footbridgeDetailRepo(), &fakeBrowseRepo{})

	w := performGet(engine, "/v1/artworks/1138/provenance")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse[[]*dto.ProvenanceEntryResponse](t, w)
	require.Len(t, resp, 2)
	assert.Equal(t, "owner", resp[0].RoleType)
	assert.Equal(t, "donor", resp[1].RoleType)
}

func TestArtworkHandler_GetTextEntries(t *testing.T) {
	engine := newArtworkTestServer(&fakeSearchRepo{}, footbridgeDetailRepo(), &fakeBrowseRepo{})

	w := performGet(engine, "/v1/artworks/1138/text-entries")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse[[]*dto.TextEntryResponse](t, w)
	require.Len(t, resp, 1)
	assert.Equal(t, "bibliography", resp[0].TextType)
}

func TestArtworkHandler_GetRelatedArtworks(t *testing.T) {
	engine := newArtworkTestServer(&fakeSearchRepo{}, footbridgeDetailRepo(), &fakeBrowseRepo{})

	w := performGet(engine, "/v1/artworks/1138/related")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse[[]*dto.RelatedArtworkResponse](t, w)
	require.Len(t, resp, 1)
	assert.Equal(t, int64(52064), resp[0].ObjectID)
}

func TestArtworkHandler_GetArtworkDetails(t *testing.T) {
	engine := newArtworkTestServer(&fakeSearchRepo{}, footbridgeDetailRepo(), &fakeBrowseRepo{})

	t.Run("aggregates all sections", func(t *testing.T) {
		w := performGet(engine, "/v1/artworks/1138/details")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse[dto.ArtworkDetailsResponse](t, w)
		require.NotNil(t, resp.Object)
		assert.Equal(t, int64(1138), resp.Object.ObjectID)
		assert.Len(t, resp.Provenance, 2)
		assert.Len(t, resp.TextEntries, 1)
		assert.Len(t, resp.Related, 1)
	})

	t.Run("missing object is a 404", func(t *testing.T) {
		w := performGet(engine, "/v1/artworks/424242/details")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestArtworkHandler_ListArtworks(t *testing.T) {
	t.Run("passes filters and pagination through", func(t *testing.T) {
		browseRepo := &fakeBrowseRepo{
			result: repository.NewPagedResult(
				[]*entity.ArtObject{{ObjectID: 1138, Title: "The Japanese Footbridge"}},
				41, repository.NewPagination(2, 20)),
		}
		engine := newArtworkTestServer(&fakeSearchRepo{}, footbridgeDetailRepo(), browseRepo)

		w := performGet(engine, "/v1/artworks?page=2&page_size=20&classification=Painting&artist=monet&with_image=true&sort=beginyear&order=desc")
		require.Equal(t, http.StatusOK, w.Code)

		require.NotNil(t, browseRepo.filter)
		assert.Equal(t, "Painting", browseRepo.filter.Classification)
		assert.Equal(t, "monet", browseRepo.filter.Artist)
		assert.True(t, browseRepo.filter.OnlyWithImage)
		assert.Equal(t, 2, browseRepo.page.Page)
		assert.Equal(t, 20, browseRepo.page.PageSize)
		assert.Equal(t, "beginyear", browseRepo.sort.Field)
		assert.Equal(t, repository.SortOrderDesc, browseRepo.sort.Order)

		var envelope struct {
			Meta *dto.PageMeta `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		require.NotNil(t, envelope.Meta)
		assert.Equal(t, 41, envelope.Meta.Total)
		assert.Equal(t, 3, envelope.Meta.TotalPages)
	})

	t.Run("defaults when no parameters given", func(t *testing.T) {
		browseRepo := &fakeBrowseRepo{
			result: repository.NewPagedResult([]*entity.ArtObject{}, 0, repository.NewPagination(1, 20)),
		}
		engine := newArtworkTestServer(&fakeSearchRepo{}, footbridgeDetailRepo(), browseRepo)

		w := performGet(engine, "/v1/artworks")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, browseRepo.page.Page)
		assert.Equal(t, 20, browseRepo.page.PageSize)
		assert.Equal(t, "objectid", browseRepo.sort.Field)
		assert.Equal(t, repository.SortOrderAsc, browseRepo.sort.Order)
	})
}
