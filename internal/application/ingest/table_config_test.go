package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeColumnName(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "lowercases", raw: "objectID", want: "objectid"},
		{name: "space becomes underscore", raw: "Display Date", want: "display_date"},
		{name: "dash becomes underscore", raw: "begin-year", want: "begin_year"},
		{name: "parentheses stripped", raw: "width (px)", want: "width_px"},
		{name: "other punctuation dropped", raw: "credit!line#", want: "creditline"},
		{name: "surrounding whitespace trimmed", raw: "  title  ", want: "title"},
		{name: "leading digit gets prefix", raw: "3dmodel", want: "col_3dmodel"},
		{name: "underscores kept", raw: "iiif_thumb_url", want: "iiif_thumb_url"},
		{name: "empty stays empty", raw: "", want: ""},
		{name: "only punctuation stays empty", raw: "(!)", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeColumnName(tt.raw))
		})
	}
}

func TestCatalogTables(t *testing.T) {
	tables := CatalogTables()
	require.Len(t, tables, 7)

	byName := make(map[string]TableConfig, len(tables))
	for _, tc := range tables {
		byName[tc.Name] = tc
	}

	images, ok := byName["published_images"]
	require.True(t, ok)
	assert.Equal(t, "objectid", images.ColumnRenames["depictstmsobjectid"])
	assert.True(t, images.RequireObjectFK)
	assert.Equal(t, []string{"objects"}, images.DependsOn)

	relations, ok := byName["objects_constituents"]
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"objects", "constituents"}, relations.DependsOn)

	for _, tc := range tables {
		assert.NotEmpty(t, tc.Columns, "table %s declares no columns", tc.Name)
		assert.Equal(t, tc.Name+".csv", tc.File)
	}
}

func TestDependencyOrder(t *testing.T) {
	t.Run("catalog tables order deterministically", func(t *testing.T) {
		ordered, err := DependencyOrder(CatalogTables())
		require.NoError(t, err)

		names := make([]string, 0, len(ordered))
		for _, tc := range ordered {
			names = append(names, tc.Name)
		}
		assert.Equal(t, []string{
			"constituents", "locations", "objects",
			"objects_constituents", "objects_terms", "objects_text_entries", "published_images",
		}, names)
	})

	t.Run("dependencies come before dependents", func(t *testing.T) {
		ordered, err := DependencyOrder(CatalogTables())
		require.NoError(t, err)

		pos := make(map[string]int, len(ordered))
		for i, tc := range ordered {
			pos[tc.Name] = i
		}
		for _, tc := range ordered {
			for _, dep := range tc.DependsOn {
				assert.Less(t, pos[dep], pos[tc.Name], "%s must load after %s", tc.Name, dep)
			}
		}
	})

	t.Run("duplicate table name rejected", func(t *testing.T) {
		_, err := DependencyOrder([]TableConfig{{Name: "objects"}, {Name: "objects"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate table config: objects")
	})

	t.Run("unknown dependency rejected", func(t *testing.T) {
		_, err := DependencyOrder([]TableConfig{
			{Name: "objects_terms", DependsOn: []string{"objects"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "depends on unknown table objects")
	})

	t.Run("cycle rejected", func(t *testing.T) {
		_, err := DependencyOrder([]TableConfig{
			{Name: "a", DependsOn: []string{"b"}},
			{Name: "b", DependsOn: []string{"a"}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dependency cycle among tables: a, b")
	})
}
