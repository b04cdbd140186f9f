// Package ingest 实现馆藏目录 CSV 装载管线
package ingest

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// TableConfig 单张目录表的装载定义
// Columns 为目标表列名，CSV 多余列被忽略，缺少声明列则该表装载失败
type TableConfig struct {
	Name        string
	File        string
	Description string
	// Columns 目标列，顺序即 COPY 列顺序
	Columns []string
	// ColumnRenames 清洗后的 CSV 列名到目标列名的映射
	ColumnRenames map[string]string
	// DependsOn 必须先于本表装载的表
	DependsOn []string
	// RequireObjectFK 为真时丢弃 objectid 不在 objects 表中的行
	RequireObjectFK bool
}

// CatalogTables 返回全部目录表定义
// 仅覆盖检索与详情管线依赖的七张表，开放数据中的其余导出不装载
func CatalogTables() []TableConfig {
	return []TableConfig{
		{
			Name:        "objects",
			File:        "objects.csv",
			Description: "art objects, one row per accessioned or deaccessioned work",
			Columns: []string{
				"objectid", "accessioned", "accessionnum", "title", "displaydate",
				"beginyear", "endyear", "medium", "dimensions", "classification",
				"attribution", "creditline", "locationid",
			},
		},
		{
			Name:        "constituents",
			File:        "constituents.csv",
			Description: "artists, donors and former owners",
			Columns: []string{
				"constituentid", "preferreddisplayname", "displaydate",
				"nationality", "beginyear", "endyear", "artistofngaobject",
			},
		},
		{
			Name:        "objects_constituents",
			File:        "objects_constituents.csv",
			Description: "object to constituent relations with role types",
			Columns:     []string{"objectid", "constituentid", "roletype", "role", "displayorder"},
			DependsOn:   []string{"objects", "constituents"},
		},
		{
			Name:        "objects_terms",
			File:        "objects_terms.csv",
			Description: "subject, style and theme terms per object",
			Columns:     []string{"termid", "objectid", "termtype", "term"},
			DependsOn:   []string{"objects"},
		},
		{
			Name:        "published_images",
			File:        "published_images.csv",
			Description: "IIIF image records, primary view drives search eligibility",
			Columns: []string{
				"uuid", "iiifurl", "iiifthumburl", "viewtype",
				"width", "height", "objectid", "sequence",
			},
			ColumnRenames:   map[string]string{"depictstmsobjectid": "objectid"},
			DependsOn:       []string{"objects"},
			RequireObjectFK: true,
		},
		{
			Name:        "locations",
			File:        "locations.csv",
			Description: "gallery locations for on-view works",
			Columns:     []string{"locationid", "site", "room", "description", "unitposition"},
		},
		{
			Name:        "objects_text_entries",
			File:        "objects_text_entries.csv",
			Description: "exhibition history and bibliography text entries",
			Columns:     []string{"objectid", "texttype", "text", "year"},
			DependsOn:   []string{"objects"},
		},
	}
}

// SanitizeColumnName 将 CSV 表头清洗为合法的列名
// 小写，空格和连字符转下划线，括号剥除，其余非字母数字字符丢弃，
// 首字符为数字时加 col_ 前缀
func SanitizeColumnName(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r == ' ' || r == '-':
			b.WriteRune('_')
		case r == '(' || r == ')':
			// 括号直接剥除
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		return name
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "col_" + name
	}
	return name
}

// DependencyOrder 按依赖关系对表定义做拓扑排序
// 同层表按名称排序，保证装载顺序确定
func DependencyOrder(tables []TableConfig) ([]TableConfig, error) {
	byName := make(map[string]TableConfig, len(tables))
	indegree := make(map[string]int, len(tables))
	dependents := make(map[string][]string, len(tables))

	for _, tc := range tables {
		if _, ok := byName[tc.Name]; ok {
			return nil, fmt.Errorf("duplicate table config: %s", tc.Name)
		}
		byName[tc.Name] = tc
		indegree[tc.Name] = 0
	}
	for _, tc := range tables {
		for _, dep := range tc.DependsOn {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("table %s depends on unknown table %s", tc.Name, dep)
			}
			indegree[tc.Name]++
			dependents[dep] = append(dependents[dep], tc.Name)
		}
	}

	ready := make([]string, 0, len(tables))
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	ordered := make([]TableConfig, 0, len(tables))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		ordered = append(ordered, byName[name])

		next := dependents[name]
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
	}

	if len(ordered) != len(tables) {
		cyclic := make([]string, 0)
		for name, deg := range indegree {
			if deg > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, fmt.Errorf("dependency cycle among tables: %s", strings.Join(cyclic, ", "))
	}
	return ordered, nil
}
