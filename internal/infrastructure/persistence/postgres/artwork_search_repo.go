// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

// ArtworkSearchRepo 艺术品检索仓储实现
// 一次检索对应一条动态拼装的参数化查询：
//   - 主图与主创艺术家通过 LATERAL 子查询选出，保证每件作品只产生一行
//   - 关键词谓词按范围展开为 OR 链，关键词值始终走绑定参数
type ArtworkSearchRepo struct {
	client *Client
}

// NewArtworkSearchRepo 创建艺术品检索仓储
func NewArtworkSearchRepo(client *Client) *ArtworkSearchRepo {
	return &ArtworkSearchRepo{client: client}
}

const searchSelect = `
SELECT
	o.objectid,
	o.title,
	o.displaydate,
	o.beginyear,
	o.medium,
	o.classification,
	o.attribution,
	a.preferreddisplayname,
	a.displaydate AS artist_displaydate,
	a.nationality,
	t.all_terms,
	img.iiifurl,
	img.iiifthumburl
FROM objects o
JOIN LATERAL (
	SELECT pi.iiifurl, pi.iiifthumburl
	FROM published_images pi
	WHERE pi.objectid = o.objectid
	  AND pi.viewtype = 'primary'
	  AND pi.iiifurl IS NOT NULL
	ORDER BY pi.uuid
	LIMIT 1
) img ON true
LEFT JOIN LATERAL (
	SELECT c.preferreddisplayname, c.displaydate, c.nationality
	FROM objects_constituents oc
	JOIN constituents c ON c.constituentid = oc.constituentid
	WHERE oc.objectid = o.objectid
	  AND oc.roletype = 'artist'
	ORDER BY oc.displayorder ASC NULLS LAST, c.constituentid
	LIMIT 1
) a ON true
LEFT JOIN LATERAL (
	SELECT string_agg(DISTINCT ot.term, ', ' ORDER BY ot.term) AS all_terms
	FROM objects_terms ot
	WHERE ot.objectid = o.objectid
) t ON true`

// Search 按关键词检索艺术品
func (r *ArtworkSearchRepo) Search(ctx context.Context, query repository.SearchQuery) ([]*repository.ResultRow, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtworkSearchRepo.Search")
	defer span.End()

	querySQL, args := buildSearchQuery(query)

	rows, err := getQuerier(ctx, r.client.sqlDB).QueryContext(ctx, querySQL, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search artworks: %w", err)
	}
	defer rows.Close()

	results := make([]*repository.ResultRow, 0, query.Limit)
	seen := make(map[int64]struct{})
	for rows.Next() {
		row, err := scanResultRow(rows)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		// LATERAL 已保证每件作品一行，这里再按 objectid 保序去重兜底
		if _, ok := seen[row.ObjectID]; ok {
			continue
		}
		seen[row.ObjectID] = struct{}{}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate search results: %w", err)
	}

	return results, nil
}

// buildSearchQuery 组装整条检索语句
// 关键词与 limit 全部走绑定参数，SQL 文本中只出现 $n 占位符。
func buildSearchQuery(query repository.SearchQuery) (string, []interface{}) {
	whereClause := "o.accessioned = true"
	args := []interface{}{}
	argIdx := 1

	predicates, predArgs := buildKeywordPredicates(query.Scope, query.Keywords, argIdx)
	whereClause += " AND " + predicates
	args = append(args, predArgs...)
	argIdx += len(predArgs)

	// 有艺术家的作品优先，其余按创作起始年份降序
	querySQL := fmt.Sprintf(`%s
WHERE %s
ORDER BY (a.preferreddisplayname IS NOT NULL) DESC, o.beginyear DESC NULLS LAST, o.objectid
LIMIT $%d`, searchSelect, whereClause, argIdx)
	args = append(args, query.Limit)

	return querySQL, args
}

// buildKeywordPredicates 将关键词列表展开为 OR 谓词链
// 返回的 SQL 片段只包含 $n 占位符，关键词值全部在 args 中绑定
func buildKeywordPredicates(scope repository.SearchScope, keywords []string, argIdx int) (string, []interface{}) {
	preds := make([]string, 0, len(keywords))
	args := make([]interface{}, 0, len(keywords))

	for _, kw := range keywords {
		ph := fmt.Sprintf("$%d", argIdx)
		var p string
		switch scope {
		case repository.ScopeTitleOnly:
			p = fmt.Sprintf("o.title ILIKE '%%' || %s || '%%'", ph)
		case repository.ScopeTermsOnly:
			p = fmt.Sprintf(
				"EXISTS (SELECT 1 FROM objects_terms mt WHERE mt.objectid = o.objectid AND mt.term ILIKE '%%' || %s || '%%')",
				ph,
			)
		default:
			p = fmt.Sprintf(
				"(o.title ILIKE '%%' || %[1]s || '%%'"+
					" OR a.preferreddisplayname ILIKE '%%' || %[1]s || '%%'"+
					" OR o.medium ILIKE '%%' || %[1]s || '%%'"+
					" OR o.classification ILIKE '%%' || %[1]s || '%%'"+
					" OR EXISTS (SELECT 1 FROM objects_terms mt WHERE mt.objectid = o.objectid AND mt.term ILIKE '%%' || %[1]s || '%%'))",
				ph,
			)
		}
		preds = append(preds, p)
		args = append(args, kw)
		argIdx++
	}

	return "(" + strings.Join(preds, " OR ") + ")", args
}

// scanResultRow 从查询结果扫描一行检索结果
func scanResultRow(rows *sql.Rows) (*repository.ResultRow, error) {
	var (
		row               repository.ResultRow
		title             sql.NullString
		displayDate       sql.NullString
		beginYear         sql.NullInt64
		medium            sql.NullString
		classification    sql.NullString
		attribution       sql.NullString
		artist            sql.NullString
		artistDisplayDate sql.NullString
		nationality       sql.NullString
		allTerms          sql.NullString
		iiifThumbURL      sql.NullString
	)

	err := rows.Scan(
		&row.ObjectID,
		&title,
		&displayDate,
		&beginYear,
		&medium,
		&classification,
		&attribution,
		&artist,
		&artistDisplayDate,
		&nationality,
		&allTerms,
		&row.IIIFURL,
		&iiifThumbURL,
	)
	if err != nil {
		return nil, err
	}

	row.Title = title.String
	row.DisplayDate = displayDate.String
	if beginYear.Valid {
		year := int(beginYear.Int64)
		row.BeginYear = &year
	}
	row.Medium = medium.String
	row.Classification = classification.String
	row.Attribution = attribution.String
	if artist.Valid {
		row.Artist = &artist.String
	}
	if artistDisplayDate.Valid {
		row.ArtistDisplayDate = &artistDisplayDate.String
	}
	if nationality.Valid {
		row.ArtistNationality = &nationality.String
	}
	row.AllTerms = allTerms.String
	row.IIIFThumbURL = iiifThumbURL.String

	return &row, nil
}
