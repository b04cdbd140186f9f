// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/dslans/NGA-opendata/internal/domain/entity"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

// ArtworkDetailRepo 艺术品详情仓储实现
type ArtworkDetailRepo struct {
	client *Client
}

// NewArtworkDetailRepo 创建艺术品详情仓储
func NewArtworkDetailRepo(client *Client) *ArtworkDetailRepo {
	return &ArtworkDetailRepo{client: client}
}

// GetByID 根据 objectid 获取艺术品
func (r *ArtworkDetailRepo) GetByID(ctx context.Context, objectID int64) (*entity.ArtObject, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtworkDetailRepo.GetByID")
	defer span.End()

	query := `
		SELECT objectid, accessioned, accessionnum, title, displaydate,
		       beginyear, endyear, medium, dimensions, classification,
		       attribution, creditline, locationid
		FROM objects
		WHERE objectid = $1`

	row := getQuerier(ctx, r.client.sqlDB).QueryRowContext(ctx, query, objectID)

	obj, err := scanArtObject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get artwork: %w", err)
	}

	return obj, nil
}

// GetProvenance 获取来源链（前藏家与捐赠人），按 displayorder 升序
func (r *ArtworkDetailRepo) GetProvenance(ctx context.Context, objectID int64) ([]*repository.ProvenanceEntry, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtworkDetailRepo.GetProvenance")
	defer span.End()

	roleTypes := make([]string, 0, len(entity.ProvenanceRoleTypes))
	for _, rt := range entity.ProvenanceRoleTypes {
		roleTypes = append(roleTypes, string(rt))
	}

	query := `
		SELECT oc.roletype, oc.role, c.displaydate, c.preferreddisplayname, oc.displayorder
		FROM objects_constituents oc
		JOIN constituents c ON c.constituentid = oc.constituentid
		WHERE oc.objectid = $1
		  AND oc.roletype = ANY($2)
		ORDER BY oc.displayorder ASC NULLS LAST`

	rows, err := getQuerier(ctx, r.client.sqlDB).QueryContext(ctx, query, objectID, pq.Array(roleTypes))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query provenance: %w", err)
	}
	defer rows.Close()

	entries := make([]*repository.ProvenanceEntry, 0)
	for rows.Next() {
		var (
			entry        repository.ProvenanceEntry
			role         sql.NullString
			displayDate  sql.NullString
			name         sql.NullString
			displayOrder sql.NullInt64
		)
		if err := rows.Scan(&entry.RoleType, &role, &displayDate, &name, &displayOrder); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan provenance entry: %w", err)
		}
		entry.Role = role.String
		entry.DisplayDate = displayDate.String
		entry.Name = name.String
		if displayOrder.Valid {
			order := int(displayOrder.Int64)
			entry.DisplayOrder = &order
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate provenance entries: %w", err)
	}

	return entries, nil
}

// GetTextEntries 获取文本条目，按 (texttype, year) 升序
func (r *ArtworkDetailRepo) GetTextEntries(ctx context.Context, objectID int64) ([]*entity.TextEntry, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtworkDetailRepo.GetTextEntries")
	defer span.End()

	query := `
		SELECT objectid, texttype, text, year
		FROM objects_text_entries
		WHERE objectid = $1
		ORDER BY texttype ASC, year ASC`

	rows, err := getQuerier(ctx, r.client.sqlDB).QueryContext(ctx, query, objectID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query text entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*entity.TextEntry, 0)
	for rows.Next() {
		var (
			e        entity.TextEntry
			textType sql.NullString
			text     sql.NullString
			year     sql.NullString
		)
		if err := rows.Scan(&e.ObjectID, &textType, &text, &year); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan text entry: %w", err)
		}
		e.TextType = textType.String
		e.Text = text.String
		e.Year = year.String
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate text entries: %w", err)
	}

	return entries, nil
}

// GetRelatedArtworks 获取同一主创艺术家的其他作品
// 主创取 displayorder 最小的 artist 关联；种子作品无艺术家时返回空切片
func (r *ArtworkDetailRepo) GetRelatedArtworks(ctx context.Context, objectID int64, limit int) ([]*repository.RelatedArtwork, error) {
	ctx, span := tracer.Start(ctx, "postgres.ArtworkDetailRepo.GetRelatedArtworks")
	defer span.End()

	query := `
		SELECT o.objectid, o.title, o.displaydate, img.iiifurl
		FROM objects_constituents oc
		JOIN objects o ON o.objectid = oc.objectid
		JOIN LATERAL (
			SELECT pi.iiifurl
			FROM published_images pi
			WHERE pi.objectid = o.objectid
			  AND pi.viewtype = 'primary'
			  AND pi.iiifurl IS NOT NULL
			ORDER BY pi.uuid
			LIMIT 1
		) img ON true
		WHERE oc.constituentid = (
			SELECT oc2.constituentid
			FROM objects_constituents oc2
			WHERE oc2.objectid = $1
			  AND oc2.roletype = 'artist'
			ORDER BY oc2.displayorder ASC NULLS LAST, oc2.constituentid
			LIMIT 1
		)
		  AND oc.roletype = 'artist'
		  AND oc.objectid <> $1
		ORDER BY o.displaydate ASC
		LIMIT $2`

	rows, err := getQuerier(ctx, r.client.sqlDB).QueryContext(ctx, query, objectID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query related artworks: %w", err)
	}
	defer rows.Close()

	related := make([]*repository.RelatedArtwork, 0, limit)
	seen := make(map[int64]struct{})
	for rows.Next() {
		var (
			rel         repository.RelatedArtwork
			title       sql.NullString
			displayDate sql.NullString
		)
		if err := rows.Scan(&rel.ObjectID, &title, &displayDate, &rel.IIIFURL); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan related artwork: %w", err)
		}
		if _, ok := seen[rel.ObjectID]; ok {
			continue
		}
		seen[rel.ObjectID] = struct{}{}
		rel.Title = title.String
		rel.DisplayDate = displayDate.String
		related = append(related, &rel)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate related artworks: %w", err)
	}

	return related, nil
}

// rowScanner 兼容 sql.Row 与 sql.Rows 的扫描接口
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanArtObject 扫描一行 objects 记录
func scanArtObject(s rowScanner) (*entity.ArtObject, error) {
	var (
		obj            entity.ArtObject
		accessionNum   sql.NullString
		title          sql.NullString
		displayDate    sql.NullString
		beginYear      sql.NullInt64
		endYear        sql.NullInt64
		medium         sql.NullString
		dimensions     sql.NullString
		classification sql.NullString
		attribution    sql.NullString
		creditLine     sql.NullString
		locationID     sql.NullInt64
	)

	err := s.Scan(
		&obj.ObjectID,
		&obj.Accessioned,
		&accessionNum,
		&title,
		&displayDate,
		&beginYear,
		&endYear,
		&medium,
		&dimensions,
		&classification,
		&attribution,
		&creditLine,
		&locationID,
	)
	if err != nil {
		return nil, err
	}

	obj.AccessionNum = accessionNum.String
	obj.Title = title.String
	obj.DisplayDate = displayDate.String
	if beginYear.Valid {
		year := int(beginYear.Int64)
		obj.BeginYear = &year
	}
	if endYear.Valid {
		year := int(endYear.Int64)
		obj.EndYear = &year
	}
	obj.Medium = medium.String
	obj.Dimensions = dimensions.String
	obj.Classification = classification.String
	obj.Attribution = attribution.String
	obj.CreditLine = creditLine.String
	if locationID.Valid {
		obj.LocationID = &locationID.Int64
	}

	return &obj, nil
}
