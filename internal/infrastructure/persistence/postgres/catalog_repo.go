// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lib/pq"

	"github.com/dslans/NGA-opendata/internal/domain/entity"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
)

// CatalogRepo 馆藏目录装载仓储实现
// 整表重载走 COPY 协议；表与表之间没有跨表事务，
// 单表失败只影响该表，已装载的表保持可用
type CatalogRepo struct {
	client    *Client
	txManager *TxManager
}

// NewCatalogRepo 创建馆藏目录装载仓储
func NewCatalogRepo(client *Client, txManager *TxManager) *CatalogRepo {
	return &CatalogRepo{client: client, txManager: txManager}
}

// EnsureSchema 确保目录表结构存在
func (r *CatalogRepo) EnsureSchema(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.CatalogRepo.EnsureSchema")
	defer span.End()

	err := r.client.db.WithContext(ctx).AutoMigrate(
		&entity.ArtObject{},
		&entity.Constituent{},
		&entity.ObjectConstituent{},
		&entity.ObjectTerm{},
		&entity.PublishedImage{},
		&entity.Location{},
		&entity.TextEntry{},
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}
	return nil
}

// ReloadTable 清空并整表重载，返回写入行数
func (r *CatalogRepo) ReloadTable(ctx context.Context, table string, columns []string, rows repository.RowIterator) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.CatalogRepo.ReloadTable")
	defer span.End()

	var loaded int64
	err := r.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		tx := getTxFromContext(txCtx)

		truncateSQL := fmt.Sprintf("TRUNCATE TABLE %s", pq.QuoteIdentifier(table))
		if _, err := tx.ExecContext(txCtx, truncateSQL); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}

		stmt, err := tx.PrepareContext(txCtx, pq.CopyIn(table, columns...))
		if err != nil {
			return fmt.Errorf("failed to prepare copy for table %s: %w", table, err)
		}

		for {
			row, err := rows()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				stmt.Close()
				return fmt.Errorf("failed to read row for table %s: %w", table, err)
			}
			if _, err := stmt.ExecContext(txCtx, row...); err != nil {
				stmt.Close()
				return fmt.Errorf("failed to copy row into table %s: %w", table, err)
			}
			loaded++
		}

		// 空参执行冲刷 COPY 缓冲
		if _, err := stmt.ExecContext(txCtx); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to flush copy for table %s: %w", table, err)
		}
		if err := stmt.Close(); err != nil {
			return fmt.Errorf("failed to finish copy for table %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	return loaded, nil
}

// ObjectIDSet 返回 objects 表中已提交的全部 objectid
func (r *CatalogRepo) ObjectIDSet(ctx context.Context) (map[int64]struct{}, error) {
	ctx, span := tracer.Start(ctx, "postgres.CatalogRepo.ObjectIDSet")
	defer span.End()

	rows, err := getQuerier(ctx, r.client.sqlDB).QueryContext(ctx, "SELECT objectid FROM objects")
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query object ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan object id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate object ids: %w", err)
	}

	return ids, nil
}

// TableRowCount 统计表行数
func (r *CatalogRepo) TableRowCount(ctx context.Context, table string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.CatalogRepo.TableRowCount")
	defer span.End()

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pq.QuoteIdentifier(table))

	var count int64
	if err := getQuerier(ctx, r.client.sqlDB).QueryRowContext(ctx, query).Scan(&count); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count rows of table %s: %w", table, err)
	}
	return count, nil
}

// integrityCheck 单项引用完整性检查定义
type integrityCheck struct {
	name        string
	description string
	query       string
}

// 装载管线不在写入时强制外键，以下检查在装载后发现违规行
var integrityChecks = []integrityCheck{
	{
		name:        "orphaned_objects_constituents_object",
		description: "objects_constituents rows referencing a missing object",
		query: `SELECT COUNT(*)
			FROM objects_constituents oc
			LEFT JOIN objects o ON oc.objectid = o.objectid
			WHERE o.objectid IS NULL`,
	},
	{
		name:        "orphaned_objects_constituents_constituent",
		description: "objects_constituents rows referencing a missing constituent",
		query: `SELECT COUNT(*)
			FROM objects_constituents oc
			LEFT JOIN constituents c ON oc.constituentid = c.constituentid
			WHERE c.constituentid IS NULL`,
	},
	{
		name:        "orphaned_objects_terms",
		description: "objects_terms rows referencing a missing object",
		query: `SELECT COUNT(*)
			FROM objects_terms t
			LEFT JOIN objects o ON t.objectid = o.objectid
			WHERE o.objectid IS NULL`,
	},
	{
		name:        "orphaned_published_images",
		description: "published_images rows referencing a missing object",
		query: `SELECT COUNT(*)
			FROM published_images i
			LEFT JOIN objects o ON i.objectid = o.objectid
			WHERE o.objectid IS NULL`,
	},
}

// ValidateIntegrity 运行全部引用完整性检查
func (r *CatalogRepo) ValidateIntegrity(ctx context.Context) ([]*repository.IntegrityIssue, error) {
	ctx, span := tracer.Start(ctx, "postgres.CatalogRepo.ValidateIntegrity")
	defer span.End()

	issues := make([]*repository.IntegrityIssue, 0, len(integrityChecks))
	for _, check := range integrityChecks {
		var count int64
		if err := getQuerier(ctx, r.client.sqlDB).QueryRowContext(ctx, check.query).Scan(&count); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to run integrity check %s: %w", check.name, err)
		}
		issues = append(issues, &repository.IntegrityIssue{
			Check:       check.name,
			Description: check.description,
			Count:       count,
		})
	}

	return issues, nil
}

// RoleTypeDistribution 统计 objects_constituents 中各角色类型的行数
func (r *CatalogRepo) RoleTypeDistribution(ctx context.Context) ([]*repository.RoleTypeCount, error) {
	ctx, span := tracer.Start(ctx, "postgres.CatalogRepo.RoleTypeDistribution")
	defer span.End()

	const query = `
SELECT roletype, COUNT(*) AS cnt
FROM objects_constituents
GROUP BY roletype
ORDER BY cnt DESC, roletype`

	rows, err := getQuerier(ctx, r.client.sqlDB).QueryContext(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to query roletype distribution: %w", err)
	}
	defer rows.Close()

	counts := make([]*repository.RoleTypeCount, 0)
	for rows.Next() {
		var rc repository.RoleTypeCount
		if err := rows.Scan(&rc.RoleType, &rc.Count); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan roletype count: %w", err)
		}
		counts = append(counts, &rc)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate roletype counts: %w", err)
	}

	return counts, nil
}

// 派生视图，服务于批量分析；检索核心不依赖它们
var derivedViews = []struct {
	name string
	sql  string
}{
	{
		name: "artwork_details",
		sql: `CREATE OR REPLACE VIEW artwork_details AS
SELECT
	o.objectid,
	o.title,
	o.displaydate,
	o.beginyear,
	o.endyear,
	o.medium,
	o.dimensions,
	o.classification,
	o.attribution,
	o.creditline,
	c.preferreddisplayname AS artist_name,
	c.displaydate AS artist_dates,
	c.nationality AS artist_nationality,
	l.description AS location_description,
	l.site AS location_site
FROM objects o
LEFT JOIN objects_constituents oc
	ON o.objectid = oc.objectid AND oc.roletype = 'artist' AND oc.displayorder = 1
LEFT JOIN constituents c ON oc.constituentid = c.constituentid
LEFT JOIN locations l ON o.locationid = l.locationid
WHERE o.accessioned = true`,
	},
	{
		name: "searchable_artworks",
		sql: `CREATE OR REPLACE VIEW searchable_artworks AS
SELECT
	o.objectid,
	o.title,
	o.displaydate,
	o.beginyear,
	o.medium,
	o.classification,
	o.attribution,
	string_agg(DISTINCT t.term, ', ') AS all_terms,
	COUNT(DISTINCT i.uuid) AS image_count
FROM objects o
LEFT JOIN objects_terms t ON o.objectid = t.objectid
LEFT JOIN published_images i ON o.objectid = i.objectid
WHERE o.accessioned = true
GROUP BY o.objectid, o.title, o.displaydate, o.beginyear, o.medium, o.classification, o.attribution`,
	},
	{
		name: "artist_statistics",
		sql: `CREATE OR REPLACE VIEW artist_statistics AS
SELECT
	c.constituentid,
	c.preferreddisplayname,
	c.nationality,
	c.beginyear AS birth_year,
	c.endyear AS death_year,
	COUNT(DISTINCT oc.objectid) AS artwork_count,
	MIN(o.beginyear) AS earliest_work,
	MAX(o.endyear) AS latest_work,
	COUNT(DISTINCT o.medium) AS medium_diversity
FROM constituents c
JOIN objects_constituents oc
	ON c.constituentid = oc.constituentid AND oc.roletype = 'artist'
JOIN objects o ON oc.objectid = o.objectid
WHERE c.artistofngaobject = 1
GROUP BY c.constituentid, c.preferreddisplayname, c.nationality, c.beginyear, c.endyear
HAVING COUNT(DISTINCT oc.objectid) > 0`,
	},
}

// CreateDerivedViews 创建或替换派生视图
func (r *CatalogRepo) CreateDerivedViews(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "postgres.CatalogRepo.CreateDerivedViews")
	defer span.End()

	for _, view := range derivedViews {
		if _, err := getQuerier(ctx, r.client.sqlDB).ExecContext(ctx, view.sql); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create view %s: %w", view.name, err)
		}
	}
	return nil
}
