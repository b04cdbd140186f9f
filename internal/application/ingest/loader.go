package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	"github.com/dslans/NGA-opendata/internal/infrastructure/messaging"
	"github.com/dslans/NGA-opendata/pkg/logger"
	"github.com/dslans/NGA-opendata/pkg/metrics"
)

var tracer = otel.Tracer("application/ingest")

// TableResult 单表装载结果
type TableResult struct {
	Table       string        `json:"table"`
	File        string        `json:"file"`
	RowsLoaded  int64         `json:"rows_loaded"`
	RowsDropped int64         `json:"rows_dropped"`
	Duration    time.Duration `json:"duration"`
	Err         string        `json:"error,omitempty"`
}

// LoadSummary 一次完整装载的汇总
type LoadSummary struct {
	LoadID     string         `json:"load_id"`
	DataDir    string         `json:"data_dir"`
	Tables     []*TableResult `json:"tables"`
	Failed     []string       `json:"failed,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Loader 目录装载服务
// 表按依赖顺序逐张整表重载，单表失败不影响其他表
type Loader struct {
	cfg      *config.Config
	repo     repository.CatalogRepository
	producer *messaging.Producer

	objectIDs map[int64]struct{}
}

// NewLoader 创建目录装载服务，producer 可为 nil
func NewLoader(cfg *config.Config, repo repository.CatalogRepository, producer *messaging.Producer) *Loader {
	return &Loader{
		cfg:      cfg,
		repo:     repo,
		producer: producer,
	}
}

// Load 执行完整装载：建表、按依赖顺序重载全部目录表、发布重载事件
func (l *Loader) Load(ctx context.Context) (*LoadSummary, error) {
	ctx, span := tracer.Start(ctx, "ingest.Loader.Load")
	defer span.End()

	summary := &LoadSummary{
		LoadID:    uuid.NewString(),
		DataDir:   l.cfg.Ingest.DataDir,
		StartedAt: time.Now(),
	}

	if err := l.repo.EnsureSchema(ctx); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to ensure catalog schema: %w", err)
	}

	ordered, err := DependencyOrder(CatalogTables())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	failed := make(map[string]bool, len(ordered))
	for _, tc := range ordered {
		if dep, ok := failedDependency(tc, failed); ok {
			failed[tc.Name] = true
			summary.Failed = append(summary.Failed, tc.Name)
			summary.Tables = append(summary.Tables, &TableResult{
				Table: tc.Name,
				File:  tc.File,
				Err:   fmt.Sprintf("skipped: dependency %s failed", dep),
			})
			logger.Warn(ctx, "table skipped, dependency failed", "table", tc.Name, "dependency", dep)
			continue
		}

		result := l.loadTable(ctx, tc, summary.LoadID)
		summary.Tables = append(summary.Tables, result)
		if result.Err != "" {
			failed[tc.Name] = true
			summary.Failed = append(summary.Failed, tc.Name)
		}
	}
	summary.FinishedAt = time.Now()

	l.publishReloaded(ctx, summary)
	return summary, nil
}

// loadTable 装载单张表，失败时在结果中记录错误而不中断整体流程
func (l *Loader) loadTable(ctx context.Context, tc TableConfig, loadID string) *TableResult {
	ctx, span := tracer.Start(ctx, "ingest.Loader.loadTable")
	defer span.End()

	result := &TableResult{Table: tc.Name, File: tc.File}
	started := time.Now()

	loaded, dropped, err := l.reloadFromCSV(ctx, tc)
	result.Duration = time.Since(started)
	result.RowsLoaded = loaded
	result.RowsDropped = dropped
	if err != nil {
		span.RecordError(err)
		result.Err = err.Error()
		logger.Error(ctx, "failed to load table", err, "table", tc.Name, "file", tc.File)
		return result
	}

	metrics.LoaderRowsLoaded.WithLabelValues(tc.Name).Add(float64(loaded))
	metrics.LoaderTableDuration.WithLabelValues(tc.Name).Observe(result.Duration.Seconds())
	logger.Info(ctx, "table loaded",
		"table", tc.Name,
		"rows_loaded", loaded,
		"rows_dropped", dropped,
		"duration", result.Duration.String())

	if l.producer != nil && l.cfg.Ingest.PublishEvents {
		event := &messaging.TableLoadedMessage{LoadID: loadID, Table: tc.Name, Rows: loaded}
		if _, err := l.producer.PublishTableLoaded(ctx, event); err != nil {
			logger.Warn(ctx, "failed to publish table loaded event", "table", tc.Name, "error", err)
		}
	}
	return result
}

// reloadFromCSV 将 CSV 文件整表装入目标表，返回写入与丢弃行数
func (l *Loader) reloadFromCSV(ctx context.Context, tc TableConfig) (int64, int64, error) {
	path := filepath.Join(l.cfg.Ingest.DataDir, tc.File)
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open csv %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read csv header of %s: %w", tc.File, err)
	}

	colIdx, err := projectColumns(tc, header)
	if err != nil {
		return 0, 0, err
	}

	var fkSet map[int64]struct{}
	fkPos := -1
	if tc.RequireObjectFK {
		fkSet, err = l.committedObjectIDs(ctx)
		if err != nil {
			return 0, 0, err
		}
		for i, col := range tc.Columns {
			if col == "objectid" {
				fkPos = i
				break
			}
		}
		if fkPos < 0 {
			return 0, 0, fmt.Errorf("table %s requires objectid column for fk filtering", tc.Name)
		}
	}

	var dropped int64
	iter := func() ([]interface{}, error) {
		for {
			record, err := reader.Read()
			if err != nil {
				// io.EOF 由仓储层识别为读取完成
				return nil, err
			}

			if fkPos >= 0 {
				id, perr := strconv.ParseInt(record[colIdx[fkPos]], 10, 64)
				if perr != nil {
					dropped++
					metrics.LoaderRowsDropped.WithLabelValues(tc.Name, "invalid_objectid").Inc()
					continue
				}
				if _, ok := fkSet[id]; !ok {
					dropped++
					metrics.LoaderRowsDropped.WithLabelValues(tc.Name, "missing_object").Inc()
					continue
				}
			}

			row := make([]interface{}, len(colIdx))
			for i, idx := range colIdx {
				if record[idx] == "" {
					row[i] = nil
				} else {
					row[i] = record[idx]
				}
			}
			return row, nil
		}
	}

	loaded, err := l.repo.ReloadTable(ctx, tc.Name, tc.Columns, iter)
	if err != nil {
		return 0, dropped, err
	}
	if dropped > 0 {
		logger.Warn(ctx, "rows dropped during load", "table", tc.Name, "dropped", dropped)
	}
	return loaded, dropped, nil
}

// committedObjectIDs 读取 objects 表的全部主键，同一次装载内只读一次
func (l *Loader) committedObjectIDs(ctx context.Context) (map[int64]struct{}, error) {
	if l.objectIDs != nil {
		return l.objectIDs, nil
	}
	ids, err := l.repo.ObjectIDSet(ctx)
	if err != nil {
		return nil, err
	}
	l.objectIDs = ids
	return ids, nil
}

// publishReloaded 发布目录重载事件，有任意一张表成功即发布
// 事件携带失败表清单，消费方据此失效缓存
func (l *Loader) publishReloaded(ctx context.Context, summary *LoadSummary) {
	if l.producer == nil || !l.cfg.Ingest.PublishEvents {
		return
	}

	stats := make([]messaging.TableLoadStats, 0, len(summary.Tables))
	for _, t := range summary.Tables {
		if t.Err != "" {
			continue
		}
		stats = append(stats, messaging.TableLoadStats{
			Table:       t.Table,
			RowsLoaded:  t.RowsLoaded,
			RowsDropped: t.RowsDropped,
		})
	}
	if len(stats) == 0 {
		return
	}

	event := &messaging.CatalogReloadedMessage{
		LoadID:       summary.LoadID,
		DataDir:      summary.DataDir,
		Tables:       stats,
		FailedTables: summary.Failed,
		StartedAt:    summary.StartedAt,
		FinishedAt:   summary.FinishedAt,
	}
	if _, err := l.producer.PublishCatalogReloaded(ctx, event); err != nil {
		logger.Warn(ctx, "failed to publish catalog reloaded event", "load_id", summary.LoadID, "error", err)
		return
	}
	logger.Info(ctx, "catalog reloaded event published", "load_id", summary.LoadID, "tables", len(stats))
}

// projectColumns 将声明列映射到 CSV 表头位置
// 表头先清洗再应用重命名，缺少任何声明列都视为装载失败
func projectColumns(tc TableConfig, header []string) ([]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		name := SanitizeColumnName(h)
		if renamed, ok := tc.ColumnRenames[name]; ok {
			name = renamed
		}
		// 重复表头保留首个出现的位置
		if _, ok := byName[name]; !ok {
			byName[name] = i
		}
	}

	colIdx := make([]int, len(tc.Columns))
	for i, col := range tc.Columns {
		idx, ok := byName[col]
		if !ok {
			return nil, fmt.Errorf("csv %s is missing column %s", tc.File, col)
		}
		colIdx[i] = idx
	}
	return colIdx, nil
}

// failedDependency 返回第一个已失败的依赖表
func failedDependency(tc TableConfig, failed map[string]bool) (string, bool) {
	for _, dep := range tc.DependsOn {
		if failed[dep] {
			return dep, true
		}
	}
	return "", false
}
