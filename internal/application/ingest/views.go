package ingest

import (
	"context"
	"fmt"

	"github.com/dslans/NGA-opendata/pkg/logger"
)

// CreateViews 创建或替换派生分析视图
// 视图面向批量分析与报表，检索与详情管线不依赖它们
func (l *Loader) CreateViews(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "ingest.Loader.CreateViews")
	defer span.End()

	if err := l.repo.CreateDerivedViews(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create derived views: %w", err)
	}
	logger.Info(ctx, "derived views created")
	return nil
}
