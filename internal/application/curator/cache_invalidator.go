package curator

import (
	"context"
	"fmt"

	"github.com/dslans/NGA-opendata/internal/infrastructure/messaging"
	"github.com/dslans/NGA-opendata/internal/infrastructure/persistence/redis"
	"github.com/dslans/NGA-opendata/pkg/logger"
)

// CacheInvalidator 订阅目录事件流，在目录重载后失效检索与统计缓存
//
// 缓存键以目录装载时刻的数据为准，目录重载是唯一使其过期的事件，
// 因此失效由 stream:catalog:events 驱动而非 TTL 到期。
type CacheInvalidator struct {
	cache    *redis.Cache
	consumer *messaging.Consumer
}

// NewCacheInvalidator 创建缓存失效器并注册事件处理器
func NewCacheInvalidator(cache *redis.Cache, consumer *messaging.Consumer) *CacheInvalidator {
	ci := &CacheInvalidator{
		cache:    cache,
		consumer: consumer,
	}

	consumer.RegisterHandler(messaging.MessageTypeCatalogReloaded, ci.handleCatalogReloaded)
	consumer.RegisterHandler(messaging.MessageTypeTableLoaded, ci.handleTableLoaded)

	return ci
}

// Start 启动底层消费者
func (ci *CacheInvalidator) Start(ctx context.Context) error {
	return ci.consumer.Start(ctx)
}

// Stop 停止底层消费者
func (ci *CacheInvalidator) Stop() {
	ci.consumer.Stop()
}

// handleCatalogReloaded 目录重载完成后清空检索与统计缓存
//
// 失效失败返回错误交由消费者重试，超过重试上限进入死信队列。
func (ci *CacheInvalidator) handleCatalogReloaded(ctx context.Context, msg *messaging.Message) error {
	var event messaging.CatalogReloadedMessage
	if err := msg.UnmarshalPayload(&event); err != nil {
		return fmt.Errorf("failed to decode catalog reloaded event: %w", err)
	}

	if err := ci.cache.InvalidateSearchResults(ctx); err != nil {
		return fmt.Errorf("failed to invalidate search caches: %w", err)
	}

	logger.Info(ctx, "search caches invalidated after catalog reload",
		"load_id", event.LoadID,
		"tables_loaded", len(event.Tables),
		"tables_failed", len(event.FailedTables))
	return nil
}

// handleTableLoaded 单表装载事件仅记录进度，重载结束时统一失效
func (ci *CacheInvalidator) handleTableLoaded(ctx context.Context, msg *messaging.Message) error {
	var event messaging.TableLoadedMessage
	if err := msg.UnmarshalPayload(&event); err != nil {
		return fmt.Errorf("failed to decode table loaded event: %w", err)
	}

	logger.Debug(ctx, "catalog table loaded",
		"load_id", event.LoadID,
		"table", event.Table,
		"rows", event.Rows)
	return nil
}
