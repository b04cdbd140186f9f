// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishCatalogReloaded 发布目录重载完成事件
func (p *Producer) PublishCatalogReloaded(ctx context.Context, event *CatalogReloadedMessage) (string, error) {
	msg, err := NewMessage(event.LoadID, MessageTypeCatalogReloaded, event)
	if err != nil {
		return "", err
	}

	msg.SetMetadata("data_dir", event.DataDir)
	msg.SetMetadata("table_count", fmt.Sprintf("%d", len(event.Tables)))
	return p.Publish(ctx, StreamCatalogEvents, msg)
}

// PublishTableLoaded 发布单表装载完成事件
func (p *Producer) PublishTableLoaded(ctx context.Context, event *TableLoadedMessage) (string, error) {
	msg, err := NewMessage(fmt.Sprintf("%s:%s", event.LoadID, event.Table), MessageTypeTableLoaded, event)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamCatalogEvents, msg)
}

// CatalogReloadedMessage 目录重载完成消息
type CatalogReloadedMessage struct {
	LoadID       string           `json:"load_id"`
	DataDir      string           `json:"data_dir"`
	Tables       []TableLoadStats `json:"tables"`
	FailedTables []string         `json:"failed_tables,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at"`
}

// TableLoadedMessage 单表装载完成消息
type TableLoadedMessage struct {
	LoadID string `json:"load_id"`
	Table  string `json:"table"`
	Rows   int64  `json:"rows"`
}

// TableLoadStats 单表装载统计
type TableLoadStats struct {
	Table       string `json:"table"`
	RowsLoaded  int64  `json:"rows_loaded"`
	RowsDropped int64  `json:"rows_dropped,omitempty"`
}
