//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"
	"fmt"
	"os"

	"github.com/google/wire"

	"github.com/dslans/NGA-opendata/internal/application/curator"
	"github.com/dslans/NGA-opendata/internal/application/ingest"
	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/domain/repository"
	"github.com/dslans/NGA-opendata/internal/infrastructure/llm"
	"github.com/dslans/NGA-opendata/internal/infrastructure/messaging"
	"github.com/dslans/NGA-opendata/internal/infrastructure/persistence/postgres"
	"github.com/dslans/NGA-opendata/internal/infrastructure/persistence/redis"
	"github.com/dslans/NGA-opendata/internal/interfaces/http/handler"
	"github.com/dslans/NGA-opendata/internal/interfaces/http/router"
	wfchain "github.com/dslans/NGA-opendata/internal/workflow/chain"
	workflowport "github.com/dslans/NGA-opendata/internal/workflow/port"
	"github.com/dslans/NGA-opendata/pkg/logger"
)

// App API 服务顶层组件容器
type App struct {
	Router      *router.Router
	Invalidator *curator.CacheInvalidator
}

// LoaderApp 目录装载 CLI 顶层组件容器
type LoaderApp struct {
	Loader    *ingest.Loader
	Validator *ingest.Validator
}

// InitializeApp 初始化 API 服务（路由器 + 缓存失效器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		CuratorSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// InitializeLoaderApp 初始化目录装载 CLI
func InitializeLoaderApp(ctx context.Context, cfg *config.Config) (*LoaderApp, func(), error) {
	wire.Build(
		CatalogRepoSet,
		IngestSet,
		wire.Struct(new(LoaderApp), "*"),
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合（检索侧仓储）
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewArtworkSearchRepo,
	postgres.NewArtworkDetailRepo,
	postgres.NewArtworkBrowseRepo,
	postgres.NewCollectionStatsRepo,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	wire.Bind(new(repository.ArtworkSearchRepository), new(*postgres.ArtworkSearchRepo)),
	wire.Bind(new(repository.ArtworkDetailRepository), new(*postgres.ArtworkDetailRepo)),
	wire.Bind(new(repository.ArtworkBrowseRepository), new(*postgres.ArtworkBrowseRepo)),
	wire.Bind(new(repository.CollectionStatsRepository), new(*postgres.CollectionStatsRepo)),
)

// CatalogRepoSet 目录装载侧仓储集合
var CatalogRepoSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewCatalogRepo,
	postgres.NewCollectionStatsRepo,
	wire.Bind(new(repository.CatalogRepository), new(*postgres.CatalogRepo)),
	wire.Bind(new(repository.CollectionStatsRepository), new(*postgres.CollectionStatsRepo)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideCatalogEventsConsumer,
)

// CuratorSet 策展应用服务提供者集合
var CuratorSet = wire.NewSet(
	llm.NewEinoFactory,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	wfchain.NewKeywordExtractChain,
	curator.NewKeywordService,
	curator.NewSearchService,
	curator.NewDetailService,
	curator.NewStatsService,
	curator.NewCacheInvalidator,
)

// IngestSet 目录装载提供者集合
var IngestSet = wire.NewSet(
	ProvideLoaderProducer,
	ingest.NewLoader,
	ingest.NewValidator,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewCuratorHandler,
	handler.NewArtworkHandler,
	handler.NewStatsHandler,
	wire.Struct(new(router.Handlers), "*"),
	router.New,
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideCatalogEventsConsumer 提供目录事件流消费者
func ProvideCatalogEventsConsumer(redisClient *redis.Client, cfg *config.Config) *messaging.Consumer {
	ms := cfg.Messaging.RedisStream
	return messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamCatalogEvents,
		Group:         messaging.ConsumerGroupCacheInvalidator,
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  ms.BlockTimeout,
		ClaimInterval: ms.ClaimInterval,
		RetryLimit:    ms.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    ms.RetryBackoff.Initial,
			Max:        ms.RetryBackoff.Max,
			Multiplier: ms.RetryBackoff.Multiplier,
		},
	})
}

// ProvideLoaderProducer 提供装载事件生产者
// ingest.publish_events 关闭时不连接 Redis，装载命令可在无 Redis 环境执行。
func ProvideLoaderProducer(ctx context.Context, cfg *config.Config) (*messaging.Producer, func(), error) {
	if !cfg.Ingest.PublishEvents {
		return nil, func() {}, nil
	}
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis not available, catalog events disabled", "error", err.Error())
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	maxLen := cfg.Messaging.RedisStream.MaxLen
	if maxLen <= 0 {
		maxLen = 100000
	}
	return messaging.NewProducer(client.Redis(), int64(maxLen)), cleanup, nil
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "curator"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
