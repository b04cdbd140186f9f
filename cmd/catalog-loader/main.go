// Package main 目录装载 CLI 入口
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dslans/NGA-opendata/internal/config"
	"github.com/dslans/NGA-opendata/internal/wire"
	"github.com/dslans/NGA-opendata/pkg/logger"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCommand(cfg).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "catalog-loader",
		Short:        "National Gallery of Art 开放数据目录装载工具",
		Version:      fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage: true,
	}

	root.AddCommand(
		loadCommand(cfg),
		validateCommand(cfg),
		viewsCommand(cfg),
	)
	return root
}

// loadCommand 从 CSV 目录全量重载目录表，装载后默认重建派生视图
func loadCommand(cfg *config.Config) *cobra.Command {
	var dataDir string
	var skipViews bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "从 CSV 目录全量重载 PostgreSQL 目录表",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if dataDir != "" {
				cfg.Ingest.DataDir = dataDir
			}

			app, cleanup, err := wire.InitializeLoaderApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize loader: %w", err)
			}
			defer cleanup()

			summary, err := app.Loader.Load(ctx)
			if err != nil {
				return err
			}
			printJSON(cmd, summary)

			if !skipViews {
				if err := app.Loader.CreateViews(ctx); err != nil {
					return err
				}
			}

			if len(summary.Failed) > 0 {
				return fmt.Errorf("load finished with %d failed tables: %s",
					len(summary.Failed), strings.Join(summary.Failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "CSV 数据目录（默认取配置 ingest.data_dir）")
	cmd.Flags().BoolVar(&skipViews, "skip-views", false, "装载后不重建派生视图")
	return cmd
}

// validateCommand 校验目录完整性，发现违规时退出码非零
func validateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "校验目录数据完整性并输出集合统计",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, cleanup, err := wire.InitializeLoaderApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize loader: %w", err)
			}
			defer cleanup()

			report, err := app.Validator.Run(ctx)
			if err != nil {
				return err
			}
			printJSON(cmd, report)

			if report.HasViolations() {
				return fmt.Errorf("catalog integrity validation failed")
			}
			return nil
		},
	}
}

func viewsCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "views",
		Short: "重建检索派生视图",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, cleanup, err := wire.InitializeLoaderApp(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize loader: %w", err)
			}
			defer cleanup()

			return app.Loader.CreateViews(ctx)
		},
	}
}

func printJSON(cmd *cobra.Command, v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		cmd.PrintErrln("failed to render output:", err)
		return
	}
	cmd.Println(string(data))
}
