// cli 包提供命令行入口：启动 HTTP 服务以及直接调用弹幕源的各个子命令
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"youku-danmu-go/backend"
	"youku-danmu-go/config"
	"youku-danmu-go/database"
	"youku-danmu-go/logger"

	"github.com/spf13/cobra"
)

var (
	saveMode  string
	outputDir string
)

var rootCmd = &cobra.Command{
	Use:          "youku-danmu",
	Short:        "优酷弹幕搜索、下载与浏览工具",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		if saveMode != "" {
			cfg.Export.SaveMode = saveMode
		}
		if outputDir != "" {
			cfg.Export.OutputDir = outputDir
		}
		logger.InitLogger(
			cfg.Logging.LogFile,
			cfg.Logging.LogLevel,
			cfg.Logging.MaxSizeMB,
			cfg.Logging.MaxBackups,
			cfg.Logging.MaxAgeDays,
		)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&saveMode, "save-mode", "", "保存模式: csv_only, db_only, csv_and_db（默认取配置）")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "CSV 输出目录（默认取配置）")
}

// Execute 运行根命令；收到 SIGINT/SIGTERM 时取消命令的 context
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// openManager 按配置创建 Manager；需要写库的模式会先初始化数据库
func openManager() (*backend.Manager, func(), error) {
	cfg := config.Get()
	needDB := cfg.Export.SaveMode != backend.SaveModeCSVOnly
	if needDB {
		if err := database.InitDB(cfg.DatabasePath); err != nil {
			return nil, nil, err
		}
	}
	m := backend.NewManagerFromConfig(cfg)
	cleanup := func() {
		m.Close()
		if needDB {
			database.CloseDB()
		}
	}
	return m, cleanup, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
