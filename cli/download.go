package cli

import (
	"youku-danmu-go/config"
	"youku-danmu-go/logger"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(downloadCmd, fetchCmd)
}

var downloadCmd = &cobra.Command{
	Use:   "download <视频地址>...",
	Short: "下载视频的全部弹幕，按保存模式写入 CSV 和/或数据库",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()

		var lastErr error
		for _, u := range args {
			report, err := m.DownloadAndImport(cmd.Context(), u)
			if err != nil {
				logger.GetLogger().Errorf("下载失败 %s: %v", u, err)
				lastErr = err
				continue
			}
			if err := printJSON(report); err != nil {
				return err
			}
		}
		return lastErr
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <id:<视频id>;length:<分段数>>",
	Short: "按来源描述直接拉取弹幕，不访问视频页面",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, cleanup, err := openManager()
		if err != nil {
			return err
		}
		defer cleanup()

		logger.GetLogger().Infof("保存模式: %s, 输出目录: %s", m.SaveMode(), config.Get().Export.OutputDir)
		report, err := m.ImportBySource(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}
