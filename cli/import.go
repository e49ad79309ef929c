package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"youku-danmu-go/backend"
	"youku-danmu-go/config"
	"youku-danmu-go/database"

	"github.com/spf13/cobra"
)

var importVid string

func init() {
	importCmd.Flags().StringVar(&importVid, "vid", "", "CSV 行内没有 vid 时使用的视频 id（默认取文件名）")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import [csv文件]",
	Short: "把导出的弹幕 CSV 导入数据库；不带参数时导入输出目录下的全部 CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if err := database.InitDB(cfg.DatabasePath); err != nil {
			return err
		}
		defer database.CloseDB()

		if len(args) == 0 {
			n, err := backend.ImportAllCSV(cfg.Export.OutputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "导入完成，新增 %d 条弹幕\n", n)
			return nil
		}

		vid := importVid
		if vid == "" {
			vid = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		n, err := backend.ImportDanmuFromCSV(vid, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "导入完成，新增 %d 条弹幕\n", n)
		return nil
	},
}
