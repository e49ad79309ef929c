package cli

import (
	"fmt"
	"strings"

	"youku-danmu-go/backend"
	"youku-danmu-go/config"
	"youku-danmu-go/crawler/youku"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(searchCmd, urlInfoCmd, urlsCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <关键词>",
	Short: "在优酷搜索视频，输出候选条目",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := backend.NewProviderFromConfig(config.Get())
		res := p.Search(cmd.Context(), strings.Join(args, " "))
		if err := printJSON(res); err != nil {
			return err
		}
		if res.Error {
			return fmt.Errorf("搜索失败: %s", res.ErrorInfo)
		}
		return nil
	},
}

var urlInfoCmd = &cobra.Command{
	Use:   "urlinfo <视频地址>",
	Short: "识别视频页面地址",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := backend.NewProviderFromConfig(config.Get())
		res := p.GetURLInfo(args[0])
		if res == nil {
			return fmt.Errorf("不支持的地址: %s", args[0])
		}
		return printJSON(res)
	},
}

var urlsCmd = &cobra.Command{
	Use:   "urls",
	Short: "列出支持的地址示例",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, u := range youku.SupportedURLs() {
			fmt.Fprintln(cmd.OutOrStdout(), u)
		}
		return nil
	},
}
