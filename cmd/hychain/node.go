package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/hychain/v1/internal/app"
)

var nodeConfigPath string

// nodeCmd 启动节点
var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "启动HyChain节点",
	Long: `启动HyChain节点进程。

配置文件为JSON格式，省略 --config 时全部使用内置默认值。
节点启动后监听 SIGINT/SIGTERM 执行优雅停机。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		printBanner()
		return app.NewBootstrap(nodeConfigPath).Start()
	},
}

func init() {
	nodeCmd.Flags().StringVarP(&nodeConfigPath, "config", "c", "", "配置文件路径（JSON，可省略）")
}

// printBanner 打印启动横幅
func printBanner() {
	banner, _ := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("Hy", pterm.NewStyle(pterm.FgCyan)),
		pterm.NewLettersFromStringWithStyle("Chain", pterm.NewStyle(pterm.FgLightMagenta)),
	).Srender()
	pterm.DefaultCenter.Print(banner)
	pterm.DefaultCenter.Println(pterm.Gray("混合共识区块链节点 v" + version))
}
