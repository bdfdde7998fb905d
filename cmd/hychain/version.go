package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// 构建期通过 -ldflags 注入
var (
	version   = "1.0.0"
	gitCommit = "unknown"
)

// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("hychain v%s\n", version)
		fmt.Printf("  commit: %s\n", gitCommit)
		fmt.Printf("  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
