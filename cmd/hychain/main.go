// hychain HyChain节点命令行入口
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "hychain",
	Short: "HyChain 混合共识区块链节点",
	Long: `HyChain - 混合共识（PoW + 直接投票）区块链节点

节点以单进程方式运行混合共识引擎：
- PoW工作量证明与令牌持有者直接投票的双轨区块验证
- 深度受限的分叉解析与投票周期仲裁
- 参与奖励校验、结果缓存与熔断保护
- /health 与 /metrics 运维端点`,
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(nodeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	Execute()
}
