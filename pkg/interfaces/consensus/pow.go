package consensus

import (
	"context"

	"github.com/hychain/v1/pkg/types"
)

// POWService 工作量证明子系统契约
//
// ⛏️ **引擎消费的PoW能力**
//
// 挖矿哈希搜索循环与难度重定目标算法属于外部协作方，
// 引擎只调用下列操作并消费其结果。
type POWService interface {
	// ValidateBlock 校验区块的PoW合法性（难度目标、区块头哈希）
	ValidateBlock(ctx context.Context, block *types.Block) (bool, error)

	// ValidateWork 校验区块头携带的工作量（nonce与难度的匹配）
	ValidateWork(ctx context.Context, header *types.BlockHeader) (bool, error)

	// GetNetworkDifficulty 获取当前网络难度
	GetNetworkDifficulty(ctx context.Context) (uint64, error)

	// MineBlock 执行一轮挖矿并返回挖出的区块
	MineBlock(ctx context.Context) (*types.Block, error)

	// CreateAndMineBlock 基于当前链尖构造候选区块并完成挖矿
	CreateAndMineBlock(ctx context.Context) (*types.Block, error)

	// StartMining 启动后台挖矿循环（幂等）
	StartMining(ctx context.Context) error

	// StopMining 停止后台挖矿循环（幂等）
	StopMining(ctx context.Context) error

	// UpdateDifficulty 用新接受的区块更新难度统计
	UpdateDifficulty(ctx context.Context, block *types.Block) error

	// GetMetrics 获取PoW指标快照
	GetMetrics(ctx context.Context) (*types.PowMetrics, error)

	// HealthCheck 子系统健康探测
	HealthCheck(ctx context.Context) (bool, error)

	// GetParticipationRate 获取指定地址在指定高度的PoW参与率
	GetParticipationRate(ctx context.Context, address string, height uint64) (float64, error)
}
