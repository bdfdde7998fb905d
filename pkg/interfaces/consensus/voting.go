package consensus

import (
	"context"
	"time"

	"github.com/hychain/v1/pkg/types"
)

// VotingStateUpdate 投票状态更新回调载荷
//
// UpdateVotingState 以回调形式向投票子系统推送新链尖信息。
type VotingStateUpdate struct {
	LastBlockHash types.Hash // 新链尖哈希
	Height        uint64     // 新链尖高度
	Timestamp     time.Time  // 接受时间
}

// VotingService 直接投票子系统契约
//
// 🗳️ **引擎消费的投票能力**
//
// 投票签名的密码学校验与票仓簿记属于外部协作方；引擎依赖其
// 合法性判定参与区块验证，并在分叉仲裁时委托其裁决获胜链尖。
type VotingService interface {
	// HealthCheck 子系统健康探测
	HealthCheck(ctx context.Context) (bool, error)

	// CheckBlockLegitimacy 校验区块的投票合法性与参与度
	CheckBlockLegitimacy(ctx context.Context, block *types.Block) (bool, error)

	// HasParticipated 检查地址在指定高度附近是否参与过投票
	HasParticipated(ctx context.Context, address string, height uint64) (bool, error)

	// HandleChainFork 对分叉区块裁决获胜链尖，返回其身份哈希
	HandleChainFork(ctx context.Context, block *types.Block) (types.Hash, error)

	// UpdateVotingState 推送新链尖，驱动投票周期簿记
	UpdateVotingState(ctx context.Context, update func() VotingStateUpdate) error

	// GetVotingMetrics 获取投票指标快照
	GetVotingMetrics(ctx context.Context) (*types.VotingMetrics, error)

	// GetParticipationRate 获取指定地址在指定高度的投票参与率
	GetParticipationRate(ctx context.Context, address string, height uint64) (float64, error)
}
