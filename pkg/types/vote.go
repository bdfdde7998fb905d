package types

import "time"

// ==================== 投票与验证者类型 ====================

// PeriodStatus 投票周期状态枚举
//
// 🎯 **状态定义**: 投票周期只有两个合法状态
// 📋 **状态流转**: Active → Completed（单向，不可逆）
type PeriodStatus string

const (
	PeriodStatusActive    PeriodStatus = "active"    // 活跃状态 - 正在收集投票
	PeriodStatusCompleted PeriodStatus = "completed" // 完成状态 - 允许统计计票
)

// Validator 验证者（具备直接投票资格的账户）
type Validator struct {
	Address   string `json:"address"`    // 验证者地址
	PublicKey []byte `json:"public_key"` // 验证者公钥（压缩格式secp256k1）
	Active    bool   `json:"active"`     // 是否处于活跃集合
	Stake     uint64 `json:"stake"`      // 质押权重
}

// ChainVote 链级投票内容（分叉仲裁时对候选链尖的表态）
type ChainVote struct {
	ChainID   Hash   `json:"chain_id"`   // 投票支持的链尖哈希
	PeriodID  string `json:"period_id"`  // 所属投票周期
	Approve   bool   `json:"approve"`    // 赞成/反对
	Timestamp int64  `json:"timestamp"`  // 投票时间戳（Unix秒）
}

// Vote 投票
//
// 结构完整性要求：Voter、ChainVote、Signature三者缺一不可，
// 缺失任意一项的投票会被验证器静默判为无效（不抛错）。
type Vote struct {
	ID        string     `json:"id"`         // 投票唯一ID
	Voter     string     `json:"voter"`      // 投票者地址
	ChainVote *ChainVote `json:"chain_vote"` // 链级投票内容
	Signature []byte     `json:"signature"`  // 投票签名
}

// VotingPeriod 投票周期
//
// 周期由分叉解析创建（status=active），由外围投票子系统推进到completed。
// 只有completed状态的周期允许计票。
type VotingPeriod struct {
	ID         string           `json:"id"`          // 周期ID（uuid）
	OldChainID Hash             `json:"old_chain_id"` // 分叉前链尖
	NewChainID Hash             `json:"new_chain_id"` // 竞争链尖
	ForkHeight uint64           `json:"fork_height"`  // 分叉高度
	Status     PeriodStatus     `json:"status"`       // 周期状态
	Votes      map[string]*Vote `json:"votes"`        // 按投票ID索引的投票集合
	CreatedAt  time.Time        `json:"created_at"`   // 创建时间
}

// VoteTally 计票结果
//
// 不变量：Approved + Rejected == TotalVotes；
// UniqueVoters 为参与投票的去重活跃验证者地址数。
type VoteTally struct {
	Approved     uint64 `json:"approved"`      // 赞成票数
	Rejected     uint64 `json:"rejected"`      // 反对票数
	TotalVotes   uint64 `json:"total_votes"`   // 计入的总票数
	UniqueVoters uint64 `json:"unique_voters"` // 去重投票者数
}

// ForkRecord 分叉记录
//
// ForkDepth = CurrentHeight - ForkHeight；超过MaxAllowed的分叉在创建
// 任何投票周期之前即被拒绝。
type ForkRecord struct {
	CurrentHeight uint64 `json:"current_height"` // 当前链尖高度
	ForkHeight    uint64 `json:"fork_height"`    // 分叉点高度
	ForkDepth     uint64 `json:"fork_depth"`     // 分叉深度
	MaxAllowed    uint64 `json:"max_allowed"`    // 允许的最大分叉深度
}
