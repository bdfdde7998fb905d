// Package consensus 提供HyChain混合共识引擎的公共接口定义
//
// 📋 **混合共识引擎接口 (Hybrid Consensus Engine Interface)**
//
// 本包定义了混合共识引擎对外暴露的全部契约：
// - Engine：引擎本体（验证/处理/挖矿/状态更新/指标/生命周期）
// - POWService：工作量证明子系统契约（引擎消费方）
// - VotingService：直接投票子系统契约（引擎消费方）
// - ChainStore / ChainHandle / AuditSink：链存储、链句柄与审计契约
//
// 🎯 **判定语义约定**：
// - 谓词型操作（ValidateBlock、VerifyVote、ValidateParticipationReward、
//   HealthCheck）对全部输入都是全函数，只返回布尔，从不panic/报错
// - 变更型操作（ProcessBlock、UpdateState、InitializeChainVotingPeriod、
//   HandleChainFork）在每个已定义的失败模式下返回携带结构化信息的类型化错误
package consensus

import (
	"context"

	"github.com/hychain/v1/pkg/types"
)

// Engine 混合共识引擎接口
//
// 引擎将PoW判定与直接投票判定合并为单一的接受/拒绝决策，
// 并在分叉时仲裁竞争链尖。实例独占其缓存、熔断器与定时器；
// 协作方（PoW、投票、存储）为注入引用，引擎只发请求、读结果。
type Engine interface {
	// ValidateBlock 验证区块（全函数，一切失败归一化为false）
	ValidateBlock(ctx context.Context, block *types.Block) bool

	// ProcessBlock 在更严格的时限内重新验证并返回可提交的区块；
	// 超时或验证失败时返回类型化错误
	ProcessBlock(ctx context.Context, block *types.Block) (*types.Block, error)

	// MineBlock 委托PoW子系统挖出一个新区块
	MineBlock(ctx context.Context) (*types.Block, error)

	// StartMining 启动挖矿（幂等）
	StartMining(ctx context.Context) error

	// StopMining 停止挖矿（幂等）
	StopMining(ctx context.Context) error

	// UpdateState 将新链尖通知PoW难度与投票周期簿记；
	// 任一子系统更新失败时错误原样向上传播
	UpdateState(ctx context.Context, block *types.Block) error

	// InitializeChainVotingPeriod 为分叉仲裁创建投票周期；
	// 分叉深度超限时返回携带ForkRecord的类型化错误
	InitializeChainVotingPeriod(ctx context.Context, oldChainID, newChainID types.Hash, forkHeight uint64) (*types.VotingPeriod, error)

	// HandleChainFork 校验分叉深度后委托投票子系统裁决获胜链尖
	HandleChainFork(ctx context.Context, block *types.Block) (types.Hash, error)

	// ValidateParticipationReward 校验参与奖励交易（全函数）
	ValidateParticipationReward(ctx context.Context, tx *types.Transaction, height uint64) bool

	// GetMetrics 获取聚合指标快照（纯读取）
	GetMetrics() *types.ConsensusMetrics

	// GetCacheMetrics 获取结果缓存指标快照（纯读取）
	GetCacheMetrics() *types.CacheMetrics

	// HealthCheck 活性探测（全函数；已释放的引擎恒为false）
	HealthCheck(ctx context.Context) bool

	// Dispose 释放引擎（幂等；之后所有操作确定性失败而非挂起）
	Dispose() error
}

// MetricSubscriber 指标事件流订阅能力
//
// 每次验证尝试发布一条 types.MetricEvent，发布顺序即送达顺序。
type MetricSubscriber interface {
	// SubscribeMetrics 按处理器引用订阅指标事件流
	SubscribeMetrics(handler func(evt types.MetricEvent)) error
	// UnsubscribeMetrics 按处理器引用取消订阅
	UnsubscribeMetrics(handler func(evt types.MetricEvent)) error
}

// AuditSink 审计事件接收器
//
// LogEvent为fire-and-forget：实现的任何失败都不得影响验证主流程。
type AuditSink interface {
	LogEvent(event *types.AuditEvent)
}
