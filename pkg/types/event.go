package types

import "time"

// ==================== 事件类型 ====================

// EventType 事件类型标识
type EventType string

// 共识域事件类型常量
const (
	// EventConsensusMetric 每次验证尝试发布一条指标事件
	EventConsensusMetric EventType = "consensus.metric"
	// EventBlockValidated 区块验证完成（携带判定结果）
	EventBlockValidated EventType = "consensus.block.validated"
	// EventBlockProcessed 区块处理完成，可供提交
	EventBlockProcessed EventType = "consensus.block.processed"
	// EventForkDetected 检测到链分叉并创建投票周期
	EventForkDetected EventType = "consensus.fork.detected"
	// EventBreakerStateChanged 熔断器状态变化
	EventBreakerStateChanged EventType = "consensus.breaker.state_changed"
)

// MetricEvent 指标事件
//
// 每次验证尝试恰好发布一条，按发布顺序FIFO送达订阅者。
type MetricEvent struct {
	Name      string    `json:"name"`      // 指标名
	Value     float64   `json:"value"`     // 指标值
	Timestamp time.Time `json:"timestamp"` // 事件时间戳
}

// AuditEvent 审计事件（fire-and-forget写入审计链路）
type AuditEvent struct {
	Kind      string                 `json:"kind"`      // 事件种类
	BlockHash Hash                   `json:"block_hash"` // 关联区块（可为空）
	Height    uint64                 `json:"height"`    // 关联高度
	Detail    map[string]interface{} `json:"detail"`    // 结构化明细
	Timestamp time.Time              `json:"timestamp"` // 发生时间
}
