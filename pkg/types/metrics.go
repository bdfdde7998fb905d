package types

import "time"

// ==================== 共识指标类型 ====================

// PowMetrics PoW子系统指标快照
type PowMetrics struct {
	NetworkDifficulty uint64  `json:"network_difficulty"` // 当前网络难度
	HashRate          float64 `json:"hash_rate"`          // 估算算力
	BlocksMined       uint64  `json:"blocks_mined"`       // 已挖出区块数
	ParticipationRate float64 `json:"participation_rate"` // PoW参与率
}

// VotingMetrics 投票子系统指标快照
type VotingMetrics struct {
	ActivePeriods     uint64  `json:"active_periods"`     // 活跃投票周期数
	CompletedPeriods  uint64  `json:"completed_periods"`  // 已完成周期数
	TotalVotes        uint64  `json:"total_votes"`        // 累计投票数
	ParticipationRate float64 `json:"participation_rate"` // 投票参与率
}

// CacheMetrics 结果缓存指标快照
//
// 除Clear显式重置外，所有计数在进程生命周期内单调不减。
type CacheMetrics struct {
	Size             int     `json:"size"`              // 当前条目数
	HitCount         uint64  `json:"hit_count"`         // 命中次数
	MissCount        uint64  `json:"miss_count"`        // 未命中次数
	HitRate          float64 `json:"hit_rate"`          // 命中率 [0,1]
	MemoryUsage      int64   `json:"memory_usage"`      // 当前内存占用（字节）
	EvictionCount    uint64  `json:"eviction_count"`    // 累计淘汰次数
	CompressionRatio float64 `json:"compression_ratio"` // 压缩后/压缩前字节比
}

// PerformanceMetrics 引擎性能指标快照
type PerformanceMetrics struct {
	ValidationTotal    uint64        `json:"validation_total"`    // 验证总次数
	ValidationFailed   uint64        `json:"validation_failed"`   // 验证失败次数
	ValidationTimeouts uint64        `json:"validation_timeouts"` // 验证超时次数
	AvgValidationTime  time.Duration `json:"avg_validation_time"` // 平均验证耗时
	BreakerOpen        bool          `json:"breaker_open"`        // 熔断器是否打开
	BreakerTrips       uint64        `json:"breaker_trips"`       // 熔断器累计打开次数
}

// ConsensusMetrics 共识引擎聚合指标
//
// 🎯 **单一快照**: 将PoW、投票、缓存三个子系统与引擎自身性能合并为
// 一次查询即可获得的完整视图，供监控与运维消费。
type ConsensusMetrics struct {
	Pow         PowMetrics         `json:"pow"`
	Voting      VotingMetrics      `json:"voting"`
	Cache       CacheMetrics       `json:"cache"`
	Performance PerformanceMetrics `json:"performance"`
	CollectedAt time.Time          `json:"collected_at"` // 快照采集时间
}
