package engine

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hychain/v1/internal/core/consensus/breaker"
	"github.com/hychain/v1/pkg/types"
)

// PromMetrics 引擎的Prometheus指标集合
type PromMetrics struct {
	ValidationTotal    prometheus.Counter
	ValidationFailed   prometheus.Counter
	ValidationTimeouts prometheus.Counter
	ValidationDuration prometheus.Histogram
	BreakerTrips       prometheus.Counter
}

// NewPromMetrics 创建并注册引擎指标
func NewPromMetrics(registry *prometheus.Registry) *PromMetrics {
	m := &PromMetrics{
		ValidationTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hychain", Subsystem: "consensus",
			Name: "validation_total", Help: "区块验证总次数",
		}),
		ValidationFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hychain", Subsystem: "consensus",
			Name: "validation_failed_total", Help: "区块验证失败次数",
		}),
		ValidationTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hychain", Subsystem: "consensus",
			Name: "validation_timeouts_total", Help: "区块验证超时次数",
		}),
		ValidationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hychain", Subsystem: "consensus",
			Name: "validation_duration_seconds", Help: "区块验证耗时分布",
			Buckets: prometheus.DefBuckets,
		}),
		BreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hychain", Subsystem: "consensus",
			Name: "breaker_trips_total", Help: "熔断器打开累计次数",
		}),
	}
	registry.MustRegister(
		m.ValidationTotal,
		m.ValidationFailed,
		m.ValidationTimeouts,
		m.ValidationDuration,
		m.BreakerTrips,
	)
	return m
}

// GetMetrics 聚合PoW、投票、缓存与引擎性能的单一指标快照
//
// 📋 子系统查询失败时该子系统返回零值快照，聚合本身从不失败。
func (e *Engine) GetMetrics() *types.ConsensusMetrics {
	metrics := &types.ConsensusMetrics{
		CollectedAt: e.clock.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if pow, err := e.pow.GetMetrics(ctx); err == nil && pow != nil {
		metrics.Pow = *pow
	} else if err != nil {
		e.logger.Warnf("PoW指标查询失败: %v", err)
	}

	if voting, err := e.voting.GetVotingMetrics(ctx); err == nil && voting != nil {
		metrics.Voting = *voting
	} else if err != nil {
		e.logger.Warnf("投票指标查询失败: %v", err)
	}

	metrics.Cache = e.verdictCache.Metrics()
	metrics.Performance = e.performanceSnapshot()
	return metrics
}

// GetCacheMetrics 返回判定缓存的指标快照
func (e *Engine) GetCacheMetrics() *types.CacheMetrics {
	m := e.verdictCache.Metrics()
	return &m
}

// performanceSnapshot 采集引擎自身的性能计数
func (e *Engine) performanceSnapshot() types.PerformanceMetrics {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	var avg time.Duration
	if e.validationTotal > 0 {
		avg = e.validationDuration / time.Duration(e.validationTotal)
	}
	return types.PerformanceMetrics{
		ValidationTotal:    e.validationTotal,
		ValidationFailed:   e.validationFailed,
		ValidationTimeouts: e.validationTimeouts,
		AvgValidationTime:  avg,
		BreakerOpen:        e.breaker.State() == breaker.StateOpen,
		BreakerTrips:       e.breaker.Trips(),
	}
}

// SubscribeMetrics 订阅指标事件流
//
// 处理器按发布顺序收到每次验证尝试的事件；同一处理器引用可用于退订。
func (e *Engine) SubscribeMetrics(handler func(types.MetricEvent)) error {
	return e.eventBus.Subscribe(types.EventConsensusMetric, handler)
}

// UnsubscribeMetrics 按处理器引用退订指标事件流
func (e *Engine) UnsubscribeMetrics(handler func(types.MetricEvent)) error {
	return e.eventBus.Unsubscribe(types.EventConsensusMetric, handler)
}
