// Package engine 实现混合共识引擎
//
// 🎯 **混合共识编排器 (Hybrid Consensus Orchestrator)**
//
// 📋 职责：
//   - 将PoW工作量校验与直接投票合法性校验合并为单一接受/拒绝判定
//   - 区块验证与处理管线（硬时限、结果缓存、熔断保护）
//   - 分叉深度仲裁与投票周期初始化
//   - 参与奖励校验、指标聚合与健康探测
//
// ⚙️ 协作方（外部注入）：
//   - POWService：难度/工作量校验与挖矿
//   - VotingService：投票合法性与分叉裁决
//   - ChainStore：链高度、投票窗口与签名校验
//   - ChainHandle：宿主节点的链视图
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	consensusconfig "github.com/hychain/v1/internal/config/consensus"
	"github.com/hychain/v1/internal/core/consensus/breaker"
	"github.com/hychain/v1/internal/core/infrastructure/cache"
	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	clockiface "github.com/hychain/v1/pkg/interfaces/infrastructure/clock"
	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
	eventiface "github.com/hychain/v1/pkg/interfaces/infrastructure/event"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	storageiface "github.com/hychain/v1/pkg/interfaces/infrastructure/storage"
	"github.com/hychain/v1/pkg/types"
)

// Deps 引擎依赖集合
type Deps struct {
	Options       *consensusconfig.ConsensusOptions
	Logger        log.Logger
	EventBus      eventiface.EventBus
	Clock         clockiface.Clock
	Cache         *cache.BoundedCache
	MemoryStore   storageiface.MemoryStore
	DigestBuilder cryptoiface.DigestBuilder
	Pow           consensusiface.POWService
	Voting        consensusiface.VotingService
	ChainStore    consensusiface.ChainStore
	Chain         consensusiface.ChainHandle
	AuditSink     consensusiface.AuditSink // 可选
	Metrics       *PromMetrics             // 可选
}

// Engine 混合共识引擎
type Engine struct {
	options       *consensusconfig.ConsensusOptions
	logger        log.Logger
	eventBus      eventiface.EventBus
	clock         clockiface.Clock
	verdictCache  *cache.BoundedCache
	memStore      storageiface.MemoryStore
	digestBuilder cryptoiface.DigestBuilder
	pow           consensusiface.POWService
	voting        consensusiface.VotingService
	chainStore    consensusiface.ChainStore
	chain         consensusiface.ChainHandle
	auditSink     consensusiface.AuditSink
	prom          *PromMetrics

	breaker *breaker.Breaker

	disposed    atomic.Bool
	disposeOnce sync.Once
	mining      atomic.Bool

	// 性能统计
	statsMu            sync.Mutex
	validationTotal    uint64
	validationFailed   uint64
	validationTimeouts uint64
	validationDuration time.Duration

	// 由分叉解析创建的投票周期
	periodsMu sync.RWMutex
	periods   map[string]*types.VotingPeriod
}

var _ consensusiface.Engine = (*Engine)(nil)
var _ consensusiface.MetricSubscriber = (*Engine)(nil)

// New 异步工厂：组装引擎并完成启动握手
//
// ✅ 启动握手（任一失败都拒绝返回半初始化的引擎）：
//  1. 配置校验
//  2. 链存储连通性探测
//  3. PoW与投票子系统健康检查（并发执行，受ctx时限约束）
func New(ctx context.Context, deps Deps) (*Engine, error) {
	if err := validateDeps(deps); err != nil {
		return nil, err
	}

	if err := deps.ChainStore.Ping(ctx); err != nil {
		return nil, fmt.Errorf("链存储连通性探测失败: %w", err)
	}

	if err := handshake(ctx, deps); err != nil {
		return nil, err
	}

	e := &Engine{
		options:       deps.Options,
		logger:        deps.Logger,
		eventBus:      deps.EventBus,
		clock:         deps.Clock,
		verdictCache:  deps.Cache,
		memStore:      deps.MemoryStore,
		digestBuilder: deps.DigestBuilder,
		pow:           deps.Pow,
		voting:        deps.Voting,
		chainStore:    deps.ChainStore,
		chain:         deps.Chain,
		auditSink:     deps.AuditSink,
		prom:          deps.Metrics,
		periods:       make(map[string]*types.VotingPeriod),
	}

	e.breaker = breaker.New(
		deps.Options.Breaker.FailureThreshold,
		deps.Options.Breaker.FailureWindow,
		deps.Options.Breaker.Cooldown,
		deps.Clock,
		deps.Logger,
		e.onBreakerStateChange,
	)

	deps.Logger.Infof("🎯 共识引擎初始化完成: policy=%s validation_timeout=%s processing_timeout=%s",
		deps.Options.Validation.VerdictPolicy,
		deps.Options.Validation.ValidationTimeout,
		deps.Options.Validation.ProcessingTimeout)
	return e, nil
}

func validateDeps(deps Deps) error {
	switch {
	case deps.Options == nil:
		return fmt.Errorf("共识配置未注入")
	case deps.Logger == nil:
		return fmt.Errorf("日志器未注入")
	case deps.EventBus == nil:
		return fmt.Errorf("事件总线未注入")
	case deps.Clock == nil:
		return fmt.Errorf("时钟未注入")
	case deps.Cache == nil:
		return fmt.Errorf("判定缓存未注入")
	case deps.MemoryStore == nil:
		return fmt.Errorf("内存存储未注入")
	case deps.DigestBuilder == nil:
		return fmt.Errorf("摘要构建器未注入")
	case deps.Pow == nil:
		return fmt.Errorf("PoW子系统未注入")
	case deps.Voting == nil:
		return fmt.Errorf("投票子系统未注入")
	case deps.ChainStore == nil:
		return fmt.Errorf("链存储未注入")
	case deps.Chain == nil:
		return fmt.Errorf("链句柄未注入")
	}
	return nil
}

// handshake 并发健康检查两个子系统，任一不健康即失败
func handshake(ctx context.Context, deps Deps) error {
	type result struct {
		name string
		ok   bool
		err  error
	}
	results := make(chan result, 2)

	go func() {
		ok, err := deps.Pow.HealthCheck(ctx)
		results <- result{"pow", ok, err}
	}()
	go func() {
		ok, err := deps.Voting.HealthCheck(ctx)
		results <- result{"voting", ok, err}
	}()

	for i := 0; i < 2; i++ {
		select {
		case r := <-results:
			if r.err != nil {
				return fmt.Errorf("%s子系统健康检查出错: %w", r.name, r.err)
			}
			if !r.ok {
				return fmt.Errorf("%s子系统不健康，拒绝启动引擎", r.name)
			}
		case <-ctx.Done():
			return fmt.Errorf("引擎启动握手超时: %w", ctx.Err())
		}
	}
	return nil
}

// onBreakerStateChange 熔断状态变化时发布事件并记录审计
func (e *Engine) onBreakerStateChange(from, to breaker.State) {
	e.logger.Warnf("⚡ 熔断器状态变化: %s -> %s", from, to)
	e.eventBus.Publish(types.EventBreakerStateChanged, from.String(), to.String())
	e.audit(&types.AuditEvent{
		Kind: "breaker.state_changed",
		Detail: map[string]interface{}{
			"from": from.String(),
			"to":   to.String(),
		},
	})
	if e.prom != nil && to == breaker.StateOpen {
		e.prom.BreakerTrips.Inc()
	}
}

// audit 尽力而为地写入审计事件
func (e *Engine) audit(event *types.AuditEvent) {
	if e.auditSink == nil || event == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = e.clock.Now()
	}
	e.auditSink.LogEvent(event)
}
