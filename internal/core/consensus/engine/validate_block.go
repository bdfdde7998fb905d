package engine

import (
	"context"
	"time"

	consensusconfig "github.com/hychain/v1/internal/config/consensus"
	"github.com/hychain/v1/internal/core/infrastructure/cache"
	"github.com/hychain/v1/pkg/types"
)

// 判定缓存键前缀与编码
const verdictKeyPrefix = "verdict/"

var (
	verdictAccepted = []byte{1}
	verdictRejected = []byte{0}
)

// ValidateBlock 验证管线入口：返回接受/拒绝判定，从不报错
//
// ⏰ 管线顺序（整体受validation_timeout硬时限约束）：
//  1. 销毁检查 → 强制拒绝
//  2. 熔断器打开 → 强制拒绝（不触达子系统）
//  3. 时间戳漂移与内容摘要复算 → 不匹配即拒绝（不触达子系统）
//  4. 判定缓存命中 → 直接返回
//  5. PoW与投票合法性并发校验 → 按配置策略合并
//
// 每次调用恰好发布一条指标事件；超时判定为拒绝，迟到的子系统结果被丢弃。
func (e *Engine) ValidateBlock(ctx context.Context, block *types.Block) bool {
	if e.disposed.Load() {
		return false
	}

	start := e.clock.Now()
	verdict, timedOut, cached := e.validate(ctx, block)
	elapsed := e.clock.Now().Sub(start)

	e.recordValidation(verdict, timedOut, elapsed)
	e.emitValidationMetric(verdict)

	if !cached {
		// 熔断器只统计真正触达管线的判定
		if verdict {
			e.breaker.RecordSuccess()
		} else {
			e.breaker.RecordFailure()
		}
	}
	e.eventBus.Publish(types.EventBlockValidated, blockHashOf(block), verdict)
	return verdict
}

// validate 执行判定主体；返回 (判定, 是否超时, 是否缓存命中)
func (e *Engine) validate(ctx context.Context, block *types.Block) (bool, bool, bool) {
	if block == nil || block.Hash.IsZero() {
		return false, false, false
	}

	if !e.breaker.Allow() {
		e.logger.Warnf("⚡ 熔断器打开，强制拒绝区块: hash=%s", block.Hash)
		return false, false, true // 不计入熔断统计，避免自馈
	}

	// 时间戳漂移检查：拒绝来自过远未来的区块
	drift := e.options.Validation.MaxTimestampDrift
	if drift > 0 && block.Header.Timestamp.After(e.clock.Now().Add(drift)) {
		e.logger.Warnf("区块时间戳超出允许漂移: hash=%s ts=%s drift=%s",
			block.Hash, block.Header.Timestamp, drift)
		return false, false, false
	}

	// 内容摘要复算：头部声明与交易实算不一致时直接拒绝，不触达子系统
	digest, err := e.digestBuilder.CreateRoot(block.Transactions)
	if err != nil {
		e.logger.Warnf("内容摘要计算失败: hash=%s err=%v", block.Hash, err)
		return false, false, false
	}
	if digest != block.Header.ContentDigest {
		e.logger.Warnf("内容摘要不匹配: hash=%s declared=%s computed=%s",
			block.Hash, block.Header.ContentDigest, digest)
		return false, false, false
	}

	// 判定缓存
	cacheKey := verdictKeyPrefix + string(block.Hash)
	if raw, ok := e.verdictCache.Get(cacheKey); ok && len(raw) == 1 {
		return raw[0] == 1, false, true
	}

	verdict, timedOut := e.checkSubsystems(ctx, block)

	if !timedOut {
		e.cacheVerdict(cacheKey, verdict)
	}
	return verdict, timedOut, false
}

// checkSubsystems 并发执行PoW与投票合法性检查并按策略合并
//
// 受validation_timeout约束；结果通道带缓冲，超时后子系统goroutine
// 仍可写入并退出，迟到结果被丢弃。
func (e *Engine) checkSubsystems(ctx context.Context, block *types.Block) (verdict bool, timedOut bool) {
	ctx, cancel := context.WithTimeout(ctx, e.options.Validation.ValidationTimeout)
	defer cancel()

	powCh := make(chan bool, 1)
	voteCh := make(chan bool, 1)

	go func() {
		ok, err := e.pow.ValidateBlock(ctx, block)
		if err != nil {
			e.logger.Warnf("PoW校验出错: hash=%s err=%v", block.Hash, err)
			ok = false
		}
		powCh <- ok
	}()
	go func() {
		ok, err := e.voting.CheckBlockLegitimacy(ctx, block)
		if err != nil {
			e.logger.Warnf("投票合法性校验出错: hash=%s err=%v", block.Hash, err)
			ok = false
		}
		voteCh <- ok
	}()

	var powOK, voteOK bool
	for i := 0; i < 2; i++ {
		select {
		case powOK = <-powCh:
			powCh = nil
		case voteOK = <-voteCh:
			voteCh = nil
		case <-ctx.Done():
			e.logger.Warnf("⏰ 验证超时，强制拒绝区块: hash=%s", block.Hash)
			return false, true
		}
	}

	return e.combineVerdicts(powOK, voteOK), false
}

// combineVerdicts 按配置的判定策略合并两个子系统结果
func (e *Engine) combineVerdicts(powOK, voteOK bool) bool {
	if e.options.Validation.VerdictPolicy == consensusconfig.VerdictPolicyWeighted {
		totalWeight := e.options.Validation.PowWeight + e.options.Validation.VoteWeight
		score := 0.0
		if powOK {
			score += e.options.Validation.PowWeight
		}
		if voteOK {
			score += e.options.Validation.VoteWeight
		}
		return score/totalWeight >= e.options.Validation.ApprovalThreshold
	}
	// strict_and
	return powOK && voteOK
}

// cacheVerdict 按TTL缓存判定；接受判定给更高保留优先级
func (e *Engine) cacheVerdict(key string, verdict bool) {
	value := verdictRejected
	priority := cache.PriorityLow
	if verdict {
		value = verdictAccepted
		priority = cache.PriorityHigh
	}
	if err := e.verdictCache.Set(key, value,
		cache.WithTTL(e.options.Validation.VerdictTTL),
		cache.WithPriority(priority)); err != nil {
		e.logger.Warnf("判定缓存写入失败: key=%s err=%v", key, err)
	}
}

// recordValidation 更新性能统计
func (e *Engine) recordValidation(verdict, timedOut bool, elapsed time.Duration) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	e.validationTotal++
	e.validationDuration += elapsed
	if !verdict {
		e.validationFailed++
	}
	if timedOut {
		e.validationTimeouts++
	}

	if e.prom != nil {
		e.prom.ValidationTotal.Inc()
		if !verdict {
			e.prom.ValidationFailed.Inc()
		}
		if timedOut {
			e.prom.ValidationTimeouts.Inc()
		}
		e.prom.ValidationDuration.Observe(elapsed.Seconds())
	}
}

// emitValidationMetric 每次验证尝试发布一条指标事件
func (e *Engine) emitValidationMetric(verdict bool) {
	value := 0.0
	if verdict {
		value = 1.0
	}
	e.eventBus.Publish(types.EventConsensusMetric, types.MetricEvent{
		Name:      "consensus.block.validation",
		Value:     value,
		Timestamp: e.clock.Now(),
	})
}

func blockHashOf(block *types.Block) types.Hash {
	if block == nil {
		return ""
	}
	return block.Hash
}
