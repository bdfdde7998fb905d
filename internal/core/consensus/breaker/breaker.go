// Package breaker 提供验证失败的熔断保护
//
// ⚡ **熔断器**
//
// 🎯 职责：
//   - 跟踪验证连续失败次数，窗口内达到阈值后打开熔断
//   - 打开期间快速拒绝验证请求，避免雪崩
//   - 冷却期满后自动复位，无需人工干预
package breaker

import (
	"sync"
	"time"

	clockiface "github.com/hychain/v1/pkg/interfaces/infrastructure/clock"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
)

// State 熔断器状态
type State int32

const (
	// StateClosed 正常放行
	StateClosed State = iota
	// StateOpen 熔断打开，快速拒绝
	StateOpen
)

// String 返回状态的可读名称
func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "closed"
}

// StateChangeFunc 状态变更回调，在熔断打开/复位时触发
type StateChangeFunc func(from, to State)

// Breaker 连续失败熔断器
//
// ⏰ 计数规则：
//   - 仅窗口内的连续失败参与计数，首次失败落在窗口外则重新开窗
//   - 任意一次成功立即清零计数
//   - 打开后冷却期满的下一次探测自动复位为closed
type Breaker struct {
	failureThreshold int
	failureWindow    time.Duration
	cooldown         time.Duration

	clock    clockiface.Clock
	logger   log.Logger
	onChange StateChangeFunc

	mu           sync.Mutex
	state        State
	failures     int
	windowStart  time.Time
	openedAt     time.Time
	trips        uint64
}

// New 创建熔断器
func New(threshold int, window, cooldown time.Duration, clock clockiface.Clock, logger log.Logger, onChange StateChangeFunc) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		failureThreshold: threshold,
		failureWindow:    window,
		cooldown:         cooldown,
		clock:            clock,
		logger:           logger,
		onChange:         onChange,
		state:            StateClosed,
	}
}

// Allow 判断当前是否放行请求
//
// 打开状态下冷却期满时就地复位并放行，实现自动恢复。
func (b *Breaker) Allow() bool {
	b.mu.Lock()

	if b.state == StateOpen {
		if b.clock.Now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return false
		}
		// 冷却期满，自动复位
		b.transitionLocked(StateClosed)
		b.failures = 0
	}

	b.mu.Unlock()
	return true
}

// RecordSuccess 记录一次成功，清零连续失败计数
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// RecordFailure 记录一次失败；窗口内连续失败达到阈值则打开熔断
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.clock.Now()
	if b.failures == 0 || now.Sub(b.windowStart) > b.failureWindow {
		// 新开失败窗口
		b.windowStart = now
		b.failures = 0
	}
	b.failures++

	if b.state == StateClosed && b.failures >= b.failureThreshold {
		b.openedAt = now
		b.trips++
		b.transitionLocked(StateOpen)
		b.logger.Warnf("⚡ 熔断器打开: 窗口内连续失败%d次（阈值%d），冷却%s",
			b.failures, b.failureThreshold, b.cooldown)
	}
}

// State 返回当前状态（不触发冷却复位）
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Trips 返回熔断打开的累计次数
func (b *Breaker) Trips() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trips
}

// Reset 手动复位熔断器
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	if b.state != StateClosed {
		b.transitionLocked(StateClosed)
	}
}

// transitionLocked 执行状态迁移并触发回调。调用方需持有锁。
func (b *Breaker) transitionLocked(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onChange != nil {
		// 回调脱锁异步触发，避免订阅方回调中再进入熔断器造成死锁
		go b.onChange(from, to)
	}
}
