package engine

import "context"

// HealthCheck 引擎健康探测，从不报错
//
// ✅ 健康 = 未销毁 ∧ 链存储连通 ∧ 链句柄可读 ∧ PoW健康 ∧ 投票健康
func (e *Engine) HealthCheck(ctx context.Context) bool {
	if e.disposed.Load() {
		return false
	}

	if err := e.chainStore.Ping(ctx); err != nil {
		e.logger.Warnf("健康检查: 链存储不连通: %v", err)
		return false
	}

	if _, err := e.chain.GetCurrentHeight(ctx); err != nil {
		e.logger.Warnf("健康检查: 链句柄不可读: %v", err)
		return false
	}

	powOK, err := e.pow.HealthCheck(ctx)
	if err != nil || !powOK {
		e.logger.Warnf("健康检查: PoW子系统不健康: ok=%t err=%v", powOK, err)
		return false
	}

	votingOK, err := e.voting.HealthCheck(ctx)
	if err != nil || !votingOK {
		e.logger.Warnf("健康检查: 投票子系统不健康: ok=%t err=%v", votingOK, err)
		return false
	}

	return true
}
