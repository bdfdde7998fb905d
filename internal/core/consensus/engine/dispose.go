package engine

import (
	"context"
	"time"

	"github.com/hychain/v1/pkg/types"
)

// Dispose 销毁引擎并释放资源
//
// 幂等：拆解逻辑恰好执行一次，后续调用直接返回nil。
// 销毁后所有部分操作返回 ErrEngineDisposed，谓词操作返回false。
func (e *Engine) Dispose() error {
	var closeErr error
	e.disposeOnce.Do(func() {
		e.disposed.Store(true)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		// 停止后台挖矿；引擎已标记销毁，直接触达PoW子系统
		if e.mining.CompareAndSwap(true, false) {
			if err := e.pow.StopMining(ctx); err != nil {
				e.logger.Warnf("销毁时停止挖矿失败: %v", err)
			}
		}

		// 关闭判定缓存（同时停止其后台清扫goroutine）
		if err := e.verdictCache.Close(); err != nil {
			closeErr = err
		}

		e.audit(&types.AuditEvent{Kind: "engine.disposed"})
		e.logger.Info("🔧 共识引擎已销毁")
	})
	return closeErr
}
