package engine

import (
	"context"

	"github.com/hychain/v1/pkg/types"
)

// MineBlock 委托PoW子系统完成一轮挖矿
func (e *Engine) MineBlock(ctx context.Context) (*types.Block, error) {
	if e.disposed.Load() {
		return nil, ErrEngineDisposed
	}

	block, err := e.pow.CreateAndMineBlock(ctx)
	if err != nil {
		return nil, err
	}

	e.audit(&types.AuditEvent{
		Kind:      "block.mined",
		BlockHash: block.Hash,
		Height:    block.Header.Height,
	})
	return block, nil
}

// StartMining 启动后台挖矿（幂等：重复调用直接返回）
func (e *Engine) StartMining(ctx context.Context) error {
	if e.disposed.Load() {
		return ErrEngineDisposed
	}
	if !e.mining.CompareAndSwap(false, true) {
		e.logger.Debug("挖矿已在运行，跳过重复启动")
		return nil
	}
	if err := e.pow.StartMining(ctx); err != nil {
		e.mining.Store(false)
		return err
	}
	e.logger.Info("⛏️ 后台挖矿已启动")
	return nil
}

// StopMining 停止后台挖矿（幂等：未运行时直接返回）
func (e *Engine) StopMining(ctx context.Context) error {
	if e.disposed.Load() {
		return ErrEngineDisposed
	}
	if !e.mining.CompareAndSwap(true, false) {
		return nil
	}
	if err := e.pow.StopMining(ctx); err != nil {
		return err
	}
	e.logger.Info("⛏️ 后台挖矿已停止")
	return nil
}
