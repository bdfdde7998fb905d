package engine

import (
	"context"
	"fmt"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	"github.com/hychain/v1/pkg/types"
)

// UpdateState 用新接受的区块驱动子系统状态更新
//
// 顺序：投票周期簿记 → 难度统计；任一协作方失败即原样传播，
// 调用方负责决定是否回滚落块。
func (e *Engine) UpdateState(ctx context.Context, block *types.Block) error {
	if e.disposed.Load() {
		return ErrEngineDisposed
	}
	if block == nil {
		return fmt.Errorf("区块为空，无法更新共识状态")
	}

	if err := e.voting.UpdateVotingState(ctx, func() consensusiface.VotingStateUpdate {
		return consensusiface.VotingStateUpdate{
			LastBlockHash: block.Hash,
			Height:        block.Header.Height,
			Timestamp:     e.clock.Now(),
		}
	}); err != nil {
		return fmt.Errorf("投票状态更新失败: %w", err)
	}

	if err := e.pow.UpdateDifficulty(ctx, block); err != nil {
		return fmt.Errorf("难度统计更新失败: %w", err)
	}

	e.logger.Debugf("共识状态已更新: hash=%s height=%d", block.Hash, block.Header.Height)
	return nil
}
