package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hychain/v1/pkg/types"
)

// InitializeChainVotingPeriod 为链分叉开启投票周期
//
// 🗳️ 深度规则：depth = currentHeight - forkHeight；超过max_fork_depth
// 时返回携带结构化明细的分叉深度错误，不创建任何投票周期。
func (e *Engine) InitializeChainVotingPeriod(ctx context.Context, oldChainID, newChainID types.Hash, forkHeight uint64) (*types.VotingPeriod, error) {
	if e.disposed.Load() {
		return nil, ErrEngineDisposed
	}

	currentHeight, err := e.chainStore.GetCurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取链尖高度失败: %w", err)
	}

	if forkHeight > currentHeight {
		return nil, fmt.Errorf("分叉高度(%d)超过链尖高度(%d)", forkHeight, currentHeight)
	}

	depth := currentHeight - forkHeight
	maxAllowed := e.options.Fork.MaxForkDepth
	if depth > maxAllowed {
		record := &types.ForkRecord{
			CurrentHeight: currentHeight,
			ForkHeight:    forkHeight,
			ForkDepth:     depth,
			MaxAllowed:    maxAllowed,
		}
		e.audit(&types.AuditEvent{
			Kind:   "fork.depth_exceeded",
			Height: forkHeight,
			Detail: map[string]interface{}{
				"current_height": currentHeight,
				"fork_depth":     depth,
				"max_allowed":    maxAllowed,
			},
		})
		return nil, NewForkDepthError(record)
	}

	period := &types.VotingPeriod{
		ID:         uuid.NewString(),
		OldChainID: oldChainID,
		NewChainID: newChainID,
		ForkHeight: forkHeight,
		Status:     types.PeriodStatusActive,
		Votes:      make(map[string]*types.Vote),
		CreatedAt:  e.clock.Now(),
	}

	e.periodsMu.Lock()
	e.periods[period.ID] = period
	e.periodsMu.Unlock()

	e.audit(&types.AuditEvent{
		Kind:   "fork.voting_period_created",
		Height: forkHeight,
		Detail: map[string]interface{}{
			"period_id":    period.ID,
			"old_chain_id": string(oldChainID),
			"new_chain_id": string(newChainID),
			"fork_depth":   depth,
		},
	})
	e.eventBus.Publish(types.EventForkDetected, period.ID, forkHeight)

	e.logger.Infof("🗳️ 分叉投票周期已创建: id=%s fork_height=%d depth=%d",
		period.ID, forkHeight, depth)
	return period, nil
}

// GetVotingPeriod 按ID返回投票周期，不存在时返回nil
func (e *Engine) GetVotingPeriod(id string) *types.VotingPeriod {
	e.periodsMu.RLock()
	defer e.periodsMu.RUnlock()
	return e.periods[id]
}

// HandleChainFork 对分叉区块做深度仲裁并委托投票子系统裁决获胜链尖
func (e *Engine) HandleChainFork(ctx context.Context, block *types.Block) (types.Hash, error) {
	if e.disposed.Load() {
		return "", ErrEngineDisposed
	}
	if block == nil {
		return "", fmt.Errorf("分叉区块为空")
	}

	currentHeight, err := e.chainStore.GetCurrentHeight(ctx)
	if err != nil {
		return "", fmt.Errorf("获取链尖高度失败: %w", err)
	}

	if block.Header.Height <= currentHeight {
		depth := currentHeight - block.Header.Height
		if depth > e.options.Fork.MaxForkDepth {
			return "", NewForkDepthError(&types.ForkRecord{
				CurrentHeight: currentHeight,
				ForkHeight:    block.Header.Height,
				ForkDepth:     depth,
				MaxAllowed:    e.options.Fork.MaxForkDepth,
			})
		}
	}

	winner, err := e.voting.HandleChainFork(ctx, block)
	if err != nil {
		return "", fmt.Errorf("分叉裁决失败: %w", err)
	}

	e.audit(&types.AuditEvent{
		Kind:      "fork.resolved",
		BlockHash: block.Hash,
		Height:    block.Header.Height,
		Detail:    map[string]interface{}{"winner": string(winner)},
	})
	e.logger.Infof("分叉已裁决: fork_block=%s winner=%s", block.Hash, winner)
	return winner, nil
}
