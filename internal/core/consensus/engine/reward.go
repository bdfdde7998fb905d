package engine

import (
	"context"

	"github.com/hychain/v1/pkg/types"
)

// ValidateParticipationReward 校验参与奖励交易，从不报错
//
// ✅ 判定规则：
//  1. 交易结构完整：至少一个输出、首个输出金额已定义
//  2. 金额不超过按高度减半的期望奖励（允许reward_tolerance偏差）
//  3. 领取者在该高度具备足够的PoW参与率与投票参与率
//
// 协作方查询失败一律判为拒绝。
func (e *Engine) ValidateParticipationReward(ctx context.Context, tx *types.Transaction, height uint64) bool {
	if e.disposed.Load() {
		return false
	}
	if tx == nil || len(tx.Outputs) == 0 {
		return false
	}

	first := tx.Outputs[0]
	if first == nil || first.Amount == nil || first.Address == "" {
		return false
	}

	expected := e.expectedReward(height)
	maxAllowed := expected * (1 + e.options.Reward.RewardTolerance)
	if *first.Amount <= 0 || *first.Amount > maxAllowed {
		e.logger.Warnf("奖励金额超出预期: tx=%s amount=%f expected=%f height=%d",
			tx.ID, *first.Amount, expected, height)
		return false
	}

	powRate, err := e.pow.GetParticipationRate(ctx, first.Address, height)
	if err != nil {
		e.logger.Warnf("PoW参与率查询失败: address=%s err=%v", first.Address, err)
		return false
	}
	if powRate < e.options.Reward.MinPowParticipation {
		e.logger.Debugf("PoW参与率不足: address=%s rate=%f min=%f",
			first.Address, powRate, e.options.Reward.MinPowParticipation)
		return false
	}

	voteRate, err := e.voting.GetParticipationRate(ctx, first.Address, height)
	if err != nil {
		e.logger.Warnf("投票参与率查询失败: address=%s err=%v", first.Address, err)
		return false
	}
	if voteRate < e.options.Reward.MinVoteParticipation {
		e.logger.Debugf("投票参与率不足: address=%s rate=%f min=%f",
			first.Address, voteRate, e.options.Reward.MinVoteParticipation)
		return false
	}

	return true
}

// expectedReward 按高度计算减半后的期望奖励
func (e *Engine) expectedReward(height uint64) float64 {
	halvings := height / e.options.Reward.HalvingInterval
	reward := e.options.Reward.BaseReward
	for i := uint64(0); i < halvings; i++ {
		reward /= 2
		if reward == 0 {
			break
		}
	}
	return reward
}
