// Package voting 提供投票收集与核验
//
// 🗳️ **投票收集器**
//
// 🎯 职责：
//   - 对已完结投票期做全量计票，产出 VoteTally
//   - 校验单票结构完整性、验证者资格与签名
//
// ✅ 不变量：
//   - 活跃投票期一律拒绝计票
//   - Approved + Rejected == TotalVotes
//   - UniqueVoters 为去重后的活跃验证者地址数
package voting

import (
	"context"
	"fmt"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	"github.com/hychain/v1/pkg/types"
)

// Collector 投票收集器
type Collector struct {
	store  consensusiface.ChainStore
	logger log.Logger
}

// NewCollector 创建投票收集器
func NewCollector(store consensusiface.ChainStore, logger log.Logger) *Collector {
	return &Collector{store: store, logger: logger}
}

// CollectVotes 对已完结投票期计票
//
// 投票期未完结时拒绝计票；仅通过核验的票计入统计。
func (c *Collector) CollectVotes(ctx context.Context, period *types.VotingPeriod, validators []*types.Validator) (*types.VoteTally, error) {
	if period == nil {
		return nil, fmt.Errorf("投票期为空")
	}
	if period.Status != types.PeriodStatusCompleted {
		return nil, fmt.Errorf("Voting period still active: %s", period.ID)
	}

	tally := &types.VoteTally{}
	seen := make(map[string]struct{})

	for _, vote := range period.Votes {
		if !c.VerifyVote(ctx, vote, validators) {
			continue
		}

		if vote.ChainVote.Approve {
			tally.Approved++
		} else {
			tally.Rejected++
		}
		tally.TotalVotes++

		if _, dup := seen[vote.Voter]; !dup {
			seen[vote.Voter] = struct{}{}
			tally.UniqueVoters++
		}
	}

	c.logger.Infof("🗳️ 投票期计票完成: period=%s approved=%d rejected=%d total=%d voters=%d",
		period.ID, tally.Approved, tally.Rejected, tally.TotalVotes, tally.UniqueVoters)
	return tally, nil
}

// VerifyVote 核验单票，任何异常情况都返回false而非报错
//
// 核验顺序：结构完整性 → 验证者资格（活跃） → 签名校验。
func (c *Collector) VerifyVote(ctx context.Context, vote *types.Vote, validators []*types.Validator) bool {
	if vote == nil || vote.Voter == "" || vote.ChainVote == nil || len(vote.Signature) == 0 {
		return false
	}

	if !isActiveValidator(vote.Voter, validators) {
		c.logger.Debugf("投票核验失败: 非活跃验证者 voter=%s", vote.Voter)
		return false
	}

	ok, err := c.store.VerifySignature(ctx, vote.Voter, VoteMessage(vote.ChainVote), vote.Signature)
	if err != nil {
		c.logger.Warnf("投票签名校验出错: voter=%s err=%v", vote.Voter, err)
		return false
	}
	return ok
}

// VoteMessage 返回链上投票的规范签名消息
//
// 🔐 编码必须与投票方签名时一致：chainID|periodID|approve|timestamp
func VoteMessage(cv *types.ChainVote) []byte {
	return []byte(fmt.Sprintf("%s|%s|%t|%d", cv.ChainID, cv.PeriodID, cv.Approve, cv.Timestamp))
}

func isActiveValidator(address string, validators []*types.Validator) bool {
	for _, v := range validators {
		if v != nil && v.Active && v.Address == address {
			return true
		}
	}
	return false
}
