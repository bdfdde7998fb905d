package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hychain/v1/pkg/types"
)

// FloatPtr 返回float64指针，便于构造交易输出
func FloatPtr(v float64) *float64 { return &v }

// NewTestBlock 构造一个结构完整的测试区块
func NewTestBlock(height uint64) *types.Block {
	return &types.Block{
		Hash: types.Hash(fmt.Sprintf("%064x", height)),
		Header: types.BlockHeader{
			Height:       height,
			PreviousHash: types.Hash(fmt.Sprintf("%064x", height-1)),
			Timestamp:    FrozenTime,
			Difficulty:   1000,
			Nonce:        42,
			ConsensusData: types.ConsensusData{
				PowScore:          0.8,
				VotingScore:       0.7,
				ParticipationRate: 0.6,
			},
		},
	}
}

// NewTestBlockWithTxs 构造带交易的测试区块，ContentDigest留空由调用方回填
func NewTestBlockWithTxs(height uint64, txs []*types.Transaction) *types.Block {
	block := NewTestBlock(height)
	block.Transactions = txs
	return block
}

// NewRewardTransaction 构造一笔参与奖励交易
func NewRewardTransaction(address string, amount float64) *types.Transaction {
	return &types.Transaction{
		ID: uuid.NewString(),
		Outputs: []*types.TxOutput{
			{Address: address, Amount: FloatPtr(amount), Currency: "HYC"},
		},
	}
}

// NewTestValidator 构造一个活跃验证者
func NewTestValidator(address string) *types.Validator {
	return &types.Validator{
		Address:   address,
		PublicKey: []byte("pubkey-" + address),
		Active:    true,
		Stake:     1000,
	}
}

// NewTestVote 构造一张结构完整的投票
func NewTestVote(voter, periodID string, approve bool) *types.Vote {
	return &types.Vote{
		ID:    uuid.NewString(),
		Voter: voter,
		ChainVote: &types.ChainVote{
			ChainID:   types.Hash(fmt.Sprintf("%064x", 99)),
			PeriodID:  periodID,
			Approve:   approve,
			Timestamp: FrozenTime.Unix(),
		},
		Signature: []byte("sig-" + voter),
	}
}

// NewCompletedPeriod 构造一个已完结投票期并填入给定投票
func NewCompletedPeriod(votes ...*types.Vote) *types.VotingPeriod {
	period := &types.VotingPeriod{
		ID:          uuid.NewString(),
		OldChainID:  types.Hash(fmt.Sprintf("%064x", 98)),
		NewChainID:  types.Hash(fmt.Sprintf("%064x", 99)),
		ForkHeight:  100,
		Status:      types.PeriodStatusCompleted,
		Votes:       make(map[string]*types.Vote),
		CreatedAt:   FrozenTime.Add(-time.Hour),
	}
	for _, v := range votes {
		period.Votes[v.ID] = v
	}
	return period
}
