package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hychain/v1/internal/core/consensus/testutil"
	"github.com/hychain/v1/pkg/types"
)

func TestValidateParticipationReward_StructuralChecks(t *testing.T) {
	f := newFixture()
	eng := f.build(t)
	ctx := context.Background()

	tests := []struct {
		name string
		tx   *types.Transaction
	}{
		{"空交易", nil},
		{"无输出", &types.Transaction{ID: "t1"}},
		{"首输出为空", &types.Transaction{ID: "t2", Outputs: []*types.TxOutput{nil}}},
		{"金额未定义", &types.Transaction{ID: "t3", Outputs: []*types.TxOutput{
			{Address: "addr-1", Amount: nil, Currency: "HYC"},
		}}},
		{"地址为空", &types.Transaction{ID: "t4", Outputs: []*types.TxOutput{
			{Address: "", Amount: testutil.FloatPtr(50), Currency: "HYC"},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, eng.ValidateParticipationReward(ctx, tt.tx, 100))
		})
	}
}

func TestValidateParticipationReward_Accepts(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	tx := testutil.NewRewardTransaction("addr-1", 50)
	assert.True(t, eng.ValidateParticipationReward(context.Background(), tx, 100))
}

func TestValidateParticipationReward_HalvingSchedule(t *testing.T) {
	f := newFixture()
	eng := f.build(t)
	ctx := context.Background()

	// 减半周期210000：第一个周期期望50，第二个周期期望25
	assert.True(t, eng.ValidateParticipationReward(ctx, testutil.NewRewardTransaction("addr-1", 50), 209999))
	// 测试：减半后仍领取全额奖励被拒绝
	assert.False(t, eng.ValidateParticipationReward(ctx, testutil.NewRewardTransaction("addr-1", 50), 210000))
	assert.True(t, eng.ValidateParticipationReward(ctx, testutil.NewRewardTransaction("addr-1", 25), 210000))
}

func TestValidateParticipationReward_ToleranceBounds(t *testing.T) {
	f := newFixture()
	eng := f.build(t)
	ctx := context.Background()

	// 容差0.01：50.4在容差内，51超出
	assert.True(t, eng.ValidateParticipationReward(ctx, testutil.NewRewardTransaction("addr-1", 50.4), 100))
	assert.False(t, eng.ValidateParticipationReward(ctx, testutil.NewRewardTransaction("addr-1", 51), 100))
	// 非正金额拒绝
	assert.False(t, eng.ValidateParticipationReward(ctx, testutil.NewRewardTransaction("addr-1", 0), 100))
}

func TestValidateParticipationReward_ParticipationThresholds(t *testing.T) {
	f := newFixture()
	f.pow.ParticipationFn = func(ctx context.Context, address string, height uint64) (float64, error) {
		return 0.05, nil // 低于最低0.1
	}
	eng := f.build(t)

	// 测试：PoW参与率不足直接拒绝
	assert.False(t, eng.ValidateParticipationReward(context.Background(),
		testutil.NewRewardTransaction("addr-1", 50), 100))

	f2 := newFixture()
	f2.voting.ParticipationFn = func(ctx context.Context, address string, height uint64) (float64, error) {
		return 0.05, nil
	}
	eng2 := f2.build(t)

	// 测试：投票参与率不足直接拒绝
	assert.False(t, eng2.ValidateParticipationReward(context.Background(),
		testutil.NewRewardTransaction("addr-1", 50), 100))
}

func TestValidateParticipationReward_CollaboratorFailure(t *testing.T) {
	f := newFixture()
	f.pow.ParticipationFn = func(ctx context.Context, address string, height uint64) (float64, error) {
		return 0, assert.AnError
	}
	eng := f.build(t)

	// 测试：协作方查询失败判为拒绝而非报错
	assert.False(t, eng.ValidateParticipationReward(context.Background(),
		testutil.NewRewardTransaction("addr-1", 50), 100))
}

func TestValidateParticipationReward_Disposed(t *testing.T) {
	f := newFixture()
	eng := f.build(t)
	_ = eng.Dispose()

	assert.False(t, eng.ValidateParticipationReward(context.Background(),
		testutil.NewRewardTransaction("addr-1", 50), 100))
}
