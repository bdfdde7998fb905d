package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hychain/v1/internal/core/consensus/testutil"
	"github.com/hychain/v1/pkg/types"
)

func TestInitializeChainVotingPeriod_WithinDepth(t *testing.T) {
	f := newFixture()
	f.store.Height = 1000
	eng := f.build(t)

	// 深度 1000-901=99，上限100，允许
	period, err := eng.InitializeChainVotingPeriod(context.Background(),
		types.Hash("old"), types.Hash("new"), 901)
	require.NoError(t, err)

	assert.NotEmpty(t, period.ID)
	assert.Equal(t, types.PeriodStatusActive, period.Status)
	assert.Equal(t, uint64(901), period.ForkHeight)
	assert.Equal(t, types.Hash("old"), period.OldChainID)
	assert.Equal(t, types.Hash("new"), period.NewChainID)

	// 周期已登记，可按ID查询
	assert.Same(t, period, eng.GetVotingPeriod(period.ID))
}

func TestInitializeChainVotingPeriod_DepthExceeded(t *testing.T) {
	f := newFixture()
	f.store.Height = 1000
	eng := f.build(t)

	// 深度 1000-850=150 超过上限100
	_, err := eng.InitializeChainVotingPeriod(context.Background(),
		types.Hash("old"), types.Hash("new"), 850)
	require.Error(t, err)

	// 测试：人类可读消息
	assert.Contains(t, err.Error(), "Fork depth exceeds maximum allowed")

	// 测试：结构化明细四元组
	var consensusErr *ConsensusError
	require.ErrorAs(t, err, &consensusErr)
	assert.Equal(t, CodeForkDepthExceeded, consensusErr.Code)

	record, ok := consensusErr.Cause.(*types.ForkRecord)
	require.True(t, ok)
	assert.Equal(t, uint64(1000), record.CurrentHeight)
	assert.Equal(t, uint64(850), record.ForkHeight)
	assert.Equal(t, uint64(150), record.ForkDepth)
	assert.Equal(t, uint64(100), record.MaxAllowed)
}

func TestInitializeChainVotingPeriod_ExactBoundaryAllowed(t *testing.T) {
	f := newFixture()
	f.store.Height = 1000
	eng := f.build(t)

	// 测试：深度恰好等于上限时允许
	period, err := eng.InitializeChainVotingPeriod(context.Background(),
		types.Hash("old"), types.Hash("new"), 900)
	require.NoError(t, err)
	assert.Equal(t, types.PeriodStatusActive, period.Status)
}

func TestInitializeChainVotingPeriod_ForkAboveTip(t *testing.T) {
	f := newFixture()
	f.store.Height = 1000
	eng := f.build(t)

	_, err := eng.InitializeChainVotingPeriod(context.Background(),
		types.Hash("old"), types.Hash("new"), 1500)
	require.Error(t, err)
}

func TestHandleChainFork_DelegatesWinner(t *testing.T) {
	f := newFixture()
	f.store.Height = 1000
	winner := types.Hash("winner-tip")
	f.voting.HandleForkFn = func(ctx context.Context, block *types.Block) (types.Hash, error) {
		return winner, nil
	}
	eng := f.build(t)

	got, err := eng.HandleChainFork(context.Background(), testutil.NewTestBlock(950))
	require.NoError(t, err)
	assert.Equal(t, winner, got)
}

func TestHandleChainFork_DepthExceeded(t *testing.T) {
	f := newFixture()
	f.store.Height = 1000
	eng := f.build(t)

	_, err := eng.HandleChainFork(context.Background(), testutil.NewTestBlock(800))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Fork depth exceeds maximum allowed")
}

func TestHandleChainFork_Disposed(t *testing.T) {
	f := newFixture()
	eng := f.build(t)
	require.NoError(t, eng.Dispose())

	_, err := eng.HandleChainFork(context.Background(), testutil.NewTestBlock(950))
	require.ErrorIs(t, err, ErrEngineDisposed)
}
