package voting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hychain/v1/internal/core/consensus/testutil"
	"github.com/hychain/v1/pkg/types"
)

func newTestCollector(store *testutil.MockChainStore) *Collector {
	if store == nil {
		store = &testutil.MockChainStore{}
	}
	return NewCollector(store, &testutil.MockLogger{})
}

func TestCollectVotes_RejectsActivePeriod(t *testing.T) {
	collector := newTestCollector(nil)

	period := testutil.NewCompletedPeriod()
	period.Status = types.PeriodStatusActive

	// 测试：活跃投票期一律拒绝计票
	_, err := collector.CollectVotes(context.Background(), period, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Voting period still active")
	assert.Contains(t, err.Error(), period.ID)
}

func TestCollectVotes_TallyInvariants(t *testing.T) {
	collector := newTestCollector(nil)

	validators := []*types.Validator{
		testutil.NewTestValidator("addr-1"),
		testutil.NewTestValidator("addr-2"),
		testutil.NewTestValidator("addr-3"),
	}
	period := testutil.NewCompletedPeriod(
		testutil.NewTestVote("addr-1", "p1", true),
		testutil.NewTestVote("addr-2", "p1", true),
		testutil.NewTestVote("addr-3", "p1", false),
	)

	tally, err := collector.CollectVotes(context.Background(), period, validators)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), tally.Approved)
	assert.Equal(t, uint64(1), tally.Rejected)
	// 测试：赞成+反对恒等于总票数
	assert.Equal(t, tally.Approved+tally.Rejected, tally.TotalVotes)
	assert.Equal(t, uint64(3), tally.UniqueVoters)
}

func TestCollectVotes_SkipsUnverifiableVotes(t *testing.T) {
	// 测试：签名校验失败的票不计入任何统计
	store := &testutil.MockChainStore{
		VerifyFn: func(ctx context.Context, address string, message, signature []byte) (bool, error) {
			return address != "addr-2", nil
		},
	}
	collector := newTestCollector(store)

	validators := []*types.Validator{
		testutil.NewTestValidator("addr-1"),
		testutil.NewTestValidator("addr-2"),
	}
	period := testutil.NewCompletedPeriod(
		testutil.NewTestVote("addr-1", "p1", true),
		testutil.NewTestVote("addr-2", "p1", false),
	)

	tally, err := collector.CollectVotes(context.Background(), period, validators)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tally.TotalVotes)
	assert.Equal(t, uint64(1), tally.Approved)
	assert.Equal(t, uint64(0), tally.Rejected)
	assert.Equal(t, uint64(1), tally.UniqueVoters)
}

func TestCollectVotes_DuplicateVoterCountedOnce(t *testing.T) {
	collector := newTestCollector(nil)

	validators := []*types.Validator{testutil.NewTestValidator("addr-1")}
	period := testutil.NewCompletedPeriod(
		testutil.NewTestVote("addr-1", "p1", true),
		testutil.NewTestVote("addr-1", "p1", true),
	)

	tally, err := collector.CollectVotes(context.Background(), period, validators)
	require.NoError(t, err)
	// 测试：同一地址的多张票计入总票数，但唯一投票人只算一次
	assert.Equal(t, uint64(2), tally.TotalVotes)
	assert.Equal(t, uint64(1), tally.UniqueVoters)
}

func TestVerifyVote_StructuralChecks(t *testing.T) {
	collector := newTestCollector(nil)
	validators := []*types.Validator{testutil.NewTestValidator("addr-1")}
	ctx := context.Background()

	tests := []struct {
		name string
		vote *types.Vote
	}{
		{"空投票", nil},
		{"缺投票人", func() *types.Vote {
			v := testutil.NewTestVote("addr-1", "p1", true)
			v.Voter = ""
			return v
		}()},
		{"缺链上投票数据", func() *types.Vote {
			v := testutil.NewTestVote("addr-1", "p1", true)
			v.ChainVote = nil
			return v
		}()},
		{"缺签名", func() *types.Vote {
			v := testutil.NewTestVote("addr-1", "p1", true)
			v.Signature = nil
			return v
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, collector.VerifyVote(ctx, tt.vote, validators))
		})
	}
}

func TestVerifyVote_ValidatorEligibility(t *testing.T) {
	collector := newTestCollector(nil)
	ctx := context.Background()

	inactive := testutil.NewTestValidator("addr-1")
	inactive.Active = false
	validators := []*types.Validator{inactive, testutil.NewTestValidator("addr-2")}

	// 测试：非活跃验证者的票无效
	assert.False(t, collector.VerifyVote(ctx, testutil.NewTestVote("addr-1", "p1", true), validators))
	// 测试：名单外地址的票无效
	assert.False(t, collector.VerifyVote(ctx, testutil.NewTestVote("addr-9", "p1", true), validators))
	assert.True(t, collector.VerifyVote(ctx, testutil.NewTestVote("addr-2", "p1", true), validators))
}

func TestVerifyVote_StoreErrorMeansFalse(t *testing.T) {
	// 测试：存储层报错时判定为false而非传播错误
	store := &testutil.MockChainStore{
		VerifyFn: func(ctx context.Context, address string, message, signature []byte) (bool, error) {
			return false, assert.AnError
		},
	}
	collector := newTestCollector(store)
	validators := []*types.Validator{testutil.NewTestValidator("addr-1")}

	assert.False(t, collector.VerifyVote(context.Background(), testutil.NewTestVote("addr-1", "p1", true), validators))
}
