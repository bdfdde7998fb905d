package local

import (
	"context"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/sha3"

	"github.com/hychain/v1/internal/core/consensus/testutil"
	"github.com/hychain/v1/internal/core/consensus/voting"
	"github.com/hychain/v1/internal/core/infrastructure/clock"
	"github.com/hychain/v1/internal/core/infrastructure/crypto"
	badgerstore "github.com/hychain/v1/internal/core/infrastructure/storage/badger"
	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	"github.com/hychain/v1/pkg/types"
)

type localFixture struct {
	store  *badgerstore.Store
	chain  *ChainHandle
	pow    *POWService
	voting *VotingService
}

func newLocalFixture(t *testing.T) *localFixture {
	t.Helper()
	logger := &testutil.MockLogger{}
	store, err := badgerstore.NewInMemory(crypto.NewSignatureVerifier(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	chain := NewChainHandle(store, logger)
	mockClock := clock.NewMockClock(testutil.FrozenTime)
	pow := NewPOWService(chain, crypto.NewDigestBuilder(), mockClock, logger)
	vs := NewVotingService(store, voting.NewCollector(store, logger), logger)
	return &localFixture{store: store, chain: chain, pow: pow, voting: vs}
}

// 测试：挖出的区块满足自身声明的难度目标，且可通过PoW校验
func TestPOWService_MineAndValidate(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	block, err := f.pow.CreateAndMineBlock(ctx)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, uint64(1), block.Header.Height)

	ok, err := f.pow.ValidateBlock(ctx, block)
	require.NoError(t, err)
	assert.True(t, ok)
}

// 测试：篡改nonce后工作量校验大概率失败（难度目标约为2^-12）
func TestPOWService_TamperedNonceRejected(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	block, err := f.pow.CreateAndMineBlock(ctx)
	require.NoError(t, err)

	rejected := 0
	for i := uint64(1); i <= 8; i++ {
		header := block.Header
		header.Nonce = block.Header.Nonce + i*1000003
		ok, err := f.pow.ValidateWork(ctx, &header)
		require.NoError(t, err)
		if !ok {
			rejected++
		}
	}
	assert.Greater(t, rejected, 0)
}

// 测试：取消上下文中止挖矿
func TestPOWService_MiningHonorsContext(t *testing.T) {
	f := newLocalFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pow.CreateAndMineBlock(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

// 测试：落链要求高度严格连续
func TestChainHandle_AddBlockSequence(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	b1 := testutil.NewTestBlock(1)
	require.NoError(t, f.chain.AddBlock(ctx, b1))

	height, err := f.chain.GetCurrentHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)

	// 跳高度被拒绝
	b3 := testutil.NewTestBlock(3)
	assert.Error(t, f.chain.AddBlock(ctx, b3))

	// 重复高度被拒绝
	assert.Error(t, f.chain.AddBlock(ctx, testutil.NewTestBlock(1)))
}

// 测试：共识公钥懒加载且稳定，对应的验证者可通过存储侧签名校验
func TestChainHandle_ConsensusKeyRegistered(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	pub1, err := f.chain.GetConsensusPublicKey(ctx)
	require.NoError(t, err)
	require.Len(t, pub1, 33)

	pub2, err := f.chain.GetConsensusPublicKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, pub1, pub2)

	// 登记后该地址对任意消息的无效签名应返回校验失败而非"未登记"
	ok, err := f.store.VerifySignature(ctx, nodeValidatorAddress, []byte("msg"), []byte("bad"))
	assert.False(t, ok)
	assert.Error(t, err)
}

// 测试：携带有效投票的区块按赞成/反对多数判定合法性
func TestVotingService_CheckBlockLegitimacy(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	validator := &types.Validator{
		Address:   "validator-1",
		PublicKey: priv.PubKey().SerializeCompressed(),
		Active:    true,
		Stake:     100,
	}
	require.NoError(t, f.store.RegisterValidator(ctx, validator.Address, validator.PublicKey))

	signedVote := func(approve bool) *types.Vote {
		cv := &types.ChainVote{
			ChainID:   "chain-tip",
			PeriodID:  "period-1",
			Approve:   approve,
			Timestamp: testutil.FrozenTime.Unix(),
		}
		digest := sha3.Sum256(voting.VoteMessage(cv))
		return &types.Vote{
			ID:        "vote",
			Voter:     validator.Address,
			ChainVote: cv,
			Signature: secpecdsa.Sign(priv, digest[:]).Serialize(),
		}
	}

	block := testutil.NewTestBlock(1)
	block.Validators = []*types.Validator{validator}
	block.Votes = []*types.Vote{signedVote(true)}

	ok, err := f.voting.CheckBlockLegitimacy(ctx, block)
	require.NoError(t, err)
	assert.True(t, ok)

	// 伪造签名的投票全部无效时判为不合法
	bad := signedVote(true)
	bad.Signature = []byte{0x01, 0x02}
	block.Votes = []*types.Vote{bad}
	ok, err = f.voting.CheckBlockLegitimacy(ctx, block)
	require.NoError(t, err)
	assert.False(t, ok)
}

// 测试：无投票区块按投票窗口判定
func TestVotingService_VotingWindow(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.SetVotingWindow(ctx, 10, 20))

	inWindow := testutil.NewTestBlock(15)
	ok, err := f.voting.CheckBlockLegitimacy(ctx, inWindow)
	require.NoError(t, err)
	assert.True(t, ok)

	outside := testutil.NewTestBlock(25)
	ok, err = f.voting.CheckBlockLegitimacy(ctx, outside)
	require.NoError(t, err)
	assert.False(t, ok)
}

// 测试：链尖状态更新拒绝高度回退
func TestVotingService_UpdateVotingState(t *testing.T) {
	f := newLocalFixture(t)
	ctx := context.Background()

	push := func(height uint64) error {
		return f.voting.UpdateVotingState(ctx, func() consensusiface.VotingStateUpdate {
			return consensusiface.VotingStateUpdate{
				LastBlockHash: "tip",
				Height:        height,
				Timestamp:     time.Now(),
			}
		})
	}

	require.NoError(t, push(5))
	require.NoError(t, push(6))
	assert.Error(t, push(4))

	metrics, err := f.voting.GetVotingMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), metrics.CompletedPeriods)
}
