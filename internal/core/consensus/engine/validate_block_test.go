package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	consensusconfig "github.com/hychain/v1/internal/config/consensus"
	"github.com/hychain/v1/internal/core/consensus/testutil"
	"github.com/hychain/v1/pkg/types"
)

func TestValidateBlock_AcceptsValidBlock(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	assert.True(t, eng.ValidateBlock(context.Background(), testutil.NewTestBlock(1001)))
	assert.Equal(t, 1, f.pow.ValidateCalls())
	assert.Equal(t, 1, f.voting.LegitimacyCalls())
}

func TestValidateBlock_NilBlockRejected(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	assert.False(t, eng.ValidateBlock(context.Background(), nil))
	// 测试：结构非法的区块不触达子系统
	assert.Equal(t, 0, f.pow.ValidateCalls())
}

func TestValidateBlock_DigestMismatchSkipsSubsystems(t *testing.T) {
	f := newFixture()
	f.digest.CreateRootFn = func(txs []*types.Transaction) (types.Hash, error) {
		return types.Hash("ffff"), nil
	}
	eng := f.build(t)

	assert.False(t, eng.ValidateBlock(context.Background(), testutil.NewTestBlock(1001)))
	// 测试：摘要不匹配时既不查缓存也不触达子系统
	assert.Equal(t, 0, f.pow.ValidateCalls())
	assert.Equal(t, 0, f.voting.LegitimacyCalls())
}

func TestValidateBlock_FutureTimestampRejected(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	block := testutil.NewTestBlock(1001)
	block.Header.Timestamp = time.Now().Add(10 * time.Minute)

	assert.False(t, eng.ValidateBlock(context.Background(), block))
	assert.Equal(t, 0, f.pow.ValidateCalls())
}

func TestValidateBlock_CacheHitSkipsSubsystems(t *testing.T) {
	f := newFixture()
	eng := f.build(t)
	block := testutil.NewTestBlock(1001)

	assert.True(t, eng.ValidateBlock(context.Background(), block))
	assert.True(t, eng.ValidateBlock(context.Background(), block))

	// 测试：第二次验证命中判定缓存，子系统只被触达一次
	assert.Equal(t, 1, f.pow.ValidateCalls())
	assert.Equal(t, 1, f.voting.LegitimacyCalls())

	metrics := eng.GetCacheMetrics()
	assert.Equal(t, uint64(1), metrics.HitCount)
}

func TestValidateBlock_StrictAndPolicy(t *testing.T) {
	f := newFixture()
	f.voting.LegitimacyFn = func(ctx context.Context, block *types.Block) (bool, error) {
		return false, nil
	}
	eng := f.build(t)

	// 测试：strict_and策略下任一子系统否决即拒绝
	assert.False(t, eng.ValidateBlock(context.Background(), testutil.NewTestBlock(1001)))
}

func TestValidateBlock_WeightedPolicy(t *testing.T) {
	f := newFixture()
	f.options.Validation.VerdictPolicy = consensusconfig.VerdictPolicyWeighted
	f.options.Validation.PowWeight = 0.6
	f.options.Validation.VoteWeight = 0.4
	f.options.Validation.ApprovalThreshold = 0.5
	f.voting.LegitimacyFn = func(ctx context.Context, block *types.Block) (bool, error) {
		return false, nil
	}
	eng := f.build(t)

	// 测试：加权策略下仅PoW通过（0.6/1.0 ≥ 0.5）即接受
	assert.True(t, eng.ValidateBlock(context.Background(), testutil.NewTestBlock(1001)))

	f2 := newFixture()
	f2.options.Validation.VerdictPolicy = consensusconfig.VerdictPolicyWeighted
	f2.options.Validation.PowWeight = 0.6
	f2.options.Validation.VoteWeight = 0.4
	f2.options.Validation.ApprovalThreshold = 0.5
	f2.pow.ValidateBlockFn = func(ctx context.Context, block *types.Block) (bool, error) {
		return false, nil
	}
	f2.voting.LegitimacyFn = func(ctx context.Context, block *types.Block) (bool, error) {
		return false, nil
	}
	eng2 := f2.build(t)

	// 两个子系统都否决时加权得分为0，低于阈值
	assert.False(t, eng2.ValidateBlock(context.Background(), testutil.NewTestBlock(1001)))
}

func TestValidateBlock_SubsystemErrorMeansReject(t *testing.T) {
	f := newFixture()
	f.pow.ValidateBlockFn = func(ctx context.Context, block *types.Block) (bool, error) {
		return false, assert.AnError
	}
	eng := f.build(t)

	assert.False(t, eng.ValidateBlock(context.Background(), testutil.NewTestBlock(1001)))
}

func TestValidateBlock_TimeoutRejectsThenRecovers(t *testing.T) {
	f := newFixture()
	f.options.Validation.ValidationTimeout = 50 * time.Millisecond
	slow := make(chan struct{})
	f.pow.ValidateBlockFn = func(ctx context.Context, block *types.Block) (bool, error) {
		if block.Header.Height == 2000 {
			select {
			case <-slow:
			case <-ctx.Done():
			}
		}
		return true, nil
	}
	eng := f.build(t)
	defer close(slow)

	// 测试：超时判定为拒绝
	assert.False(t, eng.ValidateBlock(context.Background(), testutil.NewTestBlock(2000)))

	metrics := eng.GetMetrics()
	assert.Equal(t, uint64(1), metrics.Performance.ValidationTimeouts)

	// 测试：超时路径释放全部锁，后续干净区块立即可验证通过
	done := make(chan bool, 1)
	go func() {
		done <- eng.ValidateBlock(context.Background(), testutil.NewTestBlock(2001))
	}()
	select {
	case verdict := <-done:
		assert.True(t, verdict)
	case <-time.After(time.Second):
		t.Fatal("超时后的验证发生阻塞，疑似锁未释放")
	}
}

func TestValidateBlock_ConcurrentValidations(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	// 测试：5个并发验证互不干扰，判定全部正确
	var wg sync.WaitGroup
	results := make([]bool, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = eng.ValidateBlock(context.Background(), testutil.NewTestBlock(uint64(3000+i)))
		}(i)
	}
	wg.Wait()

	for i, verdict := range results {
		assert.True(t, verdict, "并发验证 %d 判定异常", i)
	}
	assert.Equal(t, 5, f.pow.ValidateCalls())
}

func TestValidateBlock_BreakerOpensAndForcesReject(t *testing.T) {
	f := newFixture()
	f.options.Breaker.FailureThreshold = 3
	f.pow.ValidateBlockFn = func(ctx context.Context, block *types.Block) (bool, error) {
		return false, nil
	}
	eng := f.build(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.False(t, eng.ValidateBlock(ctx, testutil.NewTestBlock(uint64(4000+i))))
	}

	// 熔断已打开：即使PoW恢复通过也强制拒绝，且不触达子系统
	f.pow.ValidateBlockFn = nil
	callsBefore := f.pow.ValidateCalls()
	assert.False(t, eng.ValidateBlock(ctx, testutil.NewTestBlock(4100)))
	assert.Equal(t, callsBefore, f.pow.ValidateCalls())

	metrics := eng.GetMetrics()
	assert.True(t, metrics.Performance.BreakerOpen)
	assert.Equal(t, uint64(1), metrics.Performance.BreakerTrips)
}

func TestValidateBlock_MetricEventPerAttempt(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	var mu sync.Mutex
	var events []types.MetricEvent
	handler := func(ev types.MetricEvent) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}
	require.NoError(t, eng.SubscribeMetrics(handler))

	ctx := context.Background()
	eng.ValidateBlock(ctx, testutil.NewTestBlock(5000))
	eng.ValidateBlock(ctx, testutil.NewTestBlock(5000)) // 缓存命中也是一次尝试
	eng.ValidateBlock(ctx, nil)

	mu.Lock()
	count := len(events)
	first := types.MetricEvent{}
	if count > 0 {
		first = events[0]
	}
	mu.Unlock()

	// 测试：每次验证尝试恰好一条指标事件
	assert.Equal(t, 3, count)
	assert.Equal(t, "consensus.block.validation", first.Name)
	assert.Equal(t, 1.0, first.Value)
	assert.False(t, first.Timestamp.IsZero())

	// 测试：退订后不再收到事件
	require.NoError(t, eng.UnsubscribeMetrics(handler))
	eng.ValidateBlock(ctx, testutil.NewTestBlock(5001))
	mu.Lock()
	assert.Equal(t, 3, len(events))
	mu.Unlock()
}

func TestValidateBlock_DisposedAlwaysFalse(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	require.NoError(t, eng.Dispose())
	assert.False(t, eng.ValidateBlock(context.Background(), testutil.NewTestBlock(1001)))
	assert.Equal(t, 0, f.pow.ValidateCalls())
}
