package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hychain/v1/internal/core/consensus/testutil"
	"github.com/hychain/v1/pkg/types"
)

func TestProcessBlock_Success(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	block := testutil.NewTestBlock(1001)
	processed, err := eng.ProcessBlock(context.Background(), block)
	require.NoError(t, err)
	assert.Same(t, block, processed)

	// 审计链路记录了处理事件
	kinds := make([]string, 0)
	for _, ev := range f.audit.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, "block.processed")
}

func TestProcessBlock_ValidationFailure(t *testing.T) {
	f := newFixture()
	f.pow.ValidateBlockFn = func(ctx context.Context, block *types.Block) (bool, error) {
		return false, nil
	}
	eng := f.build(t)

	_, err := eng.ProcessBlock(context.Background(), testutil.NewTestBlock(1001))
	// 测试：拒绝判定映射为专门的验证错误类型
	require.ErrorIs(t, err, ErrBlockValidation)
}

func TestProcessBlock_Timeout(t *testing.T) {
	f := newFixture()
	f.options.Validation.ProcessingTimeout = 50 * time.Millisecond
	release := make(chan struct{})
	f.pow.ValidateBlockFn = func(ctx context.Context, block *types.Block) (bool, error) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		return true, nil
	}
	eng := f.build(t)
	defer close(release)

	start := time.Now()
	_, err := eng.ProcessBlock(context.Background(), testutil.NewTestBlock(1001))
	require.ErrorIs(t, err, ErrProcessingTimeout)
	// 测试：处理时限独立于验证时限，更严格
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestProcessBlock_TimeoutErrorIsDistinct(t *testing.T) {
	// 测试：超时错误与验证失败错误可被调用方区分
	assert.NotErrorIs(t, ErrProcessingTimeout, ErrBlockValidation)
	assert.Equal(t, CodeProcessingTimeout, ErrProcessingTimeout.Code)
	assert.Equal(t, CodeBlockValidation, ErrBlockValidation.Code)
}

func TestProcessBlock_Dedupe(t *testing.T) {
	f := newFixture()
	eng := f.build(t)
	block := testutil.NewTestBlock(1001)

	_, err := eng.ProcessBlock(context.Background(), block)
	require.NoError(t, err)
	_, err = eng.ProcessBlock(context.Background(), block)
	require.NoError(t, err)

	// 测试：重复处理同一区块不再触达子系统
	assert.Equal(t, 1, f.pow.ValidateCalls())
}

func TestProcessBlock_NilBlock(t *testing.T) {
	f := newFixture()
	eng := f.build(t)

	_, err := eng.ProcessBlock(context.Background(), nil)
	require.ErrorIs(t, err, ErrBlockValidation)
}

func TestProcessBlock_Disposed(t *testing.T) {
	f := newFixture()
	eng := f.build(t)
	require.NoError(t, eng.Dispose())

	_, err := eng.ProcessBlock(context.Background(), testutil.NewTestBlock(1001))
	require.ErrorIs(t, err, ErrEngineDisposed)
}
