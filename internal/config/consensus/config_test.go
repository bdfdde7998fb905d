package consensus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDefaults 测试默认配置
func TestDefaults(t *testing.T) {
	cfg := New(nil)
	require.NoError(t, cfg.Validate())

	opts := cfg.GetOptions()
	assert.Equal(t, 5*time.Second, opts.Validation.ValidationTimeout)
	assert.Equal(t, 3*time.Second, opts.Validation.ProcessingTimeout)
	assert.Equal(t, 5*time.Minute, opts.Validation.VerdictTTL)
	assert.Equal(t, VerdictPolicyStrictAnd, opts.Validation.VerdictPolicy)
	assert.Equal(t, uint64(100), opts.Fork.MaxForkDepth)
	assert.Equal(t, 5, opts.Breaker.FailureThreshold)
	assert.Equal(t, uint64(210000), opts.Reward.HalvingInterval)
}

// TestUserOverrides 测试用户配置覆盖
func TestUserOverrides(t *testing.T) {
	t.Run("时长支持字符串与秒数两种表示", func(t *testing.T) {
		cfg := New(map[string]interface{}{
			"validation": map[string]interface{}{
				"validation_timeout": "10s",
				"processing_timeout": float64(2),
			},
		})
		assert.Equal(t, 10*time.Second, cfg.GetValidationTimeout())
		assert.Equal(t, 2*time.Second, cfg.GetProcessingTimeout())
	})

	t.Run("切换到加权策略", func(t *testing.T) {
		cfg := New(map[string]interface{}{
			"validation": map[string]interface{}{
				"verdict_policy":     "weighted",
				"pow_weight":         float64(0.7),
				"vote_weight":        float64(0.3),
				"approval_threshold": float64(0.6),
			},
		})
		require.NoError(t, cfg.Validate())
		assert.Equal(t, VerdictPolicyWeighted, cfg.GetVerdictPolicy())
		assert.InDelta(t, 0.7, cfg.GetOptions().Validation.PowWeight, 1e-9)
	})

	t.Run("未知策略值保持默认", func(t *testing.T) {
		cfg := New(map[string]interface{}{
			"validation": map[string]interface{}{
				"verdict_policy": "majority",
			},
		})
		assert.Equal(t, VerdictPolicyStrictAnd, cfg.GetVerdictPolicy())
	})

	t.Run("非法时长保持默认", func(t *testing.T) {
		cfg := New(map[string]interface{}{
			"validation": map[string]interface{}{
				"validation_timeout": "not-a-duration",
				"verdict_ttl":        float64(-5),
			},
		})
		assert.Equal(t, 5*time.Second, cfg.GetValidationTimeout())
		assert.Equal(t, 5*time.Minute, cfg.GetVerdictTTL())
	})

	t.Run("分叉深度与熔断参数覆盖", func(t *testing.T) {
		cfg := New(map[string]interface{}{
			"fork": map[string]interface{}{
				"max_fork_depth": float64(50),
			},
			"breaker": map[string]interface{}{
				"failure_threshold": float64(3),
				"cooldown":          "15s",
			},
		})
		assert.Equal(t, uint64(50), cfg.GetMaxForkDepth())
		assert.Equal(t, 3, cfg.GetOptions().Breaker.FailureThreshold)
		assert.Equal(t, 15*time.Second, cfg.GetOptions().Breaker.Cooldown)
	})
}

// TestValidate 测试配置一致性校验
func TestValidate(t *testing.T) {
	t.Run("处理时限大于验证时限被拒绝", func(t *testing.T) {
		cfg := New(nil)
		cfg.GetOptions().Validation.ProcessingTimeout = 10 * time.Second
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "处理时限")
	})

	t.Run("加权策略要求权重之和为正", func(t *testing.T) {
		cfg := New(nil)
		opts := cfg.GetOptions()
		opts.Validation.VerdictPolicy = VerdictPolicyWeighted
		opts.Validation.PowWeight = 0
		opts.Validation.VoteWeight = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("未知策略被拒绝", func(t *testing.T) {
		cfg := New(nil)
		cfg.GetOptions().Validation.VerdictPolicy = "coin-flip"
		assert.Error(t, cfg.Validate())
	})

	t.Run("零分叉深度被拒绝", func(t *testing.T) {
		cfg := New(nil)
		cfg.GetOptions().Fork.MaxForkDepth = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("零减半周期被拒绝", func(t *testing.T) {
		cfg := New(nil)
		cfg.GetOptions().Reward.HalvingInterval = 0
		assert.Error(t, cfg.Validate())
	})
}
