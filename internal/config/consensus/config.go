// Package consensus 提供混合共识引擎的配置实现
//
// ⚙️ **共识配置 (Consensus Configuration)**
//
// 本包将引擎的全部可调参数收敛为显式注入的配置对象：
// 验证/处理时限、判定合并策略、分叉深度上限、熔断器阈值、
// 奖励调度参数与时钟参数。引擎构造时注入，从不依赖包级全局量，
// 因此多个引擎实例（测试场景）互不干扰。
package consensus

import (
	"fmt"
	"strings"
	"time"
)

// VerdictPolicy 判定合并策略
//
// PoW判定与投票判定合并为单一布尔的规则是配置项而非常量：
// - strict_and：两个子系统判定同时为真才接受
// - weighted：pow_weight*powScore + vote_weight*votingScore ≥ approval_threshold 即接受
type VerdictPolicy string

const (
	// VerdictPolicyStrictAnd 严格合取策略
	VerdictPolicyStrictAnd VerdictPolicy = "strict_and"
	// VerdictPolicyWeighted 加权阈值策略
	VerdictPolicyWeighted VerdictPolicy = "weighted"
)

// ValidationConfig 验证管线配置
type ValidationConfig struct {
	ValidationTimeout time.Duration `json:"validation_timeout"` // 验证硬时限
	ProcessingTimeout time.Duration `json:"processing_timeout"` // 处理硬时限（更严格）
	VerdictTTL        time.Duration `json:"verdict_ttl"`        // 缓存判定的生存期
	VerdictPolicy     VerdictPolicy `json:"verdict_policy"`     // 判定合并策略
	PowWeight         float64       `json:"pow_weight"`         // 加权策略下PoW得分权重
	VoteWeight        float64       `json:"vote_weight"`        // 加权策略下投票得分权重
	ApprovalThreshold float64       `json:"approval_threshold"` // 加权策略下的接受阈值
	MaxTimestampDrift time.Duration `json:"max_timestamp_drift"` // 区块时间戳允许的未来漂移
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	FailureThreshold int           `json:"failure_threshold"` // 连续失败触发阈值
	FailureWindow    time.Duration `json:"failure_window"`    // 失败计数窗口
	Cooldown         time.Duration `json:"cooldown"`          // 打开后的冷却时长
}

// ForkConfig 分叉解析配置
type ForkConfig struct {
	MaxForkDepth uint64 `json:"max_fork_depth"` // 允许重组到达的最大深度
}

// RewardConfig 参与奖励调度配置
type RewardConfig struct {
	BaseReward           float64 `json:"base_reward"`            // 基础奖励额
	HalvingInterval      uint64  `json:"halving_interval"`       // 奖励减半周期（高度数）
	RewardTolerance      float64 `json:"reward_tolerance"`       // 奖励金额允许偏差比例
	MinPowParticipation  float64 `json:"min_pow_participation"`  // 最低PoW参与率
	MinVoteParticipation float64 `json:"min_vote_participation"` // 最低投票参与率
}

// ClockConfig 时钟配置
type ClockConfig struct {
	NTPServer    string        `json:"ntp_server"`    // NTP服务器地址
	SyncInterval time.Duration `json:"sync_interval"` // NTP同步间隔
}

// ConsensusOptions 共识配置选项
// 采用分层结构，为各关注点提供专门的配置组
type ConsensusOptions struct {
	Validation ValidationConfig `json:"validation"` // 验证管线配置
	Breaker    BreakerConfig    `json:"breaker"`    // 熔断器配置
	Fork       ForkConfig       `json:"fork"`       // 分叉解析配置
	Reward     RewardConfig     `json:"reward"`     // 参与奖励配置
	Clock      ClockConfig      `json:"clock"`      // 时钟配置
}

// Config 共识配置实现
type Config struct {
	options *ConsensusOptions
}

// createDefaultConsensusOptions 创建默认共识配置
func createDefaultConsensusOptions() *ConsensusOptions {
	return &ConsensusOptions{
		Validation: ValidationConfig{
			ValidationTimeout: 5 * time.Second,
			ProcessingTimeout: 3 * time.Second,
			VerdictTTL:        5 * time.Minute,
			VerdictPolicy:     VerdictPolicyStrictAnd,
			PowWeight:         0.6,
			VoteWeight:        0.4,
			ApprovalThreshold: 0.5,
			MaxTimestampDrift: 2 * time.Minute,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			FailureWindow:    time.Minute,
			Cooldown:         30 * time.Second,
		},
		Fork: ForkConfig{
			MaxForkDepth: 100,
		},
		Reward: RewardConfig{
			BaseReward:           50,
			HalvingInterval:      210000,
			RewardTolerance:      0.01,
			MinPowParticipation:  0.1,
			MinVoteParticipation: 0.1,
		},
		Clock: ClockConfig{
			NTPServer:    "pool.ntp.org",
			SyncInterval: 10 * time.Minute,
		},
	}
}

// New 创建共识配置实现
//
// userConfig 为 Provider 解析出的 map[string]interface{}；
// 无法识别的键被忽略，非法值保持默认。
func New(userConfig interface{}) *Config {
	defaultOptions := createDefaultConsensusOptions()

	if userConfig != nil {
		if configMap, ok := userConfig.(map[string]interface{}); ok {
			applyValidationConfig(defaultOptions, configMap)
			applyBreakerConfig(defaultOptions, configMap)
			applyForkConfig(defaultOptions, configMap)
			applyRewardConfig(defaultOptions, configMap)
			applyClockConfig(defaultOptions, configMap)
		}
	}

	return &Config{options: defaultOptions}
}

// applyValidationConfig 解析验证管线配置
func applyValidationConfig(options *ConsensusOptions, configMap map[string]interface{}) {
	validationMap, ok := configMap["validation"].(map[string]interface{})
	if !ok {
		return
	}

	if d, ok := parseDuration(validationMap["validation_timeout"]); ok {
		options.Validation.ValidationTimeout = d
	}
	if d, ok := parseDuration(validationMap["processing_timeout"]); ok {
		options.Validation.ProcessingTimeout = d
	}
	if d, ok := parseDuration(validationMap["verdict_ttl"]); ok {
		options.Validation.VerdictTTL = d
	}
	if d, ok := parseDuration(validationMap["max_timestamp_drift"]); ok {
		options.Validation.MaxTimestampDrift = d
	}
	if v, exists := validationMap["verdict_policy"]; exists {
		if s, ok := v.(string); ok {
			switch VerdictPolicy(strings.TrimSpace(s)) {
			case VerdictPolicyStrictAnd:
				options.Validation.VerdictPolicy = VerdictPolicyStrictAnd
			case VerdictPolicyWeighted:
				options.Validation.VerdictPolicy = VerdictPolicyWeighted
			}
		}
	}
	if f, ok := parseFloat(validationMap["pow_weight"]); ok && f >= 0 {
		options.Validation.PowWeight = f
	}
	if f, ok := parseFloat(validationMap["vote_weight"]); ok && f >= 0 {
		options.Validation.VoteWeight = f
	}
	if f, ok := parseFloat(validationMap["approval_threshold"]); ok && f > 0 {
		options.Validation.ApprovalThreshold = f
	}
}

// applyBreakerConfig 解析熔断器配置
func applyBreakerConfig(options *ConsensusOptions, configMap map[string]interface{}) {
	breakerMap, ok := configMap["breaker"].(map[string]interface{})
	if !ok {
		return
	}

	if v, exists := breakerMap["failure_threshold"]; exists {
		switch vv := v.(type) {
		case float64:
			if vv > 0 {
				options.Breaker.FailureThreshold = int(vv)
			}
		case int:
			if vv > 0 {
				options.Breaker.FailureThreshold = vv
			}
		}
	}
	if d, ok := parseDuration(breakerMap["failure_window"]); ok {
		options.Breaker.FailureWindow = d
	}
	if d, ok := parseDuration(breakerMap["cooldown"]); ok {
		options.Breaker.Cooldown = d
	}
}

// applyForkConfig 解析分叉解析配置
func applyForkConfig(options *ConsensusOptions, configMap map[string]interface{}) {
	forkMap, ok := configMap["fork"].(map[string]interface{})
	if !ok {
		return
	}

	if v, exists := forkMap["max_fork_depth"]; exists {
		switch vv := v.(type) {
		case float64:
			if vv > 0 {
				options.Fork.MaxForkDepth = uint64(vv)
			}
		case int:
			if vv > 0 {
				options.Fork.MaxForkDepth = uint64(vv)
			}
		}
	}
}

// applyRewardConfig 解析参与奖励配置
func applyRewardConfig(options *ConsensusOptions, configMap map[string]interface{}) {
	rewardMap, ok := configMap["reward"].(map[string]interface{})
	if !ok {
		return
	}

	if f, ok := parseFloat(rewardMap["base_reward"]); ok && f > 0 {
		options.Reward.BaseReward = f
	}
	if v, exists := rewardMap["halving_interval"]; exists {
		if f, ok := v.(float64); ok && f > 0 {
			options.Reward.HalvingInterval = uint64(f)
		}
	}
	if f, ok := parseFloat(rewardMap["reward_tolerance"]); ok && f > 0 {
		options.Reward.RewardTolerance = f
	}
	if f, ok := parseFloat(rewardMap["min_pow_participation"]); ok && f >= 0 {
		options.Reward.MinPowParticipation = f
	}
	if f, ok := parseFloat(rewardMap["min_vote_participation"]); ok && f >= 0 {
		options.Reward.MinVoteParticipation = f
	}
}

// applyClockConfig 解析时钟配置
func applyClockConfig(options *ConsensusOptions, configMap map[string]interface{}) {
	clockMap, ok := configMap["clock"].(map[string]interface{})
	if !ok {
		return
	}

	if v, exists := clockMap["ntp_server"]; exists {
		if s, ok := v.(string); ok && s != "" {
			options.Clock.NTPServer = s
		}
	}
	if d, ok := parseDuration(clockMap["sync_interval"]); ok {
		options.Clock.SyncInterval = d
	}
}

// parseDuration 兼容字符串（"5s"）与JSON number（秒数）两种时长表示
func parseDuration(v interface{}) (time.Duration, bool) {
	switch vv := v.(type) {
	case string:
		if d, err := time.ParseDuration(strings.TrimSpace(vv)); err == nil && d > 0 {
			return d, true
		}
	case float64:
		if vv > 0 {
			return time.Duration(vv * float64(time.Second)), true
		}
	case int:
		if vv > 0 {
			return time.Duration(vv) * time.Second, true
		}
	}
	return 0, false
}

// parseFloat 解析JSON number
func parseFloat(v interface{}) (float64, bool) {
	switch vv := v.(type) {
	case float64:
		return vv, true
	case int:
		return float64(vv), true
	}
	return 0, false
}

// GetOptions 获取完整的共识配置选项
func (c *Config) GetOptions() *ConsensusOptions {
	return c.options
}

// Validate 校验配置的内部一致性
func (c *Config) Validate() error {
	o := c.options

	if o.Validation.ValidationTimeout <= 0 {
		return fmt.Errorf("验证时限必须为正: %v", o.Validation.ValidationTimeout)
	}
	if o.Validation.ProcessingTimeout <= 0 {
		return fmt.Errorf("处理时限必须为正: %v", o.Validation.ProcessingTimeout)
	}
	if o.Validation.ProcessingTimeout > o.Validation.ValidationTimeout {
		return fmt.Errorf("处理时限(%v)必须不大于验证时限(%v)",
			o.Validation.ProcessingTimeout, o.Validation.ValidationTimeout)
	}
	if o.Validation.VerdictTTL <= 0 {
		return fmt.Errorf("判定TTL必须为正: %v", o.Validation.VerdictTTL)
	}
	switch o.Validation.VerdictPolicy {
	case VerdictPolicyStrictAnd:
		// 无额外约束
	case VerdictPolicyWeighted:
		if o.Validation.PowWeight+o.Validation.VoteWeight <= 0 {
			return fmt.Errorf("加权策略要求权重之和为正")
		}
		if o.Validation.ApprovalThreshold <= 0 {
			return fmt.Errorf("加权策略要求接受阈值为正: %v", o.Validation.ApprovalThreshold)
		}
	default:
		return fmt.Errorf("未知的判定合并策略: %q", o.Validation.VerdictPolicy)
	}
	if o.Breaker.FailureThreshold <= 0 {
		return fmt.Errorf("熔断失败阈值必须为正: %d", o.Breaker.FailureThreshold)
	}
	if o.Breaker.FailureWindow <= 0 || o.Breaker.Cooldown <= 0 {
		return fmt.Errorf("熔断窗口与冷却时长必须为正")
	}
	if o.Fork.MaxForkDepth == 0 {
		return fmt.Errorf("最大分叉深度必须为正")
	}
	if o.Reward.HalvingInterval == 0 {
		return fmt.Errorf("奖励减半周期必须为正")
	}
	return nil
}

// ==================== 配置访问方法 ====================

// GetValidationTimeout 获取验证硬时限
func (c *Config) GetValidationTimeout() time.Duration {
	return c.options.Validation.ValidationTimeout
}

// GetProcessingTimeout 获取处理硬时限
func (c *Config) GetProcessingTimeout() time.Duration {
	return c.options.Validation.ProcessingTimeout
}

// GetVerdictTTL 获取判定缓存生存期
func (c *Config) GetVerdictTTL() time.Duration {
	return c.options.Validation.VerdictTTL
}

// GetVerdictPolicy 获取判定合并策略
func (c *Config) GetVerdictPolicy() VerdictPolicy {
	return c.options.Validation.VerdictPolicy
}

// GetMaxForkDepth 获取最大分叉深度
func (c *Config) GetMaxForkDepth() uint64 {
	return c.options.Fork.MaxForkDepth
}
