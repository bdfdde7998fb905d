// Package cache 提供有界结果缓存的配置实现
package cache

import (
	"fmt"
	"time"

	"github.com/pbnjay/memory"
)

// 默认配置值
const (
	defaultMaxEntries           = 10000
	defaultMaxEntryBytes        = 1 << 20 // 单条目上限 1MB
	defaultCompressionThreshold = 4096    // 超过4KB的值惰性压缩
	defaultSweepInterval        = 30 * time.Second
	defaultTTL                  = 5 * time.Minute
	// 默认内存上限为物理内存的1/16
	defaultMemoryFraction = 16
)

// CacheOptions 缓存配置选项
type CacheOptions struct {
	MaxEntries           int           `json:"max_entries"`           // 条目数上限
	MaxMemoryBytes       int64         `json:"max_memory_bytes"`      // 总内存上限（字节）
	MaxEntryBytes        int           `json:"max_entry_bytes"`       // 单条目大小上限（字节）
	CompressionThreshold int           `json:"compression_threshold"` // 惰性压缩阈值（字节），0表示禁用
	SweepInterval        time.Duration `json:"sweep_interval"`        // 过期清扫间隔
	DefaultTTL           time.Duration `json:"default_ttl"`           // 未显式指定时的TTL
}

// Config 缓存配置实现
type Config struct {
	options *CacheOptions
}

// createDefaultCacheOptions 创建默认缓存配置
func createDefaultCacheOptions() *CacheOptions {
	maxMemory := int64(memory.TotalMemory() / defaultMemoryFraction)
	if maxMemory <= 0 {
		// 物理内存探测失败时的保守上限
		maxMemory = 256 << 20
	}
	return &CacheOptions{
		MaxEntries:           defaultMaxEntries,
		MaxMemoryBytes:       maxMemory,
		MaxEntryBytes:        defaultMaxEntryBytes,
		CompressionThreshold: defaultCompressionThreshold,
		SweepInterval:        defaultSweepInterval,
		DefaultTTL:           defaultTTL,
	}
}

// New 创建缓存配置实现
func New(userConfig interface{}) *Config {
	defaultOptions := createDefaultCacheOptions()

	if userConfig != nil {
		if configMap, ok := userConfig.(map[string]interface{}); ok {
			if v, exists := configMap["max_entries"]; exists {
				if f, ok := v.(float64); ok && f > 0 {
					defaultOptions.MaxEntries = int(f)
				}
			}
			if v, exists := configMap["max_memory_bytes"]; exists {
				if f, ok := v.(float64); ok && f > 0 {
					defaultOptions.MaxMemoryBytes = int64(f)
				}
			}
			if v, exists := configMap["max_entry_bytes"]; exists {
				if f, ok := v.(float64); ok && f > 0 {
					defaultOptions.MaxEntryBytes = int(f)
				}
			}
			if v, exists := configMap["compression_threshold"]; exists {
				if f, ok := v.(float64); ok && f >= 0 {
					defaultOptions.CompressionThreshold = int(f)
				}
			}
			if v, exists := configMap["sweep_interval"]; exists {
				if s, ok := v.(string); ok {
					if d, err := time.ParseDuration(s); err == nil && d > 0 {
						defaultOptions.SweepInterval = d
					}
				}
			}
			if v, exists := configMap["default_ttl"]; exists {
				if s, ok := v.(string); ok {
					if d, err := time.ParseDuration(s); err == nil && d > 0 {
						defaultOptions.DefaultTTL = d
					}
				}
			}
		}
	}

	return &Config{options: defaultOptions}
}

// GetOptions 获取完整的缓存配置选项
func (c *Config) GetOptions() *CacheOptions {
	return c.options
}

// Validate 校验配置的内部一致性
func (c *Config) Validate() error {
	o := c.options
	if o.MaxEntries <= 0 {
		return fmt.Errorf("条目数上限必须为正: %d", o.MaxEntries)
	}
	if o.MaxMemoryBytes <= 0 {
		return fmt.Errorf("内存上限必须为正: %d", o.MaxMemoryBytes)
	}
	if o.MaxEntryBytes <= 0 || int64(o.MaxEntryBytes) > o.MaxMemoryBytes {
		return fmt.Errorf("单条目上限(%d)必须为正且不超过内存上限(%d)", o.MaxEntryBytes, o.MaxMemoryBytes)
	}
	if o.SweepInterval <= 0 {
		return fmt.Errorf("清扫间隔必须为正: %v", o.SweepInterval)
	}
	return nil
}
