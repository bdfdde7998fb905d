// Package config provides configuration provider interfaces.
package config

import (
	cacheconfig "github.com/hychain/v1/internal/config/cache"
	consensusconfig "github.com/hychain/v1/internal/config/consensus"
	logconfig "github.com/hychain/v1/internal/config/log"
)

// Provider 配置提供者接口
type Provider interface {
	// GetConsensus 获取共识配置
	GetConsensus() *consensusconfig.ConsensusOptions

	// GetCache 获取结果缓存配置
	GetCache() *cacheconfig.CacheOptions

	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetDataDir 获取数据目录
	GetDataDir() string
}
