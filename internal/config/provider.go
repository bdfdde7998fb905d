// Package config 提供基于JSON文件的配置提供者实现
//
// 📦 **配置装载流程**：
// 1. 读取JSON配置文件（路径来自CLI --config）
// 2. 按区段（consensus/cache/log）分发给各配置包的New()做解析合并
// 3. 解析结果缓存在Provider内，供fx模块注入
package config

import (
	"encoding/json"
	"fmt"
	"os"

	cacheconfig "github.com/hychain/v1/internal/config/cache"
	consensusconfig "github.com/hychain/v1/internal/config/consensus"
	logconfig "github.com/hychain/v1/internal/config/log"
	"github.com/hychain/v1/pkg/interfaces/config"
)

// Provider 基于JSON文件的配置提供者
type Provider struct {
	consensus *consensusconfig.Config
	cache     *cacheconfig.Config
	log       *logconfig.Config
	dataDir   string
}

// NewProvider 从配置文件创建提供者；path为空时使用全默认配置
func NewProvider(path string) (*Provider, error) {
	raw := map[string]interface{}{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败 %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", path, err)
		}
	}

	dataDir := "./data"
	if v, ok := raw["data_dir"].(string); ok && v != "" {
		dataDir = v
	}

	p := &Provider{
		consensus: consensusconfig.New(raw["consensus"]),
		cache:     cacheconfig.New(raw["cache"]),
		log:       logconfig.New(raw["log"]),
		dataDir:   dataDir,
	}

	// fail-fast：配置不一致时拒绝启动
	if err := p.consensus.Validate(); err != nil {
		return nil, fmt.Errorf("共识配置非法: %w", err)
	}
	if err := p.cache.Validate(); err != nil {
		return nil, fmt.Errorf("缓存配置非法: %w", err)
	}

	return p, nil
}

// GetConsensus 获取共识配置
func (p *Provider) GetConsensus() *consensusconfig.ConsensusOptions {
	return p.consensus.GetOptions()
}

// GetCache 获取结果缓存配置
func (p *Provider) GetCache() *cacheconfig.CacheOptions {
	return p.cache.GetOptions()
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *logconfig.LogOptions {
	return p.log.GetOptions()
}

// GetDataDir 获取数据目录
func (p *Provider) GetDataDir() string {
	return p.dataDir
}

// 编译时确保 Provider 实现了配置提供者接口
var _ config.Provider = (*Provider)(nil)
