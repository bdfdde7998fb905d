// Package config 提供应用配置管理功能
package config

import (
	"go.uber.org/fx"

	cacheconfig "github.com/hychain/v1/internal/config/cache"
	consensusconfig "github.com/hychain/v1/internal/config/consensus"
	logconfig "github.com/hychain/v1/internal/config/log"
	configiface "github.com/hychain/v1/pkg/interfaces/config"
)

// ConfigPath 配置文件路径（由CLI注入；为空时使用全部默认值）
type ConfigPath string

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	Path ConfigPath `optional:"true"`
}

// ConfigOutput 定义配置模块的输出结构
type ConfigOutput struct {
	fx.Out

	Provider configiface.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			// 提供具体的配置类型用于依赖注入
			func(provider configiface.Provider) *consensusconfig.ConsensusOptions {
				return provider.GetConsensus()
			},
			func(provider configiface.Provider) *cacheconfig.CacheOptions {
				return provider.GetCache()
			},
			func(provider configiface.Provider) *logconfig.LogOptions {
				return provider.GetLog()
			},
		),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	provider, err := NewProvider(string(params.Path))
	if err != nil {
		return ConfigOutput{}, err
	}
	return ConfigOutput{Provider: provider}, nil
}
