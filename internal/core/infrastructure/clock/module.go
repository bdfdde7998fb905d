package clock

import (
	"go.uber.org/fx"

	"github.com/hychain/v1/pkg/interfaces/config"
	infraClock "github.com/hychain/v1/pkg/interfaces/infrastructure/clock"
	"github.com/hychain/v1/pkg/interfaces/infrastructure/log"
)

// Module 返回时钟模块
//
// 配置了NTP服务器时使用NTP校正时钟，否则退回系统时钟。
func Module() fx.Option {
	return fx.Module("clock",
		fx.Provide(
			func(provider config.Provider, logger log.Logger) (infraClock.Clock, error) {
				opts := provider.GetConsensus()
				if opts != nil && opts.Clock.NTPServer != "" {
					c, err := NewNTPClock(opts.Clock.NTPServer, opts.Clock.SyncInterval)
					if err == nil {
						logger.Infof("⏰ NTP时钟已启用: %s", opts.Clock.NTPServer)
						return c, nil
					}
					logger.Warnf("NTP时钟初始化失败，退回系统时钟: %v", err)
				}
				return NewSystemClock(), nil
			},
		),
	)
}
