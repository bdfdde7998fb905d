package cache

import (
	"context"

	"go.uber.org/fx"

	"github.com/hychain/v1/pkg/interfaces/config"
	"github.com/hychain/v1/pkg/interfaces/infrastructure/log"
)

// Module 返回结果缓存模块
func Module() fx.Option {
	return fx.Module("cache",
		fx.Provide(
			func(lc fx.Lifecycle, provider config.Provider, logger log.Logger) *BoundedCache {
				c := New(provider.GetCache(), logger)

				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						return c.Close()
					},
				})

				return c
			},
		),
	)
}
