package ops

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
)

// 默认监听地址
const defaultListenAddr = ":9090"

// ProvideRegistry 提供带进程/Go运行时采集器的Prometheus注册表
func ProvideRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// Module 返回运维HTTP模块
func Module() fx.Option {
	return fx.Module("api.ops",
		fx.Provide(ProvideRegistry),
		fx.Invoke(func(lc fx.Lifecycle, engine consensusiface.Engine, registry *prometheus.Registry, logger log.Logger) {
			server := NewServer(defaultListenAddr, engine, registry, logger)
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return server.Start()
				},
				OnStop: func(ctx context.Context) error {
					return server.Stop(ctx)
				},
			})
		}),
	)
}
