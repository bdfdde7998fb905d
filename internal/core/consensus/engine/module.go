package engine

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/hychain/v1/internal/core/infrastructure/cache"
	configiface "github.com/hychain/v1/pkg/interfaces/config"
	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	clockiface "github.com/hychain/v1/pkg/interfaces/infrastructure/clock"
	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
	eventiface "github.com/hychain/v1/pkg/interfaces/infrastructure/event"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	storageiface "github.com/hychain/v1/pkg/interfaces/infrastructure/storage"
)

// ModuleParams 模块输入参数
//
// PoW与投票子系统由宿主节点提供；审计与Prometheus注册表可选。
type ModuleParams struct {
	fx.In

	Config        configiface.Provider
	Logger        log.Logger
	EventBus      eventiface.EventBus
	Clock         clockiface.Clock
	Cache         *cache.BoundedCache
	MemoryStore   storageiface.MemoryStore
	DigestBuilder cryptoiface.DigestBuilder
	Pow           consensusiface.POWService
	Voting        consensusiface.VotingService
	ChainStore    consensusiface.ChainStore
	Chain         consensusiface.ChainHandle
	AuditSink     consensusiface.AuditSink `optional:"true"`
	Registry      *prometheus.Registry     `optional:"true"`
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Engine consensusiface.Engine
}

// ProvideServices 组装共识引擎
func ProvideServices(ctx context.Context, params ModuleParams) (ModuleOutput, error) {
	var prom *PromMetrics
	if params.Registry != nil {
		prom = NewPromMetrics(params.Registry)
	}

	eng, err := New(ctx, Deps{
		Options:       params.Config.GetConsensus(),
		Logger:        params.Logger,
		EventBus:      params.EventBus,
		Clock:         params.Clock,
		Cache:         params.Cache,
		MemoryStore:   params.MemoryStore,
		DigestBuilder: params.DigestBuilder,
		Pow:           params.Pow,
		Voting:        params.Voting,
		ChainStore:    params.ChainStore,
		Chain:         params.Chain,
		AuditSink:     params.AuditSink,
		Metrics:       prom,
	})
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Engine: eng}, nil
}

// Module 返回共识引擎模块
func Module() fx.Option {
	return fx.Module("consensus.engine",
		fx.Provide(
			func(lc fx.Lifecycle, params ModuleParams) (ModuleOutput, error) {
				out, err := ProvideServices(context.Background(), params)
				if err != nil {
					return out, err
				}
				lc.Append(fx.Hook{
					OnStop: func(ctx context.Context) error {
						return out.Engine.Dispose()
					},
				})
				return out, nil
			},
		),
	)
}
