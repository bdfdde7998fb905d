package memory

import (
	"context"
	"time"

	"go.uber.org/fx"

	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	storage "github.com/hychain/v1/pkg/interfaces/infrastructure/storage"
)

// ModuleParams 模块输入参数
type ModuleParams struct {
	fx.In

	Logger log.Logger
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	MemoryStore storage.MemoryStore
}

// ProvideServices 提供内存存储服务
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	store, err := New(10*time.Minute, params.Logger)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{MemoryStore: store}, nil
}

// Module 返回内存存储模块
func Module() fx.Option {
	return fx.Module("storage.memory",
		fx.Provide(ProvideServices),
		fx.Invoke(func(lc fx.Lifecycle, store storage.MemoryStore) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return store.Close()
				},
			})
		}),
	)
}
