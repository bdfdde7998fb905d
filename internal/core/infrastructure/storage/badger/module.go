package badger

import (
	"context"
	"path/filepath"

	"go.uber.org/fx"

	configiface "github.com/hychain/v1/pkg/interfaces/config"
	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
)

// ModuleParams 模块输入参数
type ModuleParams struct {
	fx.In

	Logger   log.Logger
	Config   configiface.Provider
	Verifier cryptoiface.SignatureVerifier
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	ChainStore consensusiface.ChainStore
	AuditSink  consensusiface.AuditSink
	Store      *Store
}

// ProvideServices 提供链状态存储服务
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	dataDir := filepath.Join(params.Config.GetDataDir(), "chainstore")
	store, err := New(dataDir, params.Verifier, params.Logger)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{
		ChainStore: store,
		AuditSink:  store,
		Store:      store,
	}, nil
}

// Module 返回链状态存储模块
func Module() fx.Option {
	return fx.Module("storage.badger",
		fx.Provide(ProvideServices),
		fx.Invoke(func(lc fx.Lifecycle, store *Store) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return store.Close()
				},
			})
		}),
	)
}
