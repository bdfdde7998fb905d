package local

import (
	"go.uber.org/fx"

	badgerstore "github.com/hychain/v1/internal/core/infrastructure/storage/badger"
	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	clockiface "github.com/hychain/v1/pkg/interfaces/infrastructure/clock"
	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"

	"github.com/hychain/v1/internal/core/consensus/voting"
)

// ModuleParams 模块输入参数
type ModuleParams struct {
	fx.In

	Logger log.Logger
	Clock  clockiface.Clock
	Digest cryptoiface.DigestBuilder
	Store  *badgerstore.Store
}

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	Pow    consensusiface.POWService
	Voting consensusiface.VotingService
	Chain  consensusiface.ChainHandle
}

// ProvideServices 组装单节点协作方服务
func ProvideServices(params ModuleParams) ModuleOutput {
	chain := NewChainHandle(params.Store, params.Logger)
	collector := voting.NewCollector(params.Store, params.Logger)
	return ModuleOutput{
		Pow:    NewPOWService(chain, params.Digest, params.Clock, params.Logger),
		Voting: NewVotingService(params.Store, collector, params.Logger),
		Chain:  chain,
	}
}

// Module 返回单节点协作方模块
func Module() fx.Option {
	return fx.Module("consensus.local",
		fx.Provide(ProvideServices),
	)
}
