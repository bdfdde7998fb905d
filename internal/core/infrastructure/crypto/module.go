package crypto

import (
	"go.uber.org/fx"

	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
)

// ModuleOutput 模块输出
type ModuleOutput struct {
	fx.Out

	DigestBuilder     cryptoiface.DigestBuilder
	SignatureVerifier cryptoiface.SignatureVerifier
}

// ProvideServices 提供密码学基础服务
func ProvideServices() ModuleOutput {
	return ModuleOutput{
		DigestBuilder:     NewDigestBuilder(),
		SignatureVerifier: NewSignatureVerifier(),
	}
}

// Module 返回密码学基础模块
func Module() fx.Option {
	return fx.Module("crypto",
		fx.Provide(ProvideServices),
	)
}
