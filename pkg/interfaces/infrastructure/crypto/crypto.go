// Package crypto 提供HyChain系统的密码学基础设施接口定义
//
// 🔐 **密码学组件契约**
//
// 本文件定义引擎消费的两项密码学能力：
// - DigestBuilder：从交易列表重算内容摘要（Merkle风格根）
// - SignatureVerifier：验证投票签名（secp256k1）
//
// 引擎只消费这些契约，不关心具体算法参数；实现位于
// internal/core/infrastructure/crypto。
package crypto

import "github.com/hychain/v1/pkg/types"

// DigestBuilder 内容摘要构建器
type DigestBuilder interface {
	// CreateRoot 从交易列表计算内容摘要根
	//
	// 同一交易列表必须得到确定性的相同摘要；空列表返回空列表摘要
	// 而非错误，由验证管线与区块头存储值比对。
	CreateRoot(transactions []*types.Transaction) (types.Hash, error)
}

// SignatureVerifier 签名验证器
type SignatureVerifier interface {
	// Verify 验证message的签名是否由publicKey对应的私钥签署
	Verify(publicKey, message, signature []byte) (bool, error)
}
