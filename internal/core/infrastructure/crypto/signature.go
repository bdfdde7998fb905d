package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
)

// SignatureVerifier secp256k1 ECDSA签名验证器
//
// 投票签名约定：对消息的SHA3-256摘要做ECDSA签名（DER编码），
// 公钥为33字节压缩格式。
type SignatureVerifier struct{}

// NewSignatureVerifier 创建签名验证器
func NewSignatureVerifier() cryptoiface.SignatureVerifier {
	return &SignatureVerifier{}
}

// Verify 验证message的签名是否由publicKey对应的私钥签署
func (v *SignatureVerifier) Verify(publicKey, message, signature []byte) (bool, error) {
	if len(publicKey) == 0 || len(signature) == 0 {
		return false, fmt.Errorf("公钥或签名为空")
	}

	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false, fmt.Errorf("解析公钥失败: %w", err)
	}

	sig, err := secpecdsa.ParseDERSignature(signature)
	if err != nil {
		return false, fmt.Errorf("解析签名失败: %w", err)
	}

	digest := sha3.Sum256(message)
	return sig.Verify(digest[:], pubKey), nil
}
