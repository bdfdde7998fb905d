// Package crypto 提供密码学基础设施实现
//
// 🔐 本包实现引擎消费的两项密码学契约：
// - 内容摘要构建器：从交易列表计算Merkle风格根（SHA3-256）
// - 签名验证器：secp256k1 ECDSA签名校验
package crypto

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/crypto/sha3"

	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
	"github.com/hychain/v1/pkg/types"
)

// DigestBuilder SHA3-256 Merkle根构建器
type DigestBuilder struct{}

// NewDigestBuilder 创建内容摘要构建器
func NewDigestBuilder() cryptoiface.DigestBuilder {
	return &DigestBuilder{}
}

// emptyLeaf 空交易列表的固定叶子
var emptyLeaf = []byte("hychain.empty.root")

// CreateRoot 从交易列表计算内容摘要根
//
// 叶子为单笔交易的规范化哈希，奇数层复制末叶，逐层两两合并。
// 同一交易列表必然得到相同摘要。
func (b *DigestBuilder) CreateRoot(transactions []*types.Transaction) (types.Hash, error) {
	if len(transactions) == 0 {
		sum := sha3.Sum256(emptyLeaf)
		return types.HashFromBytes(sum[:]), nil
	}

	level := make([][]byte, 0, len(transactions))
	for i, tx := range transactions {
		if tx == nil {
			return "", fmt.Errorf("交易列表第 %d 项为空，无法计算摘要", i)
		}
		leaf := hashTransaction(tx)
		level = append(level, leaf)
	}

	for len(level) > 1 {
		// 奇数层复制末叶
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			combined := sha3.Sum256(append(append([]byte(nil), level[i]...), level[i+1]...))
			next = append(next, combined[:])
		}
		level = next
	}

	return types.HashFromBytes(level[0]), nil
}

// hashTransaction 计算单笔交易的规范化哈希
//
// 编码顺序固定：交易ID、输出数量、每个输出的地址/金额/币种，
// 金额未定义时写入哨兵字节以区分于0值。
func hashTransaction(tx *types.Transaction) []byte {
	h := sha3.New256()

	h.Write([]byte(tx.ID))

	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], uint64(len(tx.Outputs)))
	h.Write(countBuf[:])

	for _, out := range tx.Outputs {
		if out == nil {
			h.Write([]byte{0x00})
			continue
		}
		h.Write([]byte(out.Address))
		if out.Amount == nil {
			h.Write([]byte{0x01})
		} else {
			var amountBuf [8]byte
			binary.BigEndian.PutUint64(amountBuf[:], math.Float64bits(*out.Amount))
			h.Write(amountBuf[:])
		}
		h.Write([]byte(out.Currency))
	}

	return h.Sum(nil)
}
