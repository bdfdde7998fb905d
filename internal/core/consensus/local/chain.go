package local

import (
	"context"
	"fmt"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	badgerstore "github.com/hychain/v1/internal/core/infrastructure/storage/badger"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	"github.com/hychain/v1/pkg/types"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
)

// nodeValidatorAddress 本节点在验证者登记表中使用的地址
const nodeValidatorAddress = "local-node"

// ChainHandle 单节点链句柄
//
// 链尖高度持久化在链存储中，AddBlock按高度顺序推进。节点共识密钥
// 在首次启动时生成，并以固定地址登记到验证者表，使本地投票可被
// 存储侧的签名校验接受。
type ChainHandle struct {
	store  *badgerstore.Store
	logger log.Logger

	keyOnce sync.Once
	keyErr  error
	privKey *secp256k1.PrivateKey

	mu sync.Mutex
}

var _ consensusiface.ChainHandle = (*ChainHandle)(nil)

// NewChainHandle 创建单节点链句柄
func NewChainHandle(store *badgerstore.Store, logger log.Logger) *ChainHandle {
	return &ChainHandle{
		store:  store,
		logger: logger,
	}
}

// GetCurrentHeight 获取链尖高度
func (h *ChainHandle) GetCurrentHeight(ctx context.Context) (uint64, error) {
	return h.store.GetCurrentHeight(ctx)
}

// ensureKey 懒加载节点共识密钥并登记验证者
func (h *ChainHandle) ensureKey(ctx context.Context) error {
	h.keyOnce.Do(func() {
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			h.keyErr = fmt.Errorf("生成节点共识密钥失败: %w", err)
			return
		}
		h.privKey = priv
		pub := priv.PubKey().SerializeCompressed()
		if err := h.store.RegisterValidator(ctx, nodeValidatorAddress, pub); err != nil {
			h.keyErr = fmt.Errorf("登记本节点验证者失败: %w", err)
			return
		}
		h.logger.Infof("🔑 节点共识密钥已就绪: address=%s", nodeValidatorAddress)
	})
	return h.keyErr
}

// GetConsensusPublicKey 获取本节点的共识公钥（压缩格式）
func (h *ChainHandle) GetConsensusPublicKey(ctx context.Context) ([]byte, error) {
	if err := h.ensureKey(ctx); err != nil {
		return nil, err
	}
	return h.privKey.PubKey().SerializeCompressed(), nil
}

// AddBlock 将已通过处理管线的区块追加到链上
func (h *ChainHandle) AddBlock(ctx context.Context, block *types.Block) error {
	if block == nil {
		return fmt.Errorf("区块为空")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	current, err := h.store.GetCurrentHeight(ctx)
	if err != nil {
		return fmt.Errorf("获取链尖高度失败: %w", err)
	}
	if block.Header.Height != current+1 {
		return fmt.Errorf("区块高度不连续: got=%d want=%d", block.Header.Height, current+1)
	}
	if err := h.store.SetCurrentHeight(ctx, block.Header.Height); err != nil {
		return fmt.Errorf("推进链尖高度失败: %w", err)
	}

	h.logger.Infof("📦 区块已落链: height=%d hash=%s", block.Header.Height, block.Hash)
	return nil
}

// GetConfig 获取链配置快照
func (h *ChainHandle) GetConfig(ctx context.Context) (map[string]interface{}, error) {
	height, err := h.store.GetCurrentHeight(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"mode":           "local",
		"current_height": height,
		"data_path":      h.store.GetPath(),
	}, nil
}
