// Package local 提供单节点运行模式下的共识协作方实现
//
// ⛏️ 本包面向开发网/单节点部署：PoW使用进程内哈希搜索，投票使用
// 本地票仓。多节点生产部署应以各自的分布式实现替换这些协作方。
package local

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/crypto/sha3"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	clockiface "github.com/hychain/v1/pkg/interfaces/infrastructure/clock"
	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	"github.com/hychain/v1/pkg/types"
)

// 单节点模式的固定难度与挖矿间隔
const (
	localDifficulty  = 1 << 12
	miningInterval   = 5 * time.Second
	maxNoncePerRound = 1 << 24
)

// POWService 进程内工作量证明实现
type POWService struct {
	chain  consensusiface.ChainHandle
	digest cryptoiface.DigestBuilder
	clock  clockiface.Clock
	logger log.Logger

	mining      atomic.Bool
	cancelMu    sync.Mutex
	cancelLoop  context.CancelFunc
	blocksMined atomic.Uint64
}

var _ consensusiface.POWService = (*POWService)(nil)

// NewPOWService 创建进程内PoW服务
func NewPOWService(chain consensusiface.ChainHandle, digest cryptoiface.DigestBuilder, clock clockiface.Clock, logger log.Logger) *POWService {
	return &POWService{
		chain:  chain,
		digest: digest,
		clock:  clock,
		logger: logger,
	}
}

// headerDigest 计算区块头的PoW哈希
func headerDigest(header *types.BlockHeader) [32]byte {
	buf := make([]byte, 0, 128)
	tmp := make([]byte, 8)

	binary.BigEndian.PutUint64(tmp, header.Height)
	buf = append(buf, tmp...)
	buf = append(buf, []byte(header.PreviousHash)...)
	binary.BigEndian.PutUint64(tmp, uint64(header.Timestamp.Unix()))
	buf = append(buf, tmp...)
	buf = append(buf, []byte(header.ContentDigest)...)
	binary.BigEndian.PutUint64(tmp, header.Difficulty)
	buf = append(buf, tmp...)
	binary.BigEndian.PutUint64(tmp, header.Nonce)
	buf = append(buf, tmp...)

	return sha3.Sum256(buf)
}

// meetsTarget 检查哈希是否满足难度目标
func meetsTarget(digest [32]byte, difficulty uint64) bool {
	if difficulty == 0 {
		return true
	}
	leading := binary.BigEndian.Uint64(digest[:8])
	return leading <= math.MaxUint64/difficulty
}

// ValidateBlock 校验区块的PoW合法性
func (s *POWService) ValidateBlock(ctx context.Context, block *types.Block) (bool, error) {
	if block == nil {
		return false, fmt.Errorf("区块为空")
	}
	return s.ValidateWork(ctx, &block.Header)
}

// ValidateWork 校验区块头携带的工作量
func (s *POWService) ValidateWork(ctx context.Context, header *types.BlockHeader) (bool, error) {
	if header == nil {
		return false, fmt.Errorf("区块头为空")
	}
	return meetsTarget(headerDigest(header), header.Difficulty), nil
}

// GetNetworkDifficulty 返回当前网络难度（单节点模式为固定值）
func (s *POWService) GetNetworkDifficulty(ctx context.Context) (uint64, error) {
	return localDifficulty, nil
}

// MineBlock 执行一轮挖矿
func (s *POWService) MineBlock(ctx context.Context) (*types.Block, error) {
	return s.CreateAndMineBlock(ctx)
}

// CreateAndMineBlock 基于当前链尖构造候选区块并搜索满足目标的nonce
func (s *POWService) CreateAndMineBlock(ctx context.Context) (*types.Block, error) {
	height, err := s.chain.GetCurrentHeight(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取链尖高度失败: %w", err)
	}

	digest, err := s.digest.CreateRoot(nil)
	if err != nil {
		return nil, fmt.Errorf("内容摘要计算失败: %w", err)
	}

	header := types.BlockHeader{
		Height:        height + 1,
		Timestamp:     s.clock.Now(),
		ContentDigest: digest,
		Difficulty:    localDifficulty,
	}

	for nonce := uint64(0); nonce < maxNoncePerRound; nonce++ {
		if nonce%4096 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		header.Nonce = nonce
		sum := headerDigest(&header)
		if meetsTarget(sum, header.Difficulty) {
			s.blocksMined.Add(1)
			block := &types.Block{
				Hash:   types.HashFromBytes(sum[:]),
				Header: header,
			}
			s.logger.Infof("⛏️ 挖出新区块: height=%d nonce=%d hash=%s",
				header.Height, nonce, block.Hash)
			return block, nil
		}
	}
	return nil, fmt.Errorf("本轮nonce空间内未找到满足目标的工作量")
}

// StartMining 启动后台挖矿循环（幂等）
func (s *POWService) StartMining(ctx context.Context) error {
	if !s.mining.CompareAndSwap(false, true) {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancelMu.Lock()
	s.cancelLoop = cancel
	s.cancelMu.Unlock()

	go s.miningLoop(loopCtx)
	return nil
}

// StopMining 停止后台挖矿循环（幂等）
func (s *POWService) StopMining(ctx context.Context) error {
	if !s.mining.CompareAndSwap(true, false) {
		return nil
	}
	s.cancelMu.Lock()
	if s.cancelLoop != nil {
		s.cancelLoop()
		s.cancelLoop = nil
	}
	s.cancelMu.Unlock()
	return nil
}

func (s *POWService) miningLoop(ctx context.Context) {
	ticker := time.NewTicker(miningInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			block, err := s.CreateAndMineBlock(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warnf("后台挖矿失败: %v", err)
				}
				continue
			}
			if err := s.chain.AddBlock(ctx, block); err != nil {
				s.logger.Warnf("挖出区块落链失败: height=%d err=%v", block.Header.Height, err)
			}
		}
	}
}

// UpdateDifficulty 更新难度统计（单节点模式为空操作）
func (s *POWService) UpdateDifficulty(ctx context.Context, block *types.Block) error {
	return nil
}

// GetMetrics 获取PoW指标快照
func (s *POWService) GetMetrics(ctx context.Context) (*types.PowMetrics, error) {
	return &types.PowMetrics{
		NetworkDifficulty: localDifficulty,
		BlocksMined:       s.blocksMined.Load(),
		ParticipationRate: 1.0,
	}, nil
}

// HealthCheck 子系统健康探测
func (s *POWService) HealthCheck(ctx context.Context) (bool, error) {
	return true, nil
}

// GetParticipationRate 单节点模式下本地地址全程参与
func (s *POWService) GetParticipationRate(ctx context.Context, address string, height uint64) (float64, error) {
	return 1.0, nil
}
