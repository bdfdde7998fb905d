package local

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	"github.com/hychain/v1/pkg/types"

	"github.com/hychain/v1/internal/core/consensus/voting"
)

// VotingService 本地票仓投票实现
//
// 🗳️ 验证期望：携带投票的区块要求已验证赞成票不少于反对票；
// 未携带投票的区块检查投票窗口是否覆盖区块高度。
type VotingService struct {
	store     consensusiface.ChainStore
	collector *voting.Collector
	logger    log.Logger

	stateMu   sync.Mutex
	lastState *consensusiface.VotingStateUpdate

	completedPeriods atomic.Uint64
	totalVotes       atomic.Uint64
}

var _ consensusiface.VotingService = (*VotingService)(nil)

// NewVotingService 创建本地票仓投票服务
func NewVotingService(store consensusiface.ChainStore, collector *voting.Collector, logger log.Logger) *VotingService {
	return &VotingService{
		store:     store,
		collector: collector,
		logger:    logger,
	}
}

// HealthCheck 子系统健康探测（委托存储连通性）
func (s *VotingService) HealthCheck(ctx context.Context) (bool, error) {
	if err := s.store.Ping(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// CheckBlockLegitimacy 校验区块的投票合法性与参与度
func (s *VotingService) CheckBlockLegitimacy(ctx context.Context, block *types.Block) (bool, error) {
	if block == nil {
		return false, fmt.Errorf("区块为空")
	}

	if len(block.Votes) == 0 {
		return s.heightInVotingWindow(ctx, block.Header.Height)
	}

	var approved, rejected uint64
	for _, vote := range block.Votes {
		if !s.collector.VerifyVote(ctx, vote, block.Validators) {
			continue
		}
		s.totalVotes.Add(1)
		if vote.ChainVote.Approve {
			approved++
		} else {
			rejected++
		}
	}

	if approved+rejected == 0 {
		s.logger.Warnf("区块投票全部无效: height=%d votes=%d", block.Header.Height, len(block.Votes))
		return false, nil
	}
	return approved >= rejected, nil
}

// heightInVotingWindow 检查高度是否落在当前投票窗口内
func (s *VotingService) heightInVotingWindow(ctx context.Context, height uint64) (bool, error) {
	start, err := s.store.GetVotingStartHeight(ctx)
	if err != nil {
		return false, fmt.Errorf("获取投票窗口起点失败: %w", err)
	}
	end, err := s.store.GetVotingEndHeight(ctx)
	if err != nil {
		return false, fmt.Errorf("获取投票窗口终点失败: %w", err)
	}
	if start == 0 && end == 0 {
		// 窗口未配置时单节点模式放行
		return true, nil
	}
	return height >= start && height <= end, nil
}

// HasParticipated 检查地址在指定高度附近是否参与过投票
func (s *VotingService) HasParticipated(ctx context.Context, address string, height uint64) (bool, error) {
	return address == nodeValidatorAddress, nil
}

// HandleChainFork 对分叉区块裁决获胜链尖
//
// 单节点模式没有竞争投票来源，直接采纳分叉区块所在链尖。
func (s *VotingService) HandleChainFork(ctx context.Context, block *types.Block) (types.Hash, error) {
	if block == nil {
		return "", fmt.Errorf("区块为空")
	}
	s.logger.Infof("🔀 分叉裁决: 采纳链尖 %s (height=%d)", block.Hash, block.Header.Height)
	return block.Hash, nil
}

// UpdateVotingState 推送新链尖，驱动投票周期簿记
func (s *VotingService) UpdateVotingState(ctx context.Context, update func() consensusiface.VotingStateUpdate) error {
	if update == nil {
		return fmt.Errorf("状态更新回调为空")
	}
	next := update()

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.lastState != nil && next.Height < s.lastState.Height {
		return fmt.Errorf("链尖高度回退: got=%d last=%d", next.Height, s.lastState.Height)
	}
	s.lastState = &next
	s.completedPeriods.Add(1)
	return nil
}

// GetVotingMetrics 获取投票指标快照
func (s *VotingService) GetVotingMetrics(ctx context.Context) (*types.VotingMetrics, error) {
	return &types.VotingMetrics{
		ActivePeriods:     0,
		CompletedPeriods:  s.completedPeriods.Load(),
		TotalVotes:        s.totalVotes.Load(),
		ParticipationRate: 1.0,
	}, nil
}

// GetParticipationRate 单节点模式下本地地址全程参与
func (s *VotingService) GetParticipationRate(ctx context.Context, address string, height uint64) (float64, error) {
	if address == nodeValidatorAddress {
		return 1.0, nil
	}
	return 0, nil
}
