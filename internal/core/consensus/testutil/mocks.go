// Package testutil 提供共识引擎测试共用的桩实现与构造辅助
package testutil

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	"github.com/hychain/v1/pkg/types"
)

// MockLogger 测试用日志器
type MockLogger struct{}

func (m *MockLogger) Debug(msg string)                          {}
func (m *MockLogger) Debugf(format string, args ...interface{}) {}
func (m *MockLogger) Info(msg string)                           {}
func (m *MockLogger) Infof(format string, args ...interface{})  {}
func (m *MockLogger) Warn(msg string)                           {}
func (m *MockLogger) Warnf(format string, args ...interface{})  {}
func (m *MockLogger) Error(msg string)                          {}
func (m *MockLogger) Errorf(format string, args ...interface{}) {}
func (m *MockLogger) Fatal(msg string)                          {}
func (m *MockLogger) Fatalf(format string, args ...interface{}) {}
func (m *MockLogger) With(args ...interface{}) log.Logger       { return m }
func (m *MockLogger) Sync() error                               { return nil }
func (m *MockLogger) GetZapLogger() *zap.Logger                 { return zap.NewNop() }

// ==================== PoW桩 ====================

// MockPOWService 可编程的PoW子系统桩
//
// 各字段为对应接口方法的替身；未设置的方法返回良性默认值。
type MockPOWService struct {
	ValidateBlockFn    func(ctx context.Context, block *types.Block) (bool, error)
	ValidateWorkFn     func(ctx context.Context, header *types.BlockHeader) (bool, error)
	MineBlockFn        func(ctx context.Context) (*types.Block, error)
	CreateAndMineFn    func(ctx context.Context) (*types.Block, error)
	StartMiningFn      func(ctx context.Context) error
	StopMiningFn       func(ctx context.Context) error
	UpdateDifficultyFn func(ctx context.Context, block *types.Block) error
	HealthCheckFn      func(ctx context.Context) (bool, error)
	ParticipationFn    func(ctx context.Context, address string, height uint64) (float64, error)

	mu            sync.Mutex
	validateCalls int
}

var _ consensusiface.POWService = (*MockPOWService)(nil)

func (m *MockPOWService) ValidateBlock(ctx context.Context, block *types.Block) (bool, error) {
	m.mu.Lock()
	m.validateCalls++
	m.mu.Unlock()
	if m.ValidateBlockFn != nil {
		return m.ValidateBlockFn(ctx, block)
	}
	return true, nil
}

// ValidateCalls 返回ValidateBlock的累计调用次数
func (m *MockPOWService) ValidateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validateCalls
}

func (m *MockPOWService) ValidateWork(ctx context.Context, header *types.BlockHeader) (bool, error) {
	if m.ValidateWorkFn != nil {
		return m.ValidateWorkFn(ctx, header)
	}
	return true, nil
}

func (m *MockPOWService) GetNetworkDifficulty(ctx context.Context) (uint64, error) {
	return 1000, nil
}

func (m *MockPOWService) MineBlock(ctx context.Context) (*types.Block, error) {
	if m.MineBlockFn != nil {
		return m.MineBlockFn(ctx)
	}
	return NewTestBlock(1), nil
}

func (m *MockPOWService) CreateAndMineBlock(ctx context.Context) (*types.Block, error) {
	if m.CreateAndMineFn != nil {
		return m.CreateAndMineFn(ctx)
	}
	return NewTestBlock(1), nil
}

func (m *MockPOWService) StartMining(ctx context.Context) error {
	if m.StartMiningFn != nil {
		return m.StartMiningFn(ctx)
	}
	return nil
}

func (m *MockPOWService) StopMining(ctx context.Context) error {
	if m.StopMiningFn != nil {
		return m.StopMiningFn(ctx)
	}
	return nil
}

func (m *MockPOWService) UpdateDifficulty(ctx context.Context, block *types.Block) error {
	if m.UpdateDifficultyFn != nil {
		return m.UpdateDifficultyFn(ctx, block)
	}
	return nil
}

func (m *MockPOWService) GetMetrics(ctx context.Context) (*types.PowMetrics, error) {
	return &types.PowMetrics{NetworkDifficulty: 1000, HashRate: 42.5, BlocksMined: 7}, nil
}

func (m *MockPOWService) HealthCheck(ctx context.Context) (bool, error) {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return true, nil
}

func (m *MockPOWService) GetParticipationRate(ctx context.Context, address string, height uint64) (float64, error) {
	if m.ParticipationFn != nil {
		return m.ParticipationFn(ctx, address, height)
	}
	return 0.5, nil
}

// ==================== 投票桩 ====================

// MockVotingService 可编程的投票子系统桩
type MockVotingService struct {
	HealthCheckFn     func(ctx context.Context) (bool, error)
	LegitimacyFn      func(ctx context.Context, block *types.Block) (bool, error)
	HasParticipatedFn func(ctx context.Context, address string, height uint64) (bool, error)
	HandleForkFn      func(ctx context.Context, block *types.Block) (types.Hash, error)
	UpdateStateFn     func(ctx context.Context, update func() consensusiface.VotingStateUpdate) error
	ParticipationFn   func(ctx context.Context, address string, height uint64) (float64, error)

	mu              sync.Mutex
	legitimacyCalls int
}

var _ consensusiface.VotingService = (*MockVotingService)(nil)

func (m *MockVotingService) HealthCheck(ctx context.Context) (bool, error) {
	if m.HealthCheckFn != nil {
		return m.HealthCheckFn(ctx)
	}
	return true, nil
}

func (m *MockVotingService) CheckBlockLegitimacy(ctx context.Context, block *types.Block) (bool, error) {
	m.mu.Lock()
	m.legitimacyCalls++
	m.mu.Unlock()
	if m.LegitimacyFn != nil {
		return m.LegitimacyFn(ctx, block)
	}
	return true, nil
}

// LegitimacyCalls 返回CheckBlockLegitimacy的累计调用次数
func (m *MockVotingService) LegitimacyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.legitimacyCalls
}

func (m *MockVotingService) HasParticipated(ctx context.Context, address string, height uint64) (bool, error) {
	if m.HasParticipatedFn != nil {
		return m.HasParticipatedFn(ctx, address, height)
	}
	return true, nil
}

func (m *MockVotingService) HandleChainFork(ctx context.Context, block *types.Block) (types.Hash, error) {
	if m.HandleForkFn != nil {
		return m.HandleForkFn(ctx, block)
	}
	if block != nil {
		return block.Hash, nil
	}
	return "", nil
}

func (m *MockVotingService) UpdateVotingState(ctx context.Context, update func() consensusiface.VotingStateUpdate) error {
	if m.UpdateStateFn != nil {
		return m.UpdateStateFn(ctx, update)
	}
	return nil
}

func (m *MockVotingService) GetVotingMetrics(ctx context.Context) (*types.VotingMetrics, error) {
	return &types.VotingMetrics{ActivePeriods: 1, CompletedPeriods: 3, TotalVotes: 120}, nil
}

func (m *MockVotingService) GetParticipationRate(ctx context.Context, address string, height uint64) (float64, error) {
	if m.ParticipationFn != nil {
		return m.ParticipationFn(ctx, address, height)
	}
	return 0.5, nil
}

// ==================== 链存储桩 ====================

// MockChainStore 可编程的链存储桩
type MockChainStore struct {
	Height       uint64
	VotingStart  uint64
	VotingEnd    uint64
	PingErr      error
	VerifyFn     func(ctx context.Context, address string, message, signature []byte) (bool, error)
	HeightErr    error
}

var _ consensusiface.ChainStore = (*MockChainStore)(nil)

func (m *MockChainStore) GetCurrentHeight(ctx context.Context) (uint64, error) {
	return m.Height, m.HeightErr
}

func (m *MockChainStore) GetVotingStartHeight(ctx context.Context) (uint64, error) {
	return m.VotingStart, nil
}

func (m *MockChainStore) GetVotingEndHeight(ctx context.Context) (uint64, error) {
	return m.VotingEnd, nil
}

func (m *MockChainStore) VerifySignature(ctx context.Context, address string, message, signature []byte) (bool, error) {
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, address, message, signature)
	}
	return true, nil
}

func (m *MockChainStore) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockChainStore) GetPath() string { return "/tmp/mock-chainstore" }

// ==================== 链句柄桩 ====================

// MockChainHandle 可编程的链句柄桩
type MockChainHandle struct {
	Height      uint64
	HeightErr   error
	PublicKey   []byte
	AddBlockFn  func(ctx context.Context, block *types.Block) error

	mu     sync.Mutex
	added  []*types.Block
}

var _ consensusiface.ChainHandle = (*MockChainHandle)(nil)

func (m *MockChainHandle) GetCurrentHeight(ctx context.Context) (uint64, error) {
	if m.HeightErr != nil {
		return 0, m.HeightErr
	}
	return m.Height, nil
}

func (m *MockChainHandle) GetConsensusPublicKey(ctx context.Context) ([]byte, error) {
	return m.PublicKey, nil
}

func (m *MockChainHandle) AddBlock(ctx context.Context, block *types.Block) error {
	if m.AddBlockFn != nil {
		return m.AddBlockFn(ctx, block)
	}
	m.mu.Lock()
	m.added = append(m.added, block)
	m.mu.Unlock()
	return nil
}

// AddedBlocks 返回已追加的区块快照
func (m *MockChainHandle) AddedBlocks() []*types.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Block, len(m.added))
	copy(out, m.added)
	return out
}

func (m *MockChainHandle) GetConfig(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"network": "testnet"}, nil
}

// ==================== 审计桩 ====================

// MockAuditSink 记录审计事件的桩
type MockAuditSink struct {
	mu     sync.Mutex
	events []*types.AuditEvent
}

var _ consensusiface.AuditSink = (*MockAuditSink)(nil)

func (m *MockAuditSink) LogEvent(event *types.AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events 返回已记录事件的快照
func (m *MockAuditSink) Events() []*types.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.AuditEvent, len(m.events))
	copy(out, m.events)
	return out
}

// ==================== 摘要构建桩 ====================

// MockDigestBuilder 可编程的内容摘要桩
type MockDigestBuilder struct {
	CreateRootFn func(txs []*types.Transaction) (types.Hash, error)
}

func (m *MockDigestBuilder) CreateRoot(txs []*types.Transaction) (types.Hash, error) {
	if m.CreateRootFn != nil {
		return m.CreateRootFn(txs)
	}
	return types.Hash("da39a3ee5e6b4b0d3255bfef95601890afd80709da39a3ee5e6b4b0d3255bfef"), nil
}

// FrozenTime 测试用固定时间点
var FrozenTime = time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
