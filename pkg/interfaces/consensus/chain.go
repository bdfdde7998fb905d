package consensus

import (
	"context"

	"github.com/hychain/v1/pkg/types"
)

// ChainStore 链存储契约
//
// 💾 持久化存储属于外部协作方；引擎只读取高度、投票窗口与签名校验结果。
type ChainStore interface {
	// GetCurrentHeight 获取当前链尖高度
	GetCurrentHeight(ctx context.Context) (uint64, error)

	// GetVotingStartHeight 获取当前投票窗口的起始高度
	GetVotingStartHeight(ctx context.Context) (uint64, error)

	// GetVotingEndHeight 获取当前投票窗口的结束高度
	GetVotingEndHeight(ctx context.Context) (uint64, error)

	// VerifySignature 校验message的签名是否出自address声明的公钥
	VerifySignature(ctx context.Context, address string, message, signature []byte) (bool, error)

	// Ping 存储连通性探测
	Ping(ctx context.Context) error

	// GetPath 返回存储根路径（诊断用）
	GetPath() string
}

// ChainHandle 链句柄契约
//
// 引擎创建时注入，代表宿主节点的链视图；AddBlock的实际落盘由宿主负责。
type ChainHandle interface {
	// GetCurrentHeight 获取链尖高度
	GetCurrentHeight(ctx context.Context) (uint64, error)

	// GetConsensusPublicKey 获取本节点的共识公钥
	GetConsensusPublicKey(ctx context.Context) ([]byte, error)

	// AddBlock 将已通过处理管线的区块追加到链上
	AddBlock(ctx context.Context, block *types.Block) error

	// GetConfig 获取链配置快照
	GetConfig(ctx context.Context) (map[string]interface{}, error)
}
