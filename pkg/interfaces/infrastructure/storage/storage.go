// Package storage 提供HyChain系统的存储接口定义
//
// 💾 **存储抽象层**
//
// 本文件定义引擎依赖的两类存储能力：
// - MemoryStore：进程内易失缓存（BigCache实现），用于去重标记等短生命周期数据
// - 持久化链存储接口位于 pkg/interfaces/consensus（属于协作方契约）
package storage

import (
	"context"
	"time"
)

// MemoryStore 内存存储接口
type MemoryStore interface {
	// Get 获取缓存值；第二个返回值指示键是否存在
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set 设置缓存值，ttl为0表示永不过期
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete 删除指定键
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在
	Exists(ctx context.Context, key string) (bool, error)
	// Clear 清空所有缓存
	Clear(ctx context.Context) error
	// Count 返回当前键数量（估算值）
	Count(ctx context.Context) (int64, error)
	// Close 关闭存储并释放资源
	Close() error
}
