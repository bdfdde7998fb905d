// Package memory 提供基于BigCache的内存缓存实现
package memory

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	storage "github.com/hychain/v1/pkg/interfaces/infrastructure/storage"
)

// TTL前缀，用于在缓存键中存储过期时间
const ttlPrefix = "_ttl_"

// Store 实现MemoryStore接口，基于BigCache提供进程内缓存
//
// 引擎用它存放处理去重标记等短生命周期数据，进程退出即失效。
type Store struct {
	cache  *bigcache.BigCache
	logger log.Logger
	mutex  sync.RWMutex
	closed bool
	keys   map[string]struct{}
}

var _ storage.MemoryStore = (*Store)(nil)

// New 创建BigCache内存存储实例
//
// lifeWindow是BigCache的整体淘汰窗口；单键TTL通过影子键另行跟踪。
func New(lifeWindow time.Duration, logger log.Logger) (*Store, error) {
	if lifeWindow <= 0 {
		lifeWindow = 10 * time.Minute
	}

	cfg := bigcache.DefaultConfig(lifeWindow)
	cfg.CleanWindow = 5 * time.Minute
	cfg.Shards = 1024

	cache, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return &Store{
		cache:  cache,
		logger: logger,
		keys:   make(map[string]struct{}),
	}, nil
}

// Get 获取缓存值；第二个返回值指示键是否存在
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.expireLocked(key) {
		return nil, false, nil
	}

	value, err := s.cache.Get(key)
	if err != nil {
		if err == bigcache.ErrEntryNotFound {
			return nil, false, nil
		}
		s.logger.Warnf("获取缓存键[%s]失败: %v", key, err)
		return nil, false, err
	}
	return value, true, nil
}

// Set 设置缓存值，ttl为0表示跟随整体淘汰窗口
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.cache.Set(key, value); err != nil {
		s.logger.Warnf("设置缓存键[%s]失败: %v", key, err)
		return err
	}
	s.keys[key] = struct{}{}

	if ttl > 0 {
		deadline := make([]byte, 8)
		binary.LittleEndian.PutUint64(deadline, uint64(time.Now().Add(ttl).UnixNano()))
		if err := s.cache.Set(ttlPrefix+key, deadline); err != nil {
			s.logger.Warnf("设置缓存键[%s]的TTL失败: %v", key, err)
			return err
		}
	} else {
		_ = s.cache.Delete(ttlPrefix + key)
	}
	return nil
}

// Delete 删除指定键
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.cache.Delete(key); err != nil && err != bigcache.ErrEntryNotFound {
		s.logger.Warnf("删除缓存键[%s]失败: %v", key, err)
		return err
	}
	delete(s.keys, key)
	_ = s.cache.Delete(ttlPrefix + key)
	return nil
}

// Exists 检查键是否存在
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.expireLocked(key) {
		return false, nil
	}

	_, err := s.cache.Get(key)
	if err != nil {
		if err == bigcache.ErrEntryNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Clear 清空所有缓存
func (s *Store) Clear(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.cache.Reset(); err != nil {
		s.logger.Errorf("清空缓存失败: %v", err)
		return err
	}
	s.keys = make(map[string]struct{})
	return nil
}

// Count 返回当前键数量
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return int64(len(s.keys)), nil
}

// Close 关闭存储并释放资源，重复调用安全
func (s *Store) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		s.logger.Info("内存存储已关闭，跳过重复关闭")
		return nil
	}
	if err := s.cache.Close(); err != nil {
		return err
	}
	s.closed = true
	return nil
}

// expireLocked 检查单键TTL，过期则清理并返回true。调用方需持有写锁。
func (s *Store) expireLocked(key string) bool {
	ttlBytes, err := s.cache.Get(ttlPrefix + key)
	if err != nil {
		return false // 无TTL记录，跟随整体淘汰窗口
	}
	deadline := int64(binary.LittleEndian.Uint64(ttlBytes))
	if time.Now().UnixNano() <= deadline {
		return false
	}
	_ = s.cache.Delete(key)
	_ = s.cache.Delete(ttlPrefix + key)
	delete(s.keys, key)
	return true
}
