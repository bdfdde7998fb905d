// Package cache 提供有界结果缓存实现
//
// 📦 **有界结果缓存 (Bounded Result Cache)**
//
// 本包实现一个被共识引擎复用的通用键值缓存原语：
// - 条目数与总内存双重上界，超界时按"最低优先级层优先，层内LRU"淘汰
// - 每条目TTL：过期条目读取时视为不存在，并由后台清扫例程周期回收
// - 超过阈值的大值使用snappy压缩存储，读取时才解压（插入时不解压）
// - 命中/未命中/淘汰/内存占用/压缩比等统计可随时查询，
//   除Clear显式重置外在会话内单调不减
//
// 失败语义：超过单条目大小上限的值在Set时返回描述性错误，从不静默截断。
package cache

import (
	"container/list"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/snappy"

	cacheconfig "github.com/hychain/v1/internal/config/cache"
	"github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	"github.com/hychain/v1/pkg/types"
)

// Priority 缓存条目优先级层
//
// 淘汰顺序：先淘汰最低层，同层内按LRU淘汰。
type Priority int

const (
	PriorityLow    Priority = iota // 低优先级 - 最先被淘汰
	PriorityNormal                 // 普通优先级
	PriorityHigh                   // 高优先级 - 最后被淘汰
)

// 优先级层数
const tierCount = 3

// entry 缓存条目
type entry struct {
	key        string
	value      []byte        // 存储的字节（可能已压缩）
	compressed bool          // 是否经过snappy压缩
	rawSize    int           // 压缩前大小
	priority   Priority      // 优先级层
	expiresAt  time.Time     // 过期时间；零值表示永不过期
	elem       *list.Element // 在所属层LRU链表中的位置
}

// storedSize 条目实际占用的字节数
func (e *entry) storedSize() int { return len(e.value) }

// EntryOption 条目级选项
type EntryOption func(*entry)

// WithTTL 指定条目TTL；0表示使用缓存默认TTL
func WithTTL(ttl time.Duration) EntryOption {
	return func(e *entry) {
		if ttl > 0 {
			e.expiresAt = time.Now().Add(ttl)
		}
	}
}

// WithPriority 指定条目优先级层
func WithPriority(p Priority) EntryOption {
	return func(e *entry) {
		if p >= PriorityLow && p <= PriorityHigh {
			e.priority = p
		}
	}
}

// BoundedCache 有界结果缓存
type BoundedCache struct {
	mu      sync.Mutex
	entries map[string]*entry
	tiers   [tierCount]*list.List // 每层一条LRU链表，队首为最近使用
	memory  int64                 // 当前存储字节总量

	config *cacheconfig.CacheOptions
	logger log.Logger

	// 统计（原子量，读取不加锁）
	hits             atomic.Uint64
	misses           atomic.Uint64
	evictions        atomic.Uint64
	compressedRaw    atomic.Int64 // 已压缩条目的压缩前字节累计
	compressedStored atomic.Int64 // 已压缩条目的压缩后字节累计

	// 生命周期
	closed   bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New 创建有界结果缓存并启动后台清扫例程
func New(config *cacheconfig.CacheOptions, logger log.Logger) *BoundedCache {
	c := &BoundedCache{
		entries: make(map[string]*entry),
		config:  config,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	for i := range c.tiers {
		c.tiers[i] = list.New()
	}

	go c.sweepLoop()

	return c
}

// Set 写入条目
//
// 超过单条目大小上限的值返回描述性错误；达到压缩阈值的值以snappy
// 压缩形式存储。写入后如超出条目数或内存上界，立即执行淘汰。
func (c *BoundedCache) Set(key string, value []byte, opts ...EntryOption) error {
	if len(value) > c.config.MaxEntryBytes {
		return fmt.Errorf("缓存值大小 %d 字节超过单条目上限 %d 字节（键 %s）",
			len(value), c.config.MaxEntryBytes, key)
	}

	e := &entry{
		key:      key,
		rawSize:  len(value),
		priority: PriorityNormal,
	}
	if c.config.DefaultTTL > 0 {
		e.expiresAt = time.Now().Add(c.config.DefaultTTL)
	}
	for _, opt := range opts {
		opt(e)
	}

	// 达到阈值的值压缩存储，读取时才解压
	if c.config.CompressionThreshold > 0 && len(value) >= c.config.CompressionThreshold {
		e.value = snappy.Encode(nil, value)
		e.compressed = true
	} else {
		// 复制一份，条目生命周期与调用方缓冲区解耦
		e.value = append([]byte(nil), value...)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("缓存已关闭，拒绝写入（键 %s）", key)
	}

	// 压缩统计只计入实际落入缓存的条目
	if e.compressed {
		c.compressedRaw.Add(int64(e.rawSize))
		c.compressedStored.Add(int64(len(e.value)))
	}

	// 覆盖旧条目
	if old, exists := c.entries[key]; exists {
		c.removeLocked(old)
	}

	c.entries[key] = e
	e.elem = c.tiers[e.priority].PushFront(e)
	c.memory += int64(e.storedSize())

	c.evictIfNeededLocked()
	return nil
}

// Get 读取条目
//
// 过期条目视为不存在并被立即移除；压缩条目在此处解压返回。
// 命中会刷新条目在所属层的LRU位置。
func (c *BoundedCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()

	e, exists := c.entries[key]
	if !exists {
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.removeLocked(e)
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, false
	}

	// 刷新LRU位置
	c.tiers[e.priority].MoveToFront(e.elem)
	value := e.value
	compressed := e.compressed
	c.mu.Unlock()

	c.hits.Add(1)

	if compressed {
		decoded, err := snappy.Decode(nil, value)
		if err != nil {
			// 存储损坏按未命中处理，并移除坏条目
			c.logger.Warnf("缓存条目解压失败（键 %s）: %v", key, err)
			c.Delete(key)
			return nil, false
		}
		return decoded, true
	}
	return append([]byte(nil), value...), true
}

// Delete 删除条目；返回条目是否存在
func (c *BoundedCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		return false
	}
	c.removeLocked(e)
	return true
}

// Clear 清空缓存并重置统计
func (c *BoundedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	for i := range c.tiers {
		c.tiers[i] = list.New()
	}
	c.memory = 0

	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.compressedRaw.Store(0)
	c.compressedStored.Store(0)
}

// Len 返回当前条目数
func (c *BoundedCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Metrics 返回统计快照
func (c *BoundedCache) Metrics() types.CacheMetrics {
	c.mu.Lock()
	size := len(c.entries)
	memory := c.memory
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()
	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	ratio := 1.0
	if raw := c.compressedRaw.Load(); raw > 0 {
		ratio = float64(c.compressedStored.Load()) / float64(raw)
	}

	return types.CacheMetrics{
		Size:             size,
		HitCount:         hits,
		MissCount:        misses,
		HitRate:          hitRate,
		MemoryUsage:      memory,
		EvictionCount:    c.evictions.Load(),
		CompressionRatio: ratio,
	}
}

// Close 停止后台清扫并关闭缓存（幂等）
func (c *BoundedCache) Close() error {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.stopCh)
		<-c.doneCh
	})
	return nil
}

// ==================== 内部方法（调用方须持锁） ====================

// removeLocked 从索引、LRU链表与内存计量中移除条目
func (c *BoundedCache) removeLocked(e *entry) {
	delete(c.entries, e.key)
	c.tiers[e.priority].Remove(e.elem)
	c.memory -= int64(e.storedSize())
}

// evictIfNeededLocked 超界时按"最低层优先，层内LRU"淘汰
func (c *BoundedCache) evictIfNeededLocked() {
	for len(c.entries) > c.config.MaxEntries || c.memory > c.config.MaxMemoryBytes {
		victim := c.pickVictimLocked()
		if victim == nil {
			return
		}
		c.removeLocked(victim)
		c.evictions.Add(1)
	}
}

// pickVictimLocked 从最低非空层的队尾挑选淘汰对象
func (c *BoundedCache) pickVictimLocked() *entry {
	for tier := 0; tier < tierCount; tier++ {
		if back := c.tiers[tier].Back(); back != nil {
			return back.Value.(*entry)
		}
	}
	return nil
}

// sweepLoop 后台周期清扫过期条目
func (c *BoundedCache) sweepLoop() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sweepExpired()
		}
	}
}

// sweepExpired 移除全部已过期条目
func (c *BoundedCache) sweepExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			c.removeLocked(e)
		}
	}
}
