package cache

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cacheconfig "github.com/hychain/v1/internal/config/cache"
	"github.com/hychain/v1/pkg/interfaces/infrastructure/log"
)

// mockLogger 简单的 mock logger
type mockLogger struct{}

func (m *mockLogger) Debug(msg string)                          {}
func (m *mockLogger) Debugf(format string, args ...interface{}) {}
func (m *mockLogger) Info(msg string)                           {}
func (m *mockLogger) Infof(format string, args ...interface{})  {}
func (m *mockLogger) Warn(msg string)                           {}
func (m *mockLogger) Warnf(format string, args ...interface{})  {}
func (m *mockLogger) Error(msg string)                          {}
func (m *mockLogger) Errorf(format string, args ...interface{}) {}
func (m *mockLogger) Fatal(msg string)                          {}
func (m *mockLogger) Fatalf(format string, args ...interface{}) {}
func (m *mockLogger) With(args ...interface{}) log.Logger       { return m }
func (m *mockLogger) Sync() error                               { return nil }
func (m *mockLogger) GetZapLogger() *zap.Logger                 { return nil }

// newTestOptions 测试用缓存配置
func newTestOptions() *cacheconfig.CacheOptions {
	return &cacheconfig.CacheOptions{
		MaxEntries:           8,
		MaxMemoryBytes:       1 << 20,
		MaxEntryBytes:        64 << 10,
		CompressionThreshold: 1024,
		SweepInterval:        50 * time.Millisecond,
		DefaultTTL:           time.Minute,
	}
}

func newTestCache(t *testing.T, opts *cacheconfig.CacheOptions) *BoundedCache {
	t.Helper()
	c := New(opts, &mockLogger{})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBoundedCache_SetGet(t *testing.T) {
	// 测试：基础写入读取往返
	c := newTestCache(t, newTestOptions())

	require.NoError(t, c.Set("k1", []byte("v1")))

	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), got)

	// 未命中计数
	_, ok = c.Get("missing")
	assert.False(t, ok)

	m := c.Metrics()
	assert.Equal(t, uint64(1), m.HitCount)
	assert.Equal(t, uint64(1), m.MissCount)
	assert.Equal(t, 1, m.Size)
}

func TestBoundedCache_TTLExpiry(t *testing.T) {
	// 测试：过期条目读取时视为不存在
	c := newTestCache(t, newTestOptions())

	require.NoError(t, c.Set("short", []byte("v"), WithTTL(20*time.Millisecond)))
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestBoundedCache_SweeperRemovesExpired(t *testing.T) {
	// 测试：后台清扫例程回收过期条目（不经过读取路径）
	c := newTestCache(t, newTestOptions())

	require.NoError(t, c.Set("a", []byte("v"), WithTTL(20*time.Millisecond)))
	require.NoError(t, c.Set("b", []byte("v"))) // 默认TTL，长期有效

	// 等待至少一轮清扫
	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, 1, c.Len())
	_, ok := c.Get("b")
	assert.True(t, ok)
}

func TestBoundedCache_EvictionCountIncreases(t *testing.T) {
	// 测试：插入超过条目上界后，淘汰计数严格递增
	opts := newTestOptions()
	opts.MaxEntries = 4
	c := newTestCache(t, opts)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Set(fmt.Sprintf("k%d", i), []byte("value")))
	}

	m := c.Metrics()
	assert.Equal(t, 4, m.Size)
	assert.Equal(t, uint64(6), m.EvictionCount)

	// 继续插入，计数继续增长
	require.NoError(t, c.Set("extra", []byte("value")))
	assert.Equal(t, uint64(7), c.Metrics().EvictionCount)
}

func TestBoundedCache_EvictionOrder_PriorityThenLRU(t *testing.T) {
	// 测试：淘汰先击中最低优先级层，同层内按LRU
	opts := newTestOptions()
	opts.MaxEntries = 3
	c := newTestCache(t, opts)

	require.NoError(t, c.Set("low-old", []byte("v"), WithPriority(PriorityLow)))
	require.NoError(t, c.Set("low-new", []byte("v"), WithPriority(PriorityLow)))
	require.NoError(t, c.Set("high", []byte("v"), WithPriority(PriorityHigh)))

	// 刷新low-old的LRU位置，使low-new成为低层中最久未用
	_, ok := c.Get("low-old")
	require.True(t, ok)

	// 触发一次淘汰：应淘汰低层LRU队尾的low-new
	require.NoError(t, c.Set("normal", []byte("v"), WithPriority(PriorityNormal)))

	_, ok = c.Get("low-new")
	assert.False(t, ok, "低优先级层的LRU队尾应最先被淘汰")
	_, ok = c.Get("high")
	assert.True(t, ok, "高优先级条目应保留")
}

func TestBoundedCache_MemoryBound(t *testing.T) {
	// 测试：内存上界同样触发淘汰
	opts := newTestOptions()
	opts.MaxEntries = 100
	opts.MaxMemoryBytes = 600
	opts.CompressionThreshold = 0 // 关闭压缩以便精确计量
	c := newTestCache(t, opts)

	payload := make([]byte, 256)
	require.NoError(t, c.Set("a", payload))
	require.NoError(t, c.Set("b", payload))
	require.NoError(t, c.Set("c", payload)) // 768字节 > 600，触发淘汰

	m := c.Metrics()
	assert.LessOrEqual(t, m.MemoryUsage, int64(600))
	assert.GreaterOrEqual(t, m.EvictionCount, uint64(1))
}

func TestBoundedCache_OversizedValueRejected(t *testing.T) {
	// 测试：超过单条目上限的值在Set时报描述性错误，不截断
	opts := newTestOptions()
	opts.MaxEntryBytes = 16
	c := newTestCache(t, opts)

	err := c.Set("big", make([]byte, 64))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "超过单条目上限")
	assert.Equal(t, 0, c.Len())
}

func TestBoundedCache_CompressionRoundTrip(t *testing.T) {
	// 测试：超过阈值的值压缩存储，读取时解压还原
	opts := newTestOptions()
	opts.CompressionThreshold = 64
	c := newTestCache(t, opts)

	// 高重复度数据，snappy压缩收益明显
	payload := bytes.Repeat([]byte("hychain"), 512)
	require.NoError(t, c.Set("compressible", payload))

	got, ok := c.Get("compressible")
	require.True(t, ok)
	assert.Equal(t, payload, got)

	m := c.Metrics()
	assert.Less(t, m.CompressionRatio, 1.0, "压缩比应小于1")
	assert.Less(t, m.MemoryUsage, int64(len(payload)), "存储占用应小于原始大小")
}

func TestBoundedCache_ClearResetsStats(t *testing.T) {
	// 测试：Clear清空条目并重置统计
	c := newTestCache(t, newTestOptions())

	require.NoError(t, c.Set("k", []byte("v")))
	_, _ = c.Get("k")
	_, _ = c.Get("missing")

	c.Clear()

	m := c.Metrics()
	assert.Equal(t, 0, m.Size)
	assert.Equal(t, uint64(0), m.HitCount)
	assert.Equal(t, uint64(0), m.MissCount)
	assert.Equal(t, int64(0), m.MemoryUsage)
}

func TestBoundedCache_CloseIdempotent(t *testing.T) {
	// 测试：Close幂等，关闭后拒绝写入
	c := New(newTestOptions(), &mockLogger{})

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Set("k", []byte("v"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "已关闭")
}

func TestBoundedCache_RejectedSetDoesNotSkewCompressionStats(t *testing.T) {
	// 测试：关闭后被拒绝的写入不计入压缩统计
	opts := newTestOptions()
	opts.CompressionThreshold = 64
	c := New(opts, &mockLogger{})

	require.NoError(t, c.Close())

	payload := bytes.Repeat([]byte("hychain"), 512)
	require.Error(t, c.Set("compressible", payload))

	m := c.Metrics()
	assert.Equal(t, 1.0, m.CompressionRatio, "无成功压缩写入时压缩比保持1")
}

func TestBoundedCache_OverwriteSameKey(t *testing.T) {
	// 测试：同键覆盖不泄漏内存计量
	opts := newTestOptions()
	opts.CompressionThreshold = 0
	c := newTestCache(t, opts)

	require.NoError(t, c.Set("k", make([]byte, 100)))
	require.NoError(t, c.Set("k", make([]byte, 50)))

	m := c.Metrics()
	assert.Equal(t, 1, m.Size)
	assert.Equal(t, int64(50), m.MemoryUsage)
}
