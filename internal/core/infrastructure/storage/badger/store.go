// Package badger 提供基于BadgerDB的链状态存储实现
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"

	consensusiface "github.com/hychain/v1/pkg/interfaces/consensus"
	cryptoiface "github.com/hychain/v1/pkg/interfaces/infrastructure/crypto"
	log "github.com/hychain/v1/pkg/interfaces/infrastructure/log"
	"github.com/hychain/v1/pkg/types"
)

// ==================== 键空间 ====================

const (
	keyChainHeight  = "chain/height"
	keyVotingStart  = "voting/start"
	keyVotingEnd    = "voting/end"
	prefixValidator = "validator/pubkey/"
	prefixAudit     = "audit/"

	// 审计事件保留7天，到期由Badger TTL自动回收
	auditTTL = 7 * 24 * time.Hour
)

// Store 基于BadgerDB的链状态存储
//
// 💾 职责：
//   - 链尖高度与投票窗口的持久化读取
//   - 验证者公钥登记与投票签名校验
//   - 审计事件的TTL落盘（默认实现 consensusiface.AuditSink）
type Store struct {
	db       *badgerdb.DB
	path     string
	logger   log.Logger
	verifier cryptoiface.SignatureVerifier

	// 避免 Close 过程中仍有写入，触发 Badger 内部 fatal
	closing int32
	writeWg sync.WaitGroup
	once    sync.Once
}

var _ consensusiface.ChainStore = (*Store)(nil)
var _ consensusiface.AuditSink = (*Store)(nil)

// New 创建新的BadgerDB链状态存储
//
// dataDir为空时使用 ./data/chainstore；目录不存在则创建。
func New(dataDir string, verifier cryptoiface.SignatureVerifier, logger log.Logger) (*Store, error) {
	if logger == nil {
		return nil, fmt.Errorf("日志器未注入")
	}
	if dataDir == "" {
		dataDir = filepath.Join(".", "data", "chainstore")
		logger.Warnf("链存储目录未配置，使用默认路径: %s", dataDir)
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("无法创建链存储目录: %w", err)
	}

	opts := badgerdb.DefaultOptions(dataDir)
	opts.SyncWrites = true
	opts.NumMemtables = 2
	opts.BlockCacheSize = 64 << 20
	opts.IndexCacheSize = 64 << 20
	opts.ValueLogFileSize = 512 << 20
	opts.Logger = newBadgerLogger(logger)

	db, err := badgerdb.Open(opts)
	if err != nil {
		// 残留LOCK通常来自上次异常退出，清理后重试一次
		if strings.Contains(err.Error(), "LOCK") {
			logger.Warnf("检测到残留LOCK文件，清理后重试打开: %v", err)
			_ = os.Remove(filepath.Join(dataDir, "LOCK"))
			db, err = badgerdb.Open(opts)
		}
		if err != nil {
			return nil, fmt.Errorf("无法打开链存储数据库: %w", err)
		}
	}

	logger.Infof("链状态存储初始化完成，数据目录: %s", dataDir)
	return &Store{
		db:       db,
		path:     dataDir,
		logger:   logger,
		verifier: verifier,
	}, nil
}

// NewInMemory 创建内存模式的链状态存储（测试与临时节点使用）
func NewInMemory(verifier cryptoiface.SignatureVerifier, logger log.Logger) (*Store, error) {
	if logger == nil {
		return nil, fmt.Errorf("日志器未注入")
	}
	opts := badgerdb.DefaultOptions("").WithInMemory(true)
	opts.Logger = newBadgerLogger(logger)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("无法打开内存链存储: %w", err)
	}
	return &Store{db: db, path: "", logger: logger, verifier: verifier}, nil
}

func (s *Store) beginWrite() (func(), error) {
	if atomic.LoadInt32(&s.closing) == 1 {
		return nil, fmt.Errorf("链存储正在关闭")
	}
	s.writeWg.Add(1)
	if atomic.LoadInt32(&s.closing) == 1 {
		s.writeWg.Done()
		return nil, fmt.Errorf("链存储正在关闭")
	}
	return s.writeWg.Done, nil
}

// ==================== 高度与投票窗口 ====================

// GetCurrentHeight 获取当前链尖高度
func (s *Store) GetCurrentHeight(ctx context.Context) (uint64, error) {
	return s.getUint64(keyChainHeight)
}

// SetCurrentHeight 更新链尖高度（由宿主在落块后调用）
func (s *Store) SetCurrentHeight(ctx context.Context, height uint64) error {
	return s.setUint64(keyChainHeight, height)
}

// GetVotingStartHeight 获取当前投票窗口的起始高度
func (s *Store) GetVotingStartHeight(ctx context.Context) (uint64, error) {
	return s.getUint64(keyVotingStart)
}

// GetVotingEndHeight 获取当前投票窗口的结束高度
func (s *Store) GetVotingEndHeight(ctx context.Context) (uint64, error) {
	return s.getUint64(keyVotingEnd)
}

// SetVotingWindow 设置投票窗口的高度区间
func (s *Store) SetVotingWindow(ctx context.Context, start, end uint64) error {
	if end < start {
		return fmt.Errorf("投票窗口非法: end(%d) < start(%d)", end, start)
	}
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		if err := txn.Set([]byte(keyVotingStart), encodeUint64(start)); err != nil {
			return err
		}
		return txn.Set([]byte(keyVotingEnd), encodeUint64(end))
	})
}

// ==================== 验证者公钥与签名校验 ====================

// RegisterValidator 登记验证者地址对应的公钥
func (s *Store) RegisterValidator(ctx context.Context, address string, publicKey []byte) error {
	if address == "" || len(publicKey) == 0 {
		return fmt.Errorf("验证者地址或公钥为空")
	}
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(prefixValidator+address), publicKey)
	})
}

// VerifySignature 校验message的签名是否出自address登记的公钥
//
// 地址未登记视为校验失败而非错误，调用方据此拒绝投票。
func (s *Store) VerifySignature(ctx context.Context, address string, message, signature []byte) (bool, error) {
	var pubKey []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(prefixValidator + address))
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return nil
			}
			return err
		}
		pubKey, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("读取验证者公钥失败: %w", err)
	}
	if pubKey == nil {
		s.logger.Debugf("验证者未登记，签名校验直接失败: address=%s", address)
		return false, nil
	}
	return s.verifier.Verify(pubKey, message, signature)
}

// ==================== 审计事件 ====================

// LogEvent 落盘一条审计事件，带TTL自动回收
func (s *Store) LogEvent(event *types.AuditEvent) {
	if event == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Warnf("审计事件序列化失败: %v", err)
		return
	}

	key := fmt.Sprintf("%s%d/%s", prefixAudit, event.Timestamp.UnixNano(), uuid.NewString())
	done, err := s.beginWrite()
	if err != nil {
		s.logger.Debugf("审计事件丢弃（存储关闭中）: kind=%s", event.Kind)
		return
	}
	defer done()
	if err := s.db.Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry([]byte(key), payload).WithTTL(auditTTL)
		return txn.SetEntry(entry)
	}); err != nil {
		s.logger.Warnf("审计事件写入失败: %v", err)
	}
}

// RecentAuditEvents 按时间倒序返回最近的审计事件（诊断接口用）
func (s *Store) RecentAuditEvents(ctx context.Context, limit int) ([]*types.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	events := make([]*types.AuditEvent, 0, limit)
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse遍历需要seek到前缀区间的上界
		seek := append([]byte(prefixAudit), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(prefixAudit)) && len(events) < limit; it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			var ev types.AuditEvent
			if err := json.Unmarshal(val, &ev); err != nil {
				continue
			}
			events = append(events, &ev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("审计事件扫描失败: %w", err)
	}
	return events, nil
}

// ==================== 连通性与生命周期 ====================

// Ping 存储连通性探测
func (s *Store) Ping(ctx context.Context) error {
	if atomic.LoadInt32(&s.closing) == 1 {
		return fmt.Errorf("链存储已关闭")
	}
	return s.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keyChainHeight))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// GetPath 返回存储根路径（诊断用）
func (s *Store) GetPath() string {
	return s.path
}

// Close 关闭存储并释放资源
//
// 等待in-flight写事务退出后再关闭底层数据库，重复调用安全。
func (s *Store) Close() error {
	var closeErr error
	s.once.Do(func() {
		atomic.StoreInt32(&s.closing, 1)

		waitCh := make(chan struct{})
		go func() {
			s.writeWg.Wait()
			close(waitCh)
		}()
		select {
		case <-waitCh:
		case <-time.After(10 * time.Second):
			s.logger.Warn("⚠️ 等待in-flight写事务超时，继续关闭链存储")
		}

		if err := s.db.Close(); err != nil {
			if strings.Contains(err.Error(), "LOCK: no such file or directory") {
				s.logger.Warn("链存储LOCK文件已不存在，视为正常关闭")
			} else {
				closeErr = fmt.Errorf("关闭链存储失败: %w", err)
				return
			}
		}
		s.logger.Info("链状态存储已安全关闭")
	})
	return closeErr
}

// ==================== 内部工具 ====================

func (s *Store) getUint64(key string) (uint64, error) {
	var value uint64
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if err == badgerdb.ErrKeyNotFound {
				return nil // 未初始化视为0
			}
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("键 %s 的值长度非法: %d", key, len(val))
			}
			value = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("读取 %s 失败: %w", key, err)
	}
	return value, nil
}

func (s *Store) setUint64(key string, value uint64) error {
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), encodeUint64(value))
	})
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

// badgerLogger 适配BadgerDB的日志接口
type badgerLogger struct {
	logger log.Logger
}

func newBadgerLogger(logger log.Logger) *badgerLogger {
	return &badgerLogger{logger: logger}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf("[BadgerDB] "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf("[BadgerDB] "+format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Infof("[BadgerDB] "+format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("[BadgerDB] "+format, args...)
}
