package engine

import (
	"context"
	"time"

	"github.com/hychain/v1/pkg/types"
)

// 处理去重标记的保留时长
const processedMarkerTTL = 30 * time.Minute

// ProcessBlock 处理管线：以更严格的时限复验区块并放行
//
// 错误语义：
//   - 引擎已销毁 → ErrEngineDisposed
//   - processing_timeout内未完成 → ErrProcessingTimeout
//   - 判定为拒绝 → ErrBlockValidation
//   - 通过 → 返回原区块，写入去重标记并发布处理事件
func (e *Engine) ProcessBlock(ctx context.Context, block *types.Block) (*types.Block, error) {
	if e.disposed.Load() {
		return nil, ErrEngineDisposed
	}
	if block == nil || block.Hash.IsZero() {
		return nil, ErrBlockValidation
	}

	// 已处理过的区块直接放行，避免重复触达子系统
	markerKey := "processed/" + string(block.Hash)
	if exists, err := e.memStore.Exists(ctx, markerKey); err == nil && exists {
		e.logger.Debugf("区块已处理过，跳过复验: hash=%s", block.Hash)
		return block, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.options.Validation.ProcessingTimeout)
	defer cancel()

	verdictCh := make(chan bool, 1)
	go func() {
		verdict, _, _ := e.validate(ctx, block)
		verdictCh <- verdict
	}()

	select {
	case <-ctx.Done():
		return nil, e.processingTimedOut(block)
	case verdict := <-verdictCh:
		if !verdict {
			// 拒绝与超时同时发生时按超时归类，保证错误类型确定
			if ctx.Err() != nil {
				return nil, e.processingTimedOut(block)
			}
			e.logger.Warnf("区块处理中验证未通过: hash=%s height=%d",
				block.Hash, block.Header.Height)
			return nil, ErrBlockValidation
		}
	}

	if err := e.memStore.Set(ctx, markerKey, []byte{1}, processedMarkerTTL); err != nil {
		e.logger.Warnf("处理去重标记写入失败: hash=%s err=%v", block.Hash, err)
	}

	e.audit(&types.AuditEvent{
		Kind:      "block.processed",
		BlockHash: block.Hash,
		Height:    block.Header.Height,
	})
	e.eventBus.Publish(types.EventBlockProcessed, block.Hash)

	e.logger.Infof("✅ 区块处理通过: hash=%s height=%d", block.Hash, block.Header.Height)
	return block, nil
}

func (e *Engine) processingTimedOut(block *types.Block) error {
	e.statsMu.Lock()
	e.validationTimeouts++
	e.statsMu.Unlock()
	e.logger.Warnf("⏰ 区块处理超时: hash=%s timeout=%s",
		block.Hash, e.options.Validation.ProcessingTimeout)
	return ErrProcessingTimeout
}
