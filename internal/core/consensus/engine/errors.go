package engine

import (
	"fmt"

	"github.com/hychain/v1/pkg/types"
)

// ==================== 错误码 ====================

const (
	// CodeEngineDisposed 引擎已销毁
	CodeEngineDisposed = "ENGINE_DISPOSED"
	// CodeProcessingTimeout 处理管线超时
	CodeProcessingTimeout = "PROCESSING_TIMEOUT"
	// CodeBlockValidation 区块验证未通过
	CodeBlockValidation = "BLOCK_VALIDATION_FAILED"
	// CodeForkDepthExceeded 分叉深度超限
	CodeForkDepthExceeded = "FORK_DEPTH_EXCEEDED"
)

// ConsensusError 共识引擎的结构化错误
//
// Cause携带机器可读的上下文（如分叉深度明细），Message面向人读。
type ConsensusError struct {
	Code    string      // 稳定的错误码，调用方据此分支
	Message string      // 人类可读描述
	Cause   interface{} // 结构化上下文，可为nil
}

// Error 实现error接口
func (e *ConsensusError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %+v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// ==================== 哨兵错误 ====================

// ErrEngineDisposed 引擎已销毁，所有部分操作确定性失败
var ErrEngineDisposed = &ConsensusError{
	Code:    CodeEngineDisposed,
	Message: "共识引擎已销毁",
}

// ErrProcessingTimeout 处理管线在硬时限内未完成
var ErrProcessingTimeout = &ConsensusError{
	Code:    CodeProcessingTimeout,
	Message: "区块处理超时",
}

// ErrBlockValidation 处理管线中区块验证未通过
var ErrBlockValidation = &ConsensusError{
	Code:    CodeBlockValidation,
	Message: "区块验证未通过",
}

// NewForkDepthError 构造分叉深度超限错误
//
// Cause携带 {CurrentHeight, ForkHeight, ForkDepth, MaxAllowed} 四元组，
// 供上层决定是否丢弃分叉或触发人工介入。
func NewForkDepthError(record *types.ForkRecord) *ConsensusError {
	return &ConsensusError{
		Code: CodeForkDepthExceeded,
		Message: fmt.Sprintf("Fork depth exceeds maximum allowed: depth=%d max=%d",
			record.ForkDepth, record.MaxAllowed),
		Cause: record,
	}
}
