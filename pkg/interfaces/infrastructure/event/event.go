// Package event 提供HyChain系统的事件总线接口定义
//
// 🎯 **事件总线系统 (Event Bus System)**
//
// 本文件定义了HyChain系统的事件总线接口，支持：
// - 标准事件订阅和发布
// - 异步事件处理
// - 按处理器引用取消订阅
// - 事件指标统计
//
// 共识引擎通过事件总线向监控方发布指标事件流（每次验证尝试一条），
// 同一发布者的事件保持FIFO送达顺序。
package event

import "github.com/hychain/v1/pkg/types"

// 兼容别名
type EventType = types.EventType

// Event 事件接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Data 返回事件数据
	Data() interface{}
}

// EventBus 事件总线接口
//
// 注意：事件总线由DI容器自动管理生命周期
type EventBus interface {
	// Subscribe 订阅事件
	Subscribe(eventType EventType, handler interface{}) error
	// SubscribeAsync 异步订阅事件
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error
	// SubscribeOnce 一次性订阅事件
	SubscribeOnce(eventType EventType, handler interface{}) error
	// Publish 发布事件
	Publish(eventType EventType, args ...interface{})
	// PublishEvent 发布Event接口类型事件
	PublishEvent(event Event)
	// Unsubscribe 按处理器引用取消订阅
	Unsubscribe(eventType EventType, handler interface{}) error
	// WaitAsync 等待所有异步处理完成
	WaitAsync()
	// HasCallback 检查指定事件类型是否有订阅者
	HasCallback(eventType EventType) bool
}
