// 基于asaskevich/EventBus的事件总线实现
//
// 共识引擎的指标事件流（每次验证尝试一条）经由本总线发布，
// 同步订阅保证同一发布者的FIFO送达顺序。
package event

import (
	"sync/atomic"
	"time"

	evbus "github.com/asaskevich/EventBus"

	"github.com/hychain/v1/pkg/interfaces/infrastructure/event"
)

// EventBus 是基于asaskevich/EventBus的实现
//
// 🎯 **实现特性**：
// - 保持与asaskevich/EventBus的完全兼容
// - 内置轻量指标统计（发布计数）
// - 同步订阅FIFO送达；异步订阅由底层库调度
type EventBus struct {
	bus evbus.Bus // 底层事件总线

	// 指标统计
	publishedTotal atomic.Uint64 // 累计发布事件数
	startedAt      time.Time     // 统计起点
}

// New 创建事件总线实例
func New() event.EventBus {
	return &EventBus{
		bus:       evbus.New(),
		startedAt: time.Now(),
	}
}

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// SubscribeOnce 实现一次性订阅
func (eb *EventBus) SubscribeOnce(eventType event.EventType, handler interface{}) error {
	return eb.bus.SubscribeOnce(string(eventType), handler)
}

// Publish 实现发布
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	eb.publishedTotal.Add(1)
	eb.bus.Publish(string(eventType), args...)
}

// PublishEvent 发布Event接口类型事件
func (eb *EventBus) PublishEvent(e event.Event) {
	eb.publishedTotal.Add(1)
	eb.bus.Publish(string(e.Type()), e.Data())
}

// Unsubscribe 按处理器引用取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// WaitAsync 等待所有异步处理完成
func (eb *EventBus) WaitAsync() {
	eb.bus.WaitAsync()
}

// HasCallback 检查指定事件类型是否有订阅者
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	return eb.bus.HasCallback(string(eventType))
}

// PublishedTotal 返回累计发布事件数（诊断用）
func (eb *EventBus) PublishedTotal() uint64 {
	return eb.publishedTotal.Load()
}

// 编译时确保 EventBus 实现了事件总线接口
var _ event.EventBus = (*EventBus)(nil)
