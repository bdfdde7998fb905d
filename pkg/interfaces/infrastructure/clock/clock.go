// Package clock 提供HyChain系统的时钟接口定义
//
// ⏰ **统一时钟抽象**
//
// 区块时间戳校验与指标事件时间戳均通过该接口取时，
// 生产环境使用NTP校正时钟，测试环境使用可控的Mock时钟。
package clock

import "time"

// Clock 时钟接口
type Clock interface {
	// Now 返回当前（可能经过NTP偏移校正的）时间
	Now() time.Time
	// Since 返回自t以来经过的时长
	Since(t time.Time) time.Duration
	// Unix 返回当前Unix秒
	Unix() int64
	// UnixNano 返回当前Unix纳秒
	UnixNano() int64
}
