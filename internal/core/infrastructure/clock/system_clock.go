// Package clock 提供时钟基础设施实现
//
// ⏰ 生产环境使用NTP校正时钟，测试环境使用MockClock。
package clock

import (
	"time"

	infraClock "github.com/hychain/v1/pkg/interfaces/infrastructure/clock"
)

// SystemClock 直接使用系统时间的时钟
type SystemClock struct{}

// NewSystemClock 创建系统时钟
func NewSystemClock() infraClock.Clock { return &SystemClock{} }

func (c *SystemClock) Now() time.Time                  { return time.Now() }
func (c *SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }
func (c *SystemClock) Unix() int64                     { return time.Now().Unix() }
func (c *SystemClock) UnixNano() int64                 { return time.Now().UnixNano() }
