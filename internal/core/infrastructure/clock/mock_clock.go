package clock

import "time"

// MockClock 测试用可控时钟
type MockClock struct{ currentTime time.Time }

// NewMockClock 创建Mock时钟
func NewMockClock(initial time.Time) *MockClock { return &MockClock{currentTime: initial} }

func (c *MockClock) Now() time.Time                  { return c.currentTime }
func (c *MockClock) Since(t time.Time) time.Duration { return c.currentTime.Sub(t) }
func (c *MockClock) Unix() int64                     { return c.currentTime.Unix() }
func (c *MockClock) UnixNano() int64                 { return c.currentTime.UnixNano() }

// Advance 快进时钟
func (c *MockClock) Advance(d time.Duration) { c.currentTime = c.currentTime.Add(d) }
