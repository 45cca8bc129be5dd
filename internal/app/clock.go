package app

import (
	"sync/atomic"
	"time"
)

// stampClock hands out strictly increasing millisecond timestamps, so rows
// saved within the same millisecond still sort in write order.
type stampClock struct {
	now  func() time.Time
	last atomic.Int64
}

func newStampClock(now func() time.Time) *stampClock {
	if now == nil {
		now = time.Now
	}
	return &stampClock{now: now}
}

func (c *stampClock) Stamp() time.Time {
	for {
		last := c.last.Load()
		next := c.now().UnixMilli()
		if next <= last {
			next = last + 1
		}
		if c.last.CompareAndSwap(last, next) {
			return time.UnixMilli(next).UTC()
		}
	}
}
