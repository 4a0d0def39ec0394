package engine

import (
	"sync/atomic"
	"time"
)

// Clock is a monotonic logical clock.
//
// The scheduler stamps each cycle with Next(), and in-memory ledgers use one
// to assign conflict sequence numbers. Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that resumes after start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// WallClock supplies timestamps for statuses, conflicts and overrides.
type WallClock interface {
	Now() time.Time
}

// SystemClock reads time.Now in UTC.
type SystemClock struct{}

// Now implements WallClock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
