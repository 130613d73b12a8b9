// internal/sched/tickclock.go

package sched

import (
	"sync/atomic"
	"time"
)

// Ticker receives timer interrupts.
type Ticker interface {
	RaiseTick()
}

// TickClock is the wall-clock tick source: one RaiseTick per interval,
// counted atomically.
type TickClock struct {
	target  Ticker
	count   atomic.Int64
	started atomic.Bool
	stop    chan struct{}
	done    chan struct{}
}

// NewTickClock creates a clock driving target. It does not start ticking.
func NewTickClock(target Ticker) *TickClock {
	return &TickClock{
		target: target,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval.
func (c *TickClock) Start(interval time.Duration) {
	c.started.Store(true)
	ticker := time.NewTicker(interval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.count.Add(1)
				c.target.RaiseTick()
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the clock and waits for its goroutine to exit.
func (c *TickClock) Stop() {
	close(c.stop)
	if c.started.Load() {
		<-c.done
	}
}

// Count returns the number of ticks emitted so far.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}

// Interval converts a tick rate into the period of one tick.
func Interval(ticksPerSecond int) time.Duration {
	if ticksPerSecond <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(ticksPerSecond)
}
