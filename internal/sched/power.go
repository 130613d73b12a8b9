package sched

import "context"

// Power is the low-power mode collaborator. EnterLowPower halts the core until
// ExitLowPower is called from interrupt context or ctx is done.
type Power interface {
	EnterLowPower(ctx context.Context) error
	ExitLowPower()
}

// Latch is the default Power. The wake condition is a one-slot latch, so an
// ExitLowPower that lands before the core halts is not lost: the next
// EnterLowPower returns at once.
type Latch struct {
	wake chan struct{}
}

// NewLatch returns a Latch with no wake pending.
func NewLatch() *Latch {
	return &Latch{wake: make(chan struct{}, 1)}
}

// EnterLowPower blocks until woken or ctx is done.
func (l *Latch) EnterLowPower(ctx context.Context) error {
	select {
	case <-l.wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExitLowPower arms the wake condition. It never blocks.
func (l *Latch) ExitLowPower() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
