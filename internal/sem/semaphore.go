// Package sem provides a counting semaphore for scheduler threads.
//
// Waiting blocks the calling thread by parking it in the scheduler, so only
// thread bodies may wait. Posting is allowed from any task or interrupt
// handler. Waiters are released highest priority first.
package sem

import (
	"fmt"
	"math"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"

	"ticksched/internal/sched"
)

// Semaphore is a counting semaphore bound to one scheduler.
type Semaphore struct {
	s       *sched.Scheduler
	count   uint8
	waiters *treeset.Set // priorities of parked threads
}

// New returns a semaphore holding initial units.
func New(s *sched.Scheduler, initial uint8) *Semaphore {
	return &Semaphore{
		s:       s,
		count:   initial,
		waiters: treeset.NewWith(utils.IntComparator),
	}
}

// Count returns the units currently available.
func (m *Semaphore) Count() uint8 {
	cs := m.s.Critical()
	defer cs.Exit()
	return m.count
}

// Waiting returns the number of parked threads.
func (m *Semaphore) Waiting() int {
	cs := m.s.Critical()
	defer cs.Exit()
	return m.waiters.Size()
}

// Wait takes one unit, parking the calling thread while none is available.
// A non-zero timeout bounds each park in ticks; expiry fails with
// sched.SemaphoreFail. Callers that are not threads get sched.NoTask.
func (m *Semaphore) Wait(timeout uint16) error {
	cs := m.s.Critical()
	defer cs.Exit()

	for m.count == 0 {
		prio, ok := m.s.CurrentThread()
		if !ok {
			return fmt.Errorf("sem wait: %w", sched.NoTask)
		}

		m.waiters.Add(int(prio))
		woken, err := m.s.Park(timeout)
		m.waiters.Remove(int(prio))
		if err != nil {
			return fmt.Errorf("sem wait: %w", err)
		}
		if !woken {
			return fmt.Errorf("sem wait timed out after %d ticks: %w", timeout, sched.SemaphoreFail)
		}
	}
	m.count--
	return nil
}

// Post releases one unit and unblocks the highest priority waiter. It fails
// with sched.BufferFault when the count would overflow, and otherwise always
// succeeds.
//
// A waiter that already timed out, or whose thread was discarded, is dropped
// and the next one is tried, so the unit never sits unclaimed while a live
// waiter stays parked.
func (m *Semaphore) Post() error {
	cs := m.s.Critical()
	defer cs.Exit()

	if m.count == math.MaxUint8 {
		return fmt.Errorf("sem post: %w", sched.BufferFault)
	}
	m.count++

	for {
		it := m.waiters.Iterator()
		if !it.Last() {
			return nil
		}
		prio := it.Value().(int)
		m.waiters.Remove(prio)
		if woken, err := m.s.Unpark(uint8(prio)); err == nil && woken {
			return nil
		}
	}
}
