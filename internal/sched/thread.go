package sched

import (
	"fmt"
	"runtime"
)

// continuation is the saved context of a thread. The body runs on its own
// goroutine, but control is handed back and forth over unbuffered channels so
// exactly one side executes at a time: the dispatcher blocks in run while the
// thread runs, and the thread blocks in park while the dispatcher runs.
type continuation struct {
	resume chan struct{}
	yield  chan bool // true when the body returned
	kill   chan struct{}
	parked bool
	dead   bool
}

func newContinuation(entry func()) *continuation {
	c := &continuation{
		resume: make(chan struct{}),
		yield:  make(chan bool),
		kill:   make(chan struct{}),
	}
	go func() {
		select {
		case <-c.resume:
		case <-c.kill:
			return
		}
		defer func() {
			select {
			case c.yield <- true:
			case <-c.kill:
			}
		}()
		entry()
	}()
	return c
}

// run transfers control to the thread until it parks or returns.
func (c *continuation) run() bool {
	c.resume <- struct{}{}
	return <-c.yield
}

// park is called on the thread's goroutine. It hands control back to the
// dispatcher and blocks until resumed. A discarded thread never returns.
func (c *continuation) park() {
	c.parked = true
	c.yield <- false
	select {
	case <-c.resume:
		c.parked = false
	case <-c.kill:
		runtime.Goexit()
	}
}

// abort discards the thread. Deferred calls on its stack still run while it
// unwinds, but critical sections it entered no longer touch the scheduler.
func (c *continuation) abort() {
	c.dead = true
	close(c.kill)
}

// runThread starts or resumes a thread and reports whether its body returned.
// The status word is preserved across the hand-off as a context switch
// preserves the status register.
func (s *Scheduler) runThread(t *Task, b *Suspendable) bool {
	prev := s.running
	s.running = t
	t.Flags |= Active
	if b.saved == nil {
		b.saved = newContinuation(b.Entry)
		s.emit(EventDispatch, int(t.Prio))
	} else {
		s.emit(EventResume, int(t.Prio))
	}

	sw := s.sw
	done := b.saved.run()
	s.sw = sw
	s.running = prev

	if done {
		b.saved = nil
		t.Flags &^= Active
		s.emit(EventFinish, int(t.Prio))
	} else {
		s.emit(EventSuspend, int(t.Prio))
	}
	return done
}

// currentThread returns the running slot when it is a thread.
func (s *Scheduler) currentThread() (*Task, *Suspendable, bool) {
	t := s.running
	if t == nil {
		return nil, nil, false
	}
	b, ok := t.body.(*Suspendable)
	if !ok || b.saved == nil {
		return nil, nil, false
	}
	return t, b, true
}

// CurrentThread returns the priority of the running thread. ok is false when
// the caller is not a thread body.
func (s *Scheduler) CurrentThread() (prio uint8, ok bool) {
	t, _, ok := s.currentThread()
	if !ok {
		return 0, false
	}
	return t.Prio, true
}

// Suspend parks the calling thread and returns control to the dispatcher
// without completing the current activation. The thread continues from this
// point when the dispatcher next reaches its level. Only thread bodies may
// call it.
func (s *Scheduler) Suspend() error {
	_, b, ok := s.currentThread()
	if !ok {
		return fmt.Errorf("suspend: %w", NoTask)
	}
	sw := s.sw
	b.saved.park()
	s.sw = sw
	return nil
}

// Park blocks the calling thread until Unpark, or until timeout ticks have
// elapsed when timeout is non-zero. It reports false on timeout.
func (s *Scheduler) Park(timeout uint16) (bool, error) {
	cs := s.Critical()
	defer cs.Exit()

	t, _, ok := s.currentThread()
	if !ok {
		return false, fmt.Errorf("park: %w", NoTask)
	}
	t.Flags |= Blocked
	t.Timeout = timeout
	t.timedOut = false
	s.emit(EventBlock, int(t.Prio))

	if err := s.Suspend(); err != nil {
		return false, err
	}
	return !t.timedOut, nil
}

// Unpark makes the blocked thread at prio eligible again and reports whether
// it was blocked. Under the preemptive policy a thread above the busy
// priority runs before Unpark returns, when called with interrupts enabled.
func (s *Scheduler) Unpark(prio uint8) (bool, error) {
	if !s.table.inRange(prio) {
		return false, fmt.Errorf("unpark task %d: %w", prio, Bounds)
	}

	cs := s.Critical()
	defer cs.Exit()

	t := s.table.slot(int(prio))
	if !t.Flags.Has(Triggered) {
		return false, fmt.Errorf("unpark task %d: %w", prio, NoTask)
	}
	if !t.Flags.Has(Blocked) {
		return false, nil
	}
	t.Flags &^= Blocked
	t.Timeout = 0
	s.ready(t)
	if s.policy == Cooperative {
		s.power.ExitLowPower()
	}
	return true, nil
}
