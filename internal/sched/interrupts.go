package sched

import (
	"math/bits"
	"sync/atomic"
)

// StatusWord models the processor status register. Only the interrupt
// enable bit is meaningful to the kernel.
type StatusWord uint16

// IntEnable is the interrupt enable bit of the status word.
const IntEnable StatusWord = 0x8

// IntDisable disables interrupts and returns the previous status word.
func (s *Scheduler) IntDisable() StatusWord {
	sw := s.sw
	s.sw &^= IntEnable
	return sw
}

// RestoreSW restores a status word saved by IntDisable. When this re-enables
// interrupts, latched interrupts are taken and, under the preemptive policy,
// pending work is drained before RestoreSW returns.
func (s *Scheduler) RestoreSW(sw StatusWord) {
	s.sw = sw
	if sw&IntEnable == 0 {
		return
	}
	for {
		s.serviceLatched()
		if !s.pending {
			return
		}
		s.sw &^= IntEnable
		s.drain()
		s.sw = sw
	}
}

// InterruptsEnabled reports whether the current context can be interrupted.
func (s *Scheduler) InterruptsEnabled() bool { return s.sw&IntEnable != 0 }

// CriticalSection is a scoped interrupt guard.
//
//	cs := s.Critical()
//	defer cs.Exit()
type CriticalSection struct {
	s     *Scheduler
	sw    StatusWord
	owner *continuation // thread that entered the section, if any
}

// Critical disables interrupts until Exit is called.
func (s *Scheduler) Critical() CriticalSection {
	cs := CriticalSection{s: s, sw: s.IntDisable()}
	if _, b, ok := s.currentThread(); ok {
		cs.owner = b.saved
	}
	return cs
}

// Exit restores the status word saved when the section was entered. It does
// nothing on behalf of a discarded thread.
func (cs CriticalSection) Exit() {
	if cs.owner != nil && cs.owner.dead {
		return
	}
	cs.s.RestoreSW(cs.sw)
}

// latch holds interrupt requests raised outside the CPU context. Producers on
// any goroutine set it; the CPU context consumes it at interrupt points.
type latch struct {
	ticks    atomic.Uint32
	triggers atomic.Uint64
}

func (l *latch) any() bool {
	return l.ticks.Load() != 0 || l.triggers.Load() != 0
}

func (l *latch) takeTick() bool {
	for {
		n := l.ticks.Load()
		if n == 0 {
			return false
		}
		if l.ticks.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (l *latch) setTrigger(prio uint8) {
	for {
		m := l.triggers.Load()
		if l.triggers.CompareAndSwap(m, m|1<<prio) {
			return
		}
	}
}

// takeTrigger removes the highest latched trigger.
func (l *latch) takeTrigger() (uint8, bool) {
	for {
		m := l.triggers.Load()
		if m == 0 {
			return 0, false
		}
		prio := bits.Len64(m) - 1
		if l.triggers.CompareAndSwap(m, m&^(1<<prio)) {
			return uint8(prio), true
		}
	}
}

// RaiseTick requests a timer interrupt. Safe to call from any goroutine; the
// interrupt is taken on the CPU context at the next interrupt point.
func (s *Scheduler) RaiseTick() {
	s.irq.ticks.Add(1)
	s.power.ExitLowPower()
}

// RaiseTrigger requests an event interrupt for prio from any goroutine.
// Triggers for the same priority coalesce until serviced.
func (s *Scheduler) RaiseTrigger(prio uint8) {
	if !s.table.inRange(prio) {
		return
	}
	s.irq.setTrigger(prio)
	s.power.ExitLowPower()
}

// Tick delivers one timer interrupt from the CPU context. With interrupts
// enabled it is taken immediately, nesting into whatever is running;
// otherwise it stays latched until interrupts are re-enabled.
func (s *Scheduler) Tick() {
	s.irq.ticks.Add(1)
	s.serviceLatched()
}

// serviceLatched takes latched interrupts while interrupts are enabled.
func (s *Scheduler) serviceLatched() {
	for s.sw&IntEnable != 0 {
		if s.irq.takeTick() {
			s.isr(s.timerInterrupt)
			continue
		}
		if prio, ok := s.irq.takeTrigger(); ok {
			s.isr(func() { s.triggerInterrupt(prio) })
			continue
		}
		return
	}
}

// isr runs fn the way the hardware enters an interrupt handler: interrupts
// masked on entry, status word restored on return.
func (s *Scheduler) isr(fn func()) {
	sw := s.sw
	s.sw &^= IntEnable
	fn()
	s.sw = sw
}

// poll is an interrupt point for foreground code.
func (s *Scheduler) poll() {
	if s.irq.any() {
		s.serviceLatched()
	}
}
