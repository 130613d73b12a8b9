package sched

import "strings"

// Flags describes the properties and state of a task slot.
type Flags uint16

const (
	Direct        Flags = 1 << iota // executed inline at trigger time, interrupts masked
	Periodic                        // countdown reloads after firing
	TimeTriggered                   // waiting for the countdown to expire
	Active                          // running, or interrupted while running
	Blocked                         // parked on a synchronization primitive
	Thread                          // context is retained across Suspend
	Triggered                       // slot occupied; activations invoke the body
)

var flagNames = []string{"direct", "periodic", "tt", "active", "blocked", "thread", "triggered"}

// Has reports whether all bits of m are set.
func (f Flags) Has(m Flags) bool { return f&m == m }

func (f Flags) String() string {
	if f == 0 {
		return "free"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlag maps a configuration name to its flag. Unknown names yield 0.
func ParseFlag(name string) Flags {
	for i, n := range flagNames {
		if n == strings.ToLower(name) {
			return 1 << i
		}
	}
	if strings.EqualFold(name, "time-triggered") {
		return TimeTriggered
	}
	return 0
}

// Counter is an 8-bit activation/invocation counter. It wraps at 256 on
// purpose: the backlog of a slot is the modular difference of two counters,
// so 256 outstanding activations alias to a backlog of 0.
type Counter uint8

// Inc advances the counter, wrapping from 255 to 0.
func (c *Counter) Inc() { *c++ }

// Backlog returns the number of activations not yet served, modulo 256.
func Backlog(activated, invoked Counter) uint8 {
	return uint8(activated - invoked)
}

// Body is the entry point of a task: either RunToCompletion or *Suspendable.
type Body interface {
	entry() func()
}

// RunToCompletion is a body that always runs from start to end.
type RunToCompletion func()

func (b RunToCompletion) entry() func() { return b }

// Suspendable is a thread body. Its saved continuation is non-nil while the
// thread is parked between a Suspend and its resumption.
type Suspendable struct {
	Entry func()
	saved *continuation
}

func (b *Suspendable) entry() func() { return b.Entry }

// Parked reports whether the thread holds a resumable context.
func (b *Suspendable) Parked() bool { return b.saved != nil }

// Task is one priority slot of the task table.
type Task struct {
	Remaining uint16  // ticks left till activation
	Period    uint16  // activation period, 0 means not periodic
	Activated Counter // activations raised (wraps)
	Invoked   Counter // activations served (wraps)
	Flags     Flags
	Prio      uint8 // slot index, kept for reverse lookup
	Timeout   uint16

	timedOut bool
	body     Body
}

func (t *Task) pending() bool { return t.Activated != t.Invoked }

// TaskInfo is a copy of a slot's scheduling state.
type TaskInfo struct {
	Prio      uint8
	Remaining uint16
	Period    uint16
	Activated Counter
	Invoked   Counter
	Flags     Flags
	Timeout   uint16
	Parked    bool
}

// Backlog returns the outstanding activations of the slot.
func (i TaskInfo) Backlog() uint8 { return Backlog(i.Activated, i.Invoked) }

func (t *Task) info() TaskInfo {
	ti := TaskInfo{
		Prio:      t.Prio,
		Remaining: t.Remaining,
		Period:    t.Period,
		Activated: t.Activated,
		Invoked:   t.Invoked,
		Flags:     t.Flags,
		Timeout:   t.Timeout,
	}
	if b, ok := t.body.(*Suspendable); ok {
		ti.Parked = b.Parked()
	}
	return ti
}
