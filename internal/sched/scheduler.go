// internal/sched/scheduler.go

package sched

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// Scheduler is a fixed-priority tick scheduler. One Scheduler models one
// single-core processor: the task table, the interrupt enable state and the
// busy/pending markers all live here.
//
// All methods except RaiseTick and RaiseTrigger must be called from the CPU
// context: the goroutine running Run (or driving Tick/Advance) and the task
// bodies it invokes.
type Scheduler struct {
	policy Policy
	table  TaskTable

	sw  StatusWord
	irq latch

	busy      int               // priority being drained, -1 in the foreground
	pending   bool              // work above busy is waiting (preemptive)
	highWater int               // highest priority activated since last service (cooperative)
	frames    *arraystack.Stack // busy priority saved by every active drain pass
	running   *Task             // innermost body executing, nil in the foreground

	threadBlocks int
	threadsUsed  int

	now      uint32
	power    Power
	observer Observer
	logger   *slog.Logger
	idleHook func()
}

// New creates a Scheduler with an empty task table and interrupts enabled.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	cfg.Clamp()
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.power == nil {
		o.power = NewLatch()
	}

	return &Scheduler{
		policy:       policy,
		table:        newTaskTable(cfg.Tasks),
		sw:           IntEnable,
		busy:         -1,
		highWater:    -1,
		frames:       arraystack.New(),
		threadBlocks: cfg.ThreadBlocks,
		power:        o.power,
		observer:     o.observer,
		logger:       o.logger.With("component", "sched", "policy", policy.String()),
		idleHook:     o.idleHook,
	}, nil
}

// Policy returns the dispatch policy.
func (s *Scheduler) Policy() Policy { return s.policy }

// Len returns the number of priority levels.
func (s *Scheduler) Len() int { return s.table.Len() }

// Now returns the number of timer interrupts taken.
func (s *Scheduler) Now() uint32 { return s.now }

// CurrentPrio returns the busy priority under the preemptive policy, and the
// priority of the running body (or -1) under the others.
func (s *Scheduler) CurrentPrio() int {
	if s.policy == Preemptive {
		return s.busy
	}
	if s.running != nil {
		return int(s.running.Prio)
	}
	return -1
}

// Nesting returns the number of drain passes in progress.
func (s *Scheduler) Nesting() int { return s.frames.Size() }

// Task returns a snapshot of the slot at prio.
func (s *Scheduler) Task(prio uint8) (TaskInfo, error) {
	if !s.table.inRange(prio) {
		return TaskInfo{}, fmt.Errorf("task %d: %w", prio, Bounds)
	}
	cs := s.Critical()
	defer cs.Exit()
	return s.table.slot(int(prio)).info(), nil
}

func (s *Scheduler) checkParams(period uint16, body func(), flags Flags) error {
	switch {
	case body == nil:
		return fmt.Errorf("nil body: %w", WrongParam)
	case period == 0 && s.policy.requiresPeriod():
		return fmt.Errorf("%s policy needs a period: %w", s.policy, WrongParam)
	case flags.Has(Direct) && s.policy != Preemptive:
		return fmt.Errorf("direct tasks need the preemptive policy: %w", WrongParam)
	case flags.Has(Thread) && s.policy == Basic:
		return fmt.Errorf("threads need a foreground dispatcher: %w", WrongParam)
	case flags.Has(Direct | Thread):
		return fmt.Errorf("a direct task cannot be a thread: %w", WrongParam)
	}
	return nil
}

// RegisterTask fills the slot at prio. The first activation happens phasing
// ticks after registration; a periodic task with phasing 0 first activates
// one period after registration. A task with neither phasing nor period is
// event triggered only. Only Direct, Thread and TimeTriggered are taken from
// flags; the rest are derived.
func (s *Scheduler) RegisterTask(phasing, period uint16, body func(), prio uint8, flags Flags) error {
	if !s.table.inRange(prio) {
		return fmt.Errorf("register task %d: %w", prio, Bounds)
	}
	flags &= Direct | Thread | TimeTriggered
	if err := s.checkParams(period, body, flags); err != nil {
		return fmt.Errorf("register task %d: %w", prio, err)
	}

	cs := s.Critical()
	defer cs.Exit()

	t := s.table.slot(int(prio))
	if t.Flags != 0 {
		return fmt.Errorf("register task %d: %w", prio, Busy)
	}

	var b Body = RunToCompletion(body)
	if flags.Has(Thread) {
		if s.threadsUsed >= s.threadBlocks {
			return fmt.Errorf("register thread %d: %w", prio, OutOfMemory)
		}
		s.threadsUsed++
		b = &Suspendable{Entry: body}
	}

	s.table.fill(phasing, period, b, prio, flags)
	s.emit(EventRegister, int(prio))
	s.logger.Debug("task registered",
		"prio", prio, "phasing", phasing, "period", period, "flags", t.Flags.String())
	return nil
}

// UnregisterTask frees the slot at prio. It does not wait for an invocation
// of that task that is in progress. A parked thread is discarded.
func (s *Scheduler) UnregisterTask(prio uint8) error {
	if !s.table.inRange(prio) {
		return fmt.Errorf("unregister task %d: %w", prio, Bounds)
	}

	cs := s.Critical()
	defer cs.Exit()

	t := s.table.slot(int(prio))
	if t.Flags.Has(Thread) {
		s.threadsUsed--
		if b, ok := t.body.(*Suspendable); ok && b.saved != nil && b.saved.parked {
			b.saved.abort()
			b.saved = nil
		}
	}
	if t.Flags != 0 {
		s.emit(EventUnregister, int(prio))
		s.logger.Debug("task unregistered", "prio", prio)
	}
	t.Flags = 0
	return nil
}

// Activate triggers the task at prio after ticks timer interrupts, or at once
// when ticks is 0. The target must not be time triggered already. An
// immediate activation above the busy priority is served before Activate
// returns when called with interrupts enabled.
func (s *Scheduler) Activate(prio uint8, ticks uint16) error {
	if s.policy != Preemptive {
		return fmt.Errorf("activate task %d under %s policy: %w", prio, s.policy, WrongParam)
	}
	if !s.table.inRange(prio) {
		return fmt.Errorf("activate task %d: %w", prio, Bounds)
	}

	cs := s.Critical()
	defer cs.Exit()

	t := s.table.slot(int(prio))
	switch {
	case !t.Flags.Has(Triggered):
		return fmt.Errorf("activate task %d: %w", prio, NoTask)
	case t.Flags.Has(TimeTriggered):
		return fmt.Errorf("activate task %d: %w", prio, Busy)
	}

	if ticks > 0 {
		t.Remaining = ticks - 1
		t.Flags |= TimeTriggered
		return nil
	}
	s.activated(t)
	return nil
}

// Trigger raises an event interrupt for prio from the CPU context, as a
// peripheral interrupt would. It is taken immediately when interrupts are
// enabled and latched otherwise.
func (s *Scheduler) Trigger(prio uint8) error {
	if !s.table.inRange(prio) {
		return fmt.Errorf("trigger task %d: %w", prio, Bounds)
	}
	if !s.table.slot(int(prio)).Flags.Has(Triggered) {
		return fmt.Errorf("trigger task %d: %w", prio, NoTask)
	}
	s.irq.setTrigger(prio)
	s.serviceLatched()
	return nil
}

// HandleTasks runs the foreground dispatcher once: under the cooperative
// policy it serves every pending activation in priority order; under the
// preemptive policy it drains pending work. It does nothing under Basic.
func (s *Scheduler) HandleTasks() {
	switch s.policy {
	case Cooperative:
		s.handleCooperative()
	case Preemptive:
		s.RestoreSW(s.IntDisable())
	}
}

// Advance delivers n timer interrupts from the CPU context and gives the
// foreground dispatcher a turn after each one. It is the simulated tick
// source used in place of TickClock.
func (s *Scheduler) Advance(n int) {
	for range n {
		s.Tick()
		if s.policy == Cooperative {
			s.handleCooperative()
		}
	}
}

// Run is the foreground loop: dispatch, then halt until an interrupt. It
// returns when ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "tasks", s.table.Len())
	defer func() { s.logger.Info("scheduler stopped", "ticks", s.now) }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.poll()
		if s.policy == Cooperative {
			s.handleCooperative()
		}
		if err := s.idle(ctx); err != nil {
			return err
		}
	}
}

// idle halts the core when nothing is pending. The decision is re-checked
// with interrupts disabled, and the halt is left through the Power latch, so
// an activation raised after the check but before the halt still wakes the
// core.
func (s *Scheduler) idle(ctx context.Context) error {
	if s.idleHook != nil {
		s.idleHook()
	}

	sw := s.IntDisable()
	if s.irq.any() || s.pending || s.highWater >= 0 {
		s.RestoreSW(sw)
		return nil
	}

	s.emit(EventIdle, -1)
	err := s.power.EnterLowPower(ctx)
	s.emit(EventWake, -1)
	s.RestoreSW(sw)
	return err
}

// Close discards every parked thread.
func (s *Scheduler) Close() {
	cs := s.Critical()
	defer cs.Exit()
	for i := 0; i < s.table.Len(); i++ {
		t := s.table.slot(i)
		if b, ok := t.body.(*Suspendable); ok && b.saved != nil && b.saved.parked {
			b.saved.abort()
			b.saved = nil
		}
	}
}
