package sched

// invoke runs a body from start to end and keeps the running marker current.
func (s *Scheduler) invoke(t *Task) {
	prev := s.running
	s.running = t
	t.Flags |= Active
	s.emit(EventDispatch, int(t.Prio))

	t.body.entry()()

	t.Flags &^= Active
	s.emit(EventFinish, int(t.Prio))
	s.running = prev
}

// withInterrupts runs fn with interrupts enabled. Interrupts latched before
// and during fn are taken at its boundaries, so activations above the busy
// priority preempt the caller there.
func (s *Scheduler) withInterrupts(fn func()) {
	sw := s.sw
	s.sw |= IntEnable
	s.serviceLatched()
	fn()
	s.poll()
	s.sw = sw
}

// drain is the preemptive dispatcher. It serves every level from the top
// down to just above the busy priority found on entry, with interrupts
// disabled except while a body runs. An interrupt taken while a body runs
// starts a nested pass bounded by that body's level, so higher work is served
// to completion before the interrupted level resumes.
//
// Each pass pushes the busy priority it interrupted on the frames stack. The
// top frame is the floor of the running pass, and popping it restores the
// busy priority when the pass ends. Floors strictly rise with nesting, which
// bounds the depth by the number of levels.
func (s *Scheduler) drain() {
	s.pending = false
	if s.busy >= s.table.Top() {
		return
	}

	s.frames.Push(s.busy)
	if s.frames.Size() > s.table.Len()+1 {
		panic("sched: drain nesting exceeds priority levels")
	}

	for s.busy = s.table.Top(); s.busy != s.floor(); s.busy-- {
		s.serve(s.table.slot(s.busy))
	}

	v, _ := s.frames.Pop()
	s.busy = v.(int)
}

// floor returns the busy priority the innermost drain pass stops at.
func (s *Scheduler) floor() int {
	v, ok := s.frames.Peek()
	if !ok {
		return -1
	}
	return v.(int)
}

// Draining returns the busy priorities interrupted by the active drain
// passes, innermost first.
func (s *Scheduler) Draining() []int {
	levels := make([]int, 0, s.frames.Size())
	for _, v := range s.frames.Values() {
		levels = append(levels, v.(int))
	}
	return levels
}

// serve runs one level's backlog under the preemptive policy.
func (s *Scheduler) serve(t *Task) {
	for t.pending() {
		if !t.Flags.Has(Triggered) {
			t.Invoked = t.Activated
			return
		}
		if t.Flags.Has(Blocked) {
			return
		}

		switch b := t.body.(type) {
		case *Suspendable:
			var done bool
			s.withInterrupts(func() { done = s.runThread(t, b) })
			if done {
				t.Invoked.Inc()
			}
		default:
			t.Invoked.Inc()
			s.withInterrupts(func() { s.invoke(t) })
		}
	}
}

// handleCooperative is the cooperative dispatcher. It takes the high-water
// mark, scans down from it and runs every pending level without ever
// interrupting a body. When a higher activation arrives while a body runs,
// the scan resumes from the new mark instead of finishing the lower levels.
func (s *Scheduler) handleCooperative() {
	for {
		sw := s.IntDisable()
		i := s.highWater
		s.highWater = -1
		s.RestoreSW(sw)
		if i < 0 {
			return
		}

		for i >= 0 {
			t := s.table.slot(i)
			if !t.pending() || t.Flags.Has(Blocked) {
				i--
				continue
			}

			if !t.Flags.Has(Triggered) {
				cs := s.Critical()
				t.Invoked = t.Activated
				cs.Exit()
				continue
			}

			done := true
			if b, ok := t.body.(*Suspendable); ok {
				done = s.runThread(t, b)
			} else {
				s.invoke(t)
			}
			s.poll()

			sw := s.IntDisable()
			if done {
				t.Invoked.Inc()
			}
			if s.highWater > i {
				i = s.highWater
				s.highWater = -1
			}
			s.RestoreSW(sw)
		}
	}
}
