package sched

// timerInterrupt is the tick handler. It counts down every time triggered
// slot, highest priority first, and activates the ones that expire. Blocked
// threads with a timeout are counted down in the same scan.
func (s *Scheduler) timerInterrupt() {
	s.now++
	for i := s.table.Top(); i >= 0; i-- {
		t := s.table.slot(i)

		if t.Flags.Has(Blocked) && t.Timeout > 0 {
			t.Timeout--
			if t.Timeout == 0 {
				t.Flags &^= Blocked
				t.timedOut = true
				s.emit(EventTimeout, i)
				s.ready(t)
			}
		}

		if !t.Flags.Has(TimeTriggered) {
			continue
		}
		if t.Remaining > 0 {
			t.Remaining--
			continue
		}
		if t.Flags.Has(Periodic) {
			t.Remaining = t.Period - 1
		} else {
			t.Flags &^= TimeTriggered // one-shot consumed
		}
		s.activated(t)
	}
	s.finishInterrupt()
}

// triggerInterrupt activates one slot on behalf of a peripheral interrupt.
func (s *Scheduler) triggerInterrupt(prio uint8) {
	t := s.table.slot(int(prio))
	if !t.Flags.Has(Triggered) {
		return
	}
	s.activated(t)
	s.finishInterrupt()
}

// activated records one activation of t and dispatches it per policy. Runs
// with interrupts disabled.
func (s *Scheduler) activated(t *Task) {
	t.Activated.Inc()
	s.emit(EventActivate, int(t.Prio))

	switch s.policy {
	case Basic:
		s.invoke(t)
		t.Invoked.Inc()
	case Cooperative:
		s.raise(int(t.Prio))
	case Preemptive:
		if t.Flags.Has(Direct) {
			t.Invoked.Inc()
			s.invoke(t)
		} else if int(t.Prio) > s.busy {
			s.pending = true
		}
	}
}

// ready makes an unblocked thread eligible again.
func (s *Scheduler) ready(t *Task) {
	switch s.policy {
	case Cooperative:
		s.raise(int(t.Prio))
	case Preemptive:
		if int(t.Prio) > s.busy {
			s.pending = true
		}
	}
}

func (s *Scheduler) raise(prio int) {
	if prio > s.highWater {
		s.highWater = prio
	}
}

// finishInterrupt is the common interrupt epilogue: drain before returning
// under the preemptive policy, leave the low-power halt under the
// cooperative one.
func (s *Scheduler) finishInterrupt() {
	switch s.policy {
	case Cooperative:
		if s.highWater >= 0 {
			s.power.ExitLowPower()
		}
	case Preemptive:
		if s.pending {
			s.drain()
		}
	}
}
