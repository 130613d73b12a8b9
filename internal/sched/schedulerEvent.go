// internal/sched/schedulerEvent.go

package sched

// EventKind represents the type of scheduler event
type EventKind int

const (
	EventRegister EventKind = iota
	EventUnregister
	EventActivate
	EventDispatch
	EventFinish
	EventSuspend
	EventResume
	EventBlock
	EventTimeout
	EventIdle
	EventWake
)

// Event is emitted on every activation, invocation and state change of a slot.
// Prio is -1 for scheduler-wide events (Idle, Wake).
type Event struct {
	Tick    uint32
	Kind    EventKind
	Prio    int
	Busy    int   // busy priority when the event was raised
	Backlog uint8 // outstanding activations of the slot
}

// Observer receives scheduler events. OnEvent runs in whichever context raised
// the event, possibly with interrupts disabled, and must not call back into
// the scheduler.
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) OnEvent(ev Event) { f(ev) }

func (ek EventKind) String() string {
	switch ek {
	case EventRegister:
		return "Register"
	case EventUnregister:
		return "Unregister"
	case EventActivate:
		return "Activate"
	case EventDispatch:
		return "Dispatch"
	case EventFinish:
		return "Finish"
	case EventSuspend:
		return "Suspend"
	case EventResume:
		return "Resume"
	case EventBlock:
		return "Block"
	case EventTimeout:
		return "Timeout"
	case EventIdle:
		return "Idle"
	case EventWake:
		return "Wake"
	default:
		return "Unknown"
	}
}

func (s *Scheduler) emit(kind EventKind, prio int) {
	if s.observer == nil {
		return
	}
	ev := Event{Tick: s.now, Kind: kind, Prio: prio, Busy: s.busy}
	if prio >= 0 {
		t := s.table.slot(prio)
		ev.Backlog = Backlog(t.Activated, t.Invoked)
	}
	s.observer.OnEvent(ev)
}
