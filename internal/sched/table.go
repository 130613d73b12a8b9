package sched

// MaxTasks is the largest task table the kernel supports. The interrupt latch
// keeps one trigger bit per priority in a 64-bit word.
const MaxTasks = 64

// TaskTable is the fixed-size array of task slots indexed by priority. Lower
// indices are lower priorities. It is the sole source of scheduling state and
// is only touched with interrupts disabled.
type TaskTable struct {
	tasks [MaxTasks]Task
	size  int
}

func newTaskTable(size int) TaskTable {
	tt := TaskTable{size: size}
	for i := range tt.tasks[:size] {
		tt.tasks[i].Prio = uint8(i)
	}
	return tt
}

// Len returns the number of priority levels.
func (tt *TaskTable) Len() int { return tt.size }

// Top returns the highest priority level.
func (tt *TaskTable) Top() int { return tt.size - 1 }

func (tt *TaskTable) inRange(prio uint8) bool { return int(prio) < tt.size }

func (tt *TaskTable) slot(prio int) *Task { return &tt.tasks[prio] }

// fill initializes a free slot. The caller has validated the arguments and
// holds the critical section.
func (tt *TaskTable) fill(phasing, period uint16, body Body, prio uint8, flags Flags) {
	t := &tt.tasks[prio]
	t.Period = period
	t.Activated, t.Invoked = 0, 0
	t.Timeout, t.timedOut = 0, false
	t.body = body
	t.Prio = prio

	switch {
	case phasing > 0:
		t.Remaining = phasing - 1
	case period > 0:
		t.Remaining = period - 1
	default:
		t.Remaining = 0
	}
	if period > 0 {
		flags |= Periodic
	}
	if phasing > 0 || period > 0 {
		flags |= TimeTriggered
	}
	t.Flags = flags | Triggered
}
