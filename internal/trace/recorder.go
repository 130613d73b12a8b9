// Package trace records scheduler events as CSV rows and per-priority counts.
package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/google/uuid"

	"ticksched/internal/sched"
)

// Counts aggregates the events seen for one priority.
type Counts struct {
	Activations int64
	Invocations int64
	Completions int64
	Suspensions int64
	Timeouts    int64
	MaxBacklog  uint8
}

// Recorder is a sched.Observer. It must only be fed from the scheduler's CPU
// context, which never raises events concurrently.
type Recorder struct {
	runID  string
	out    *csv.Writer
	closer io.Closer
	stats  *treemap.Map // prio -> *Counts
	idle   int64
}

var _ sched.Observer = (*Recorder)(nil)

// NewRecorder returns a recorder writing CSV to w, or keeping counts only
// when w is nil.
func NewRecorder(w io.Writer) *Recorder {
	r := &Recorder{
		runID: uuid.NewString(),
		stats: treemap.NewWith(utils.IntComparator),
	}
	if w != nil {
		r.out = csv.NewWriter(w)
		r.out.Write([]string{"run_id", "tick", "event", "prio", "busy", "backlog"})
	}
	return r
}

// Create opens path for CSV output.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create trace: %w", err)
	}
	r := NewRecorder(f)
	r.closer = f
	return r, nil
}

// RunID identifies this recording in every CSV row.
func (r *Recorder) RunID() string { return r.runID }

// OnEvent records one event.
func (r *Recorder) OnEvent(ev sched.Event) {
	if r.out != nil {
		r.out.Write([]string{
			r.runID,
			strconv.FormatUint(uint64(ev.Tick), 10),
			ev.Kind.String(),
			strconv.Itoa(ev.Prio),
			strconv.Itoa(ev.Busy),
			strconv.Itoa(int(ev.Backlog)),
		})
	}

	if ev.Prio < 0 {
		if ev.Kind == sched.EventIdle {
			r.idle++
		}
		return
	}

	c := r.counts(ev.Prio)
	switch ev.Kind {
	case sched.EventActivate:
		c.Activations++
	case sched.EventDispatch:
		c.Invocations++
	case sched.EventFinish:
		c.Completions++
	case sched.EventSuspend:
		c.Suspensions++
	case sched.EventTimeout:
		c.Timeouts++
	}
	if ev.Backlog > c.MaxBacklog {
		c.MaxBacklog = ev.Backlog
	}
}

func (r *Recorder) counts(prio int) *Counts {
	if v, ok := r.stats.Get(prio); ok {
		return v.(*Counts)
	}
	c := &Counts{}
	r.stats.Put(prio, c)
	return c
}

// Counts returns the counts for prio.
func (r *Recorder) Counts(prio int) Counts {
	if v, ok := r.stats.Get(prio); ok {
		return *v.(*Counts)
	}
	return Counts{}
}

// Halts returns how often the foreground entered the low-power halt.
func (r *Recorder) Halts() int64 { return r.idle }

// WriteSummary prints one line per priority, highest first.
func (r *Recorder) WriteSummary(w io.Writer, ticks uint32) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "run %s: %s ticks, %s halts\n", r.runID,
		humanize.Comma(int64(ticks)), humanize.Comma(r.idle))
	fmt.Fprintln(tw, "prio\tactivations\tinvocations\tcompletions\tsuspensions\ttimeouts\tmax backlog\t")

	it := r.stats.Iterator()
	for it.End(); it.Prev(); {
		c := it.Value().(*Counts)
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t\n", it.Key().(int),
			humanize.Comma(c.Activations), humanize.Comma(c.Invocations),
			humanize.Comma(c.Completions), humanize.Comma(c.Suspensions),
			humanize.Comma(c.Timeouts), c.MaxBacklog)
	}
	return tw.Flush()
}

// Close flushes the CSV output and closes the file opened by Create.
func (r *Recorder) Close() error {
	if r.out != nil {
		r.out.Flush()
		if err := r.out.Error(); err != nil {
			return fmt.Errorf("flush trace: %w", err)
		}
	}
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
