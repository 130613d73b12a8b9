package trace

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticksched/internal/sched"
)

func record(t *testing.T, rec *Recorder) {
	t.Helper()
	s, err := sched.New(sched.DefaultConfig(), sched.WithObserver(rec))
	require.NoError(t, err)
	require.NoError(t, s.RegisterTask(0, 2, func() {}, 1, 0))
	s.Advance(4)
}

func TestRecorder_CSV(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	record(t, rec)
	require.NoError(t, rec.Close())

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"run_id", "tick", "event", "prio", "busy", "backlog"}, rows[0])

	var events []string
	for _, row := range rows[1:] {
		assert.Equal(t, rec.RunID(), row[0])
		events = append(events, row[2])
	}
	assert.Equal(t, []string{"Register", "Activate", "Dispatch", "Finish", "Activate", "Dispatch", "Finish"}, events)
	assert.Equal(t, []string{rec.RunID(), "2", "Dispatch", "1", "1", "0"}, rows[3])
}

func TestRecorder_Counts(t *testing.T) {
	rec := NewRecorder(nil)
	record(t, rec)

	assert.Equal(t, Counts{Activations: 2, Invocations: 2, Completions: 2, MaxBacklog: 1}, rec.Counts(1))
	assert.Equal(t, Counts{}, rec.Counts(7))
	assert.NoError(t, rec.Close())
}

func TestRecorder_Halts(t *testing.T) {
	rec := NewRecorder(nil)
	rec.OnEvent(sched.Event{Kind: sched.EventIdle, Prio: -1})
	rec.OnEvent(sched.Event{Kind: sched.EventWake, Prio: -1})
	assert.Equal(t, int64(1), rec.Halts())
}

func TestRecorder_Summary(t *testing.T) {
	rec := NewRecorder(nil)
	rec.OnEvent(sched.Event{Kind: sched.EventActivate, Prio: 2})
	rec.OnEvent(sched.Event{Kind: sched.EventActivate, Prio: 7, Backlog: 3})

	var buf bytes.Buffer
	require.NoError(t, rec.WriteSummary(&buf, 2048))
	out := buf.String()

	assert.Contains(t, out, "2,048 ticks")
	assert.Contains(t, out, rec.RunID())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"7", "1", "0", "0", "0", "0", "3"}, strings.Fields(lines[2]))
	assert.Equal(t, "2", strings.Fields(lines[3])[0])
}

func TestCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.csv")
	rec, err := Create(path)
	require.NoError(t, err)
	record(t, rec)
	require.NoError(t, rec.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "run_id,tick,event")

	_, err = Create(filepath.Join(t.TempDir(), "missing", "trace.csv"))
	assert.Error(t, err)
}
