package sched

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Each case raises the activation at the moment the foreground has decided
// to halt. A lost wake-up shows as Run running into the deadline.
func TestRun_NoLostWakeup(t *testing.T) {
	tests := map[string]struct {
		policy Policy
		raise  func(s *Scheduler)
	}{
		"preemptive, interrupt from another goroutine": {
			policy: Preemptive,
			raise: func(s *Scheduler) {
				done := make(chan struct{})
				go func() {
					s.RaiseTrigger(4)
					close(done)
				}()
				<-done
			},
		},
		"cooperative, interrupt on the cpu": {
			policy: Cooperative,
			raise:  func(s *Scheduler) { s.Trigger(4) },
		},
		"preemptive, delayed activation": {
			policy: Preemptive,
			raise:  func(s *Scheduler) { s.RaiseTick() },
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			var once sync.Once
			var s *Scheduler
			s = newTestScheduler(t, tt.policy, WithIdleHook(func() {
				once.Do(func() { tt.raise(s) })
			}))
			var runs int
			require.NoError(t, s.RegisterTask(1, 60000, func() {
				runs++
				cancel()
			}, 4, 0))

			err := s.Run(ctx)
			assert.ErrorIs(t, err, context.Canceled)
			assert.Equal(t, 1, runs)
		})
	}
}

type countingPower struct {
	*Latch
	halts int
}

func (p *countingPower) EnterLowPower(ctx context.Context) error {
	p.halts++
	return p.Latch.EnterLowPower(ctx)
}

func TestRun_TickClock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	power := &countingPower{Latch: NewLatch()}
	s := newTestScheduler(t, Preemptive, WithPower(power))
	var runs int
	require.NoError(t, s.RegisterTask(0, 2, func() {
		runs++
		if runs == 3 {
			cancel()
		}
	}, 2, 0))

	clock := NewTickClock(s)
	clock.Start(time.Millisecond)
	err := s.Run(ctx)
	clock.Stop()

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, runs)
	assert.GreaterOrEqual(t, clock.Count(), int64(6))
	assert.Positive(t, power.halts, "the core halts between ticks")
}

func TestTickClock_StopWithoutStart(t *testing.T) {
	c := NewTickClock(nil)
	c.Stop()
	assert.Zero(t, c.Count())
}

func TestInterval(t *testing.T) {
	assert.Equal(t, time.Millisecond, Interval(1000))
	assert.Equal(t, time.Second, Interval(0))
}

// lateWakePower raises an interrupt after idle has re-checked for work with
// interrupts disabled, just before the core halts.
type lateWakePower struct {
	*Latch
	s      *Scheduler
	prio   uint8
	raised bool
}

func (p *lateWakePower) EnterLowPower(ctx context.Context) error {
	if !p.raised {
		p.raised = true
		done := make(chan struct{})
		go func() {
			p.s.RaiseTrigger(p.prio)
			close(done)
		}()
		<-done
	}
	return p.Latch.EnterLowPower(ctx)
}

func TestRun_WakeBetweenCheckAndHalt(t *testing.T) {
	for _, policy := range []Policy{Cooperative, Preemptive} {
		t.Run(policy.String(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			power := &lateWakePower{Latch: NewLatch(), prio: 4}
			s := newTestScheduler(t, policy, WithPower(power))
			power.s = s
			var runs int
			require.NoError(t, s.RegisterTask(0, 60000, func() {
				runs++
				cancel()
			}, 4, 0))

			err := s.Run(ctx)
			assert.ErrorIs(t, err, context.Canceled, "the wake raised before the halt is kept")
			assert.True(t, power.raised)
			assert.Equal(t, 1, runs)
		})
	}
}

func TestLatch(t *testing.T) {
	t.Run("exit before enter", func(t *testing.T) {
		l := NewLatch()
		l.ExitLowPower()
		assert.NoError(t, l.EnterLowPower(context.Background()))
	})

	t.Run("wakes coalesce", func(t *testing.T) {
		l := NewLatch()
		l.ExitLowPower()
		l.ExitLowPower()
		assert.NoError(t, l.EnterLowPower(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, l.EnterLowPower(ctx), context.Canceled)
	})

	t.Run("exit from another goroutine", func(t *testing.T) {
		l := NewLatch()
		go l.ExitLowPower()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, l.EnterLowPower(ctx))
	})
}
