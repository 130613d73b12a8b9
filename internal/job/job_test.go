package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticksched/internal/led"
	"ticksched/internal/logging"
	"ticksched/internal/sched"
	"ticksched/internal/sem"
)

var discard = logging.Discard()

func setup(t *testing.T) (*sched.Scheduler, *led.Bank) {
	t.Helper()
	s, err := sched.New(sched.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	bank := led.NewBank(discard)
	bank.Init(led.Red | led.Green | led.Yellow)
	return s, bank
}

func TestBlink(t *testing.T) {
	_, bank := setup(t)
	body := Blink(bank, led.Green)
	body()
	body()
	assert.Equal(t, 2, bank.Toggles(led.Green))
	assert.Zero(t, bank.State())
}

func TestChain(t *testing.T) {
	s, bank := setup(t)
	require.NoError(t, s.RegisterTask(0, 0, Blink(bank, led.Yellow), 4, 0))
	require.NoError(t, s.RegisterTask(0, 8, Chain(s, bank, led.Red, 4, 3, discard), 2, 0))

	s.Advance(8)
	assert.Equal(t, 1, bank.Toggles(led.Red))
	assert.Zero(t, bank.Toggles(led.Yellow))

	s.Advance(3)
	assert.Equal(t, 1, bank.Toggles(led.Yellow))
}

func TestProducerConsumer(t *testing.T) {
	s, bank := setup(t)
	m := sem.New(s, 0)
	require.NoError(t, s.RegisterTask(0, 4, Post(m, discard), 6, sched.Direct))
	require.NoError(t, s.RegisterTask(0, 16, Consume(m, bank, led.Yellow, led.Red, 4, 0, discard), 3, sched.Thread))

	s.Advance(16)
	assert.Equal(t, 4, bank.Toggles(led.Yellow), "four units posted by tick 16")

	s.Advance(16)
	assert.Equal(t, 8, bank.Toggles(led.Yellow))
	assert.Zero(t, bank.State()&led.Red)
	assert.Zero(t, m.Count())
}

func TestConsume_Timeout(t *testing.T) {
	s, bank := setup(t)
	m := sem.New(s, 0)
	require.NoError(t, s.RegisterTask(0, 0, Consume(m, bank, led.Yellow, led.Red, 1, 5, discard), 3, sched.Thread))

	require.NoError(t, s.Activate(3, 0))
	s.Advance(5)
	assert.Equal(t, led.Red, bank.State())
	assert.Zero(t, bank.Toggles(led.Yellow))
}

func TestSpin(t *testing.T) {
	assert.NotPanics(t, Spin(1000))
}
