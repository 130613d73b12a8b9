package job

import (
	"errors"
	"log/slog"

	"ticksched/internal/led"
	"ticksched/internal/sched"
	"ticksched/internal/sem"
)

// Consume returns a thread body that waits on m and toggles c once per unit
// taken, handling at most batch units per activation. A wait that times out
// lights the error LED instead.
func Consume(m *sem.Semaphore, bank *led.Bank, c, errLED led.Color, batch int, timeout uint16, logger *slog.Logger) func() {
	if batch <= 0 {
		batch = 1
	}
	return func() {
		for range batch {
			if err := m.Wait(timeout); err != nil {
				if errors.Is(err, sched.SemaphoreFail) {
					bank.Set(errLED, true)
				}
				logger.Debug("consume", "error", err)
				return
			}
			bank.Toggle(c)
		}
	}
}

// Post returns a body that releases one unit of m per activation.
func Post(m *sem.Semaphore, logger *slog.Logger) func() {
	return func() {
		if err := m.Post(); err != nil {
			logger.Warn("post", "error", err)
		}
	}
}
