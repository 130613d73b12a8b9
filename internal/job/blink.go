// Package job provides sample task bodies for the demo wiring.
package job

import (
	"log/slog"

	"ticksched/internal/led"
	"ticksched/internal/sched"
)

// Blink returns a body that toggles c once per activation.
func Blink(bank *led.Bank, c led.Color) func() {
	return func() { bank.Toggle(c) }
}

// Chain returns a body that toggles c and then activates the task at target
// after delay ticks. Activations refused by the scheduler are logged.
func Chain(s *sched.Scheduler, bank *led.Bank, c led.Color, target uint8, delay uint16, logger *slog.Logger) func() {
	return func() {
		bank.Toggle(c)
		if err := s.Activate(target, delay); err != nil {
			logger.Debug("chain", "target", target, "error", err)
		}
	}
}

// Spin returns a body that burns n loop iterations, standing in for
// computation that takes a noticeable part of a tick.
func Spin(n int) func() {
	var sink int
	return func() {
		for i := range n {
			sink += i
		}
		_ = sink
	}
}
