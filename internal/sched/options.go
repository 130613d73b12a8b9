package sched

import "log/slog"

type options struct {
	logger   *slog.Logger
	observer Observer
	power    Power
	idleHook func()
}

// Option configures a [Scheduler].
type Option func(*options)

// WithLogger sets the logger for control-plane operations.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver receives every scheduler event.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.observer = obs
	}
}

// WithPower replaces the default low-power latch.
func WithPower(p Power) Option {
	return func(o *options) {
		o.power = p
	}
}

// WithIdleHook installs a function called by Run at the moment the
// foreground has found no work and is deciding to halt.
func WithIdleHook(fn func()) Option {
	return func(o *options) {
		o.idleHook = fn
	}
}
