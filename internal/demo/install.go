package demo

import (
	"fmt"
	"log/slog"
	"strings"

	"ticksched/internal/job"
	"ticksched/internal/led"
	"ticksched/internal/sched"
	"ticksched/internal/sem"
)

// App is a scheduler with its collaborators and the sample tasks registered.
type App struct {
	Sched      *sched.Scheduler
	LEDs       *led.Bank
	Semaphores map[string]*sem.Semaphore
	Names      map[uint8]string

	TicksPerSecond int // tick rate for wall-clock runs
}

// Build creates the scheduler described by f and registers its tasks.
func Build(f File, logger *slog.Logger, opts ...sched.Option) (*App, error) {
	f.Scheduler.Clamp()
	opts = append([]sched.Option{sched.WithLogger(logger)}, opts...)
	s, err := sched.New(f.Scheduler, opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	app := &App{
		Sched:      s,
		LEDs:       led.NewBank(logger),
		Semaphores: make(map[string]*sem.Semaphore),
		Names:      make(map[uint8]string),

		TicksPerSecond: f.Scheduler.TicksPerSecond,
	}
	app.LEDs.Init(led.Red | led.Green | led.Yellow)

	for _, spec := range f.Semaphores {
		if _, dup := app.Semaphores[spec.Name]; dup {
			return nil, fmt.Errorf("semaphore %q declared twice", spec.Name)
		}
		app.Semaphores[spec.Name] = sem.New(s, spec.Initial)
	}

	for _, spec := range f.Tasks {
		if err := app.install(spec, logger); err != nil {
			return nil, fmt.Errorf("task %q: %w", spec.Name, err)
		}
		app.Names[spec.Priority] = spec.Name
	}
	return app, nil
}

func (a *App) install(spec TaskSpec, logger *slog.Logger) error {
	var flags sched.Flags
	for _, name := range spec.Flags {
		f := sched.ParseFlag(name)
		if f == 0 {
			return fmt.Errorf("unknown flag %q", name)
		}
		flags |= f
	}

	color := led.ParseColor(spec.LED)
	logger = logger.With("task", spec.Name)

	kind := strings.ToLower(spec.Job)
	var body func()
	switch kind {
	case "blink":
		body = job.Blink(a.LEDs, color)
	case "chain":
		body = job.Chain(a.Sched, a.LEDs, color, spec.Target, spec.Delay, logger)
	case "spin":
		body = job.Spin(spec.Spin)
	case "post", "consume":
		m, ok := a.Semaphores[spec.Semaphore]
		if !ok {
			return fmt.Errorf("unknown semaphore %q", spec.Semaphore)
		}
		if kind == "post" {
			body = job.Post(m, logger)
		} else {
			body = job.Consume(m, a.LEDs, color, led.Red, spec.Batch, spec.Timeout, logger)
			flags |= sched.Thread
		}
	default:
		return fmt.Errorf("unknown job %q", spec.Job)
	}

	return a.Sched.RegisterTask(spec.Phasing, spec.Period, body, spec.Priority, flags)
}
