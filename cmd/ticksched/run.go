package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ticksched/internal/sched"
)

func newRunCmd() *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the task set on wall-clock ticks",
		Long:  "run starts the tick clock and the foreground loop, and stops after --duration or on interrupt.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, rec, err := setup(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			clock := sched.NewTickClock(app.Sched)
			clock.Start(sched.Interval(tickRate(cmd, app.TicksPerSecond)))
			err = app.Sched.Run(ctx)
			clock.Stop()

			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logger.Info("stopped", "ticks", app.Sched.Now(), "clock_ticks", clock.Count())
			return finish(cmd.OutOrStdout(), app, rec)
		},
	}

	cmd.Flags().DurationVarP(&duration, "duration", "d", 5*time.Second, "Stop after this long (0 = until interrupted)")
	cmd.Flags().Int("rate", 0, "Ticks per second (default: scheduler.ticks_per_second)")
	return cmd
}

// tickRate is the --rate flag when given, the configured rate otherwise.
func tickRate(cmd *cobra.Command, configured int) int {
	if cmd.Flags().Changed("rate") {
		if rate, err := cmd.Flags().GetInt("rate"); err == nil && rate > 0 {
			return rate
		}
	}
	return configured
}
