package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"ticksched/internal/demo"
	"ticksched/internal/led"
	"ticksched/internal/logging"
	"ticksched/internal/sched"
	"ticksched/internal/trace"
)

var (
	flagConfig    string
	flagPolicy    string
	flagCSV       string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string

	logger *slog.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ticksched",
		Short: "Fixed-priority tick scheduler",
		Long:  "ticksched runs the demo task set on the basic, cooperative or preemptive scheduler, on simulated or wall-clock ticks.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagDebug {
				flagLogLevel = "debug"
			}
			logger = logging.NewLogger(logging.ParseLevel(flagLogLevel), flagLogFormat)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Application YAML file (default: built-in demo)")
	root.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Override the policy (basic, cooperative, preemptive)")
	root.PersistentFlags().StringVar(&flagCSV, "csv", "", "Write the event trace as CSV to this file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "text", "Log format (text, json)")

	root.AddCommand(
		newSimulateCmd(),
		newRunCmd(),
	)
	return root
}

// setup loads the application file, applies flag overrides and builds the
// scheduler with a trace recorder attached.
func setup(cmd *cobra.Command) (*demo.App, *trace.Recorder, error) {
	f, err := demo.Load(flagConfig)
	if err != nil {
		return nil, nil, err
	}
	if flagPolicy != "" {
		if _, err := sched.ParsePolicy(flagPolicy); err != nil {
			return nil, nil, err
		}
		f.Scheduler.Policy = flagPolicy
	}
	if !cmd.Flags().Changed("log-level") && !flagDebug && f.Log.Level != "" {
		logger = logging.NewLogger(logging.ParseLevel(f.Log.Level), f.Log.Format)
	}

	csvPath := flagCSV
	if csvPath == "" {
		csvPath = f.Trace.CSV
	}
	var rec *trace.Recorder
	if csvPath != "" {
		if rec, err = trace.Create(csvPath); err != nil {
			return nil, nil, err
		}
	} else {
		rec = trace.NewRecorder(nil)
	}

	app, err := demo.Build(f, logger, sched.WithObserver(rec))
	if err != nil {
		rec.Close()
		return nil, nil, err
	}
	logger.Info("scheduler configured",
		"policy", app.Sched.Policy().String(), "tasks", len(app.Names), "run_id", rec.RunID())
	return app, rec, nil
}

func finish(w io.Writer, app *demo.App, rec *trace.Recorder) error {
	app.Sched.Close()
	if err := rec.WriteSummary(w, app.Sched.Now()); err != nil {
		return err
	}
	fmt.Fprintf(w, "leds: red=%d green=%d yellow=%d toggles\n",
		app.LEDs.Toggles(led.Red), app.LEDs.Toggles(led.Green), app.LEDs.Toggles(led.Yellow))
	return rec.Close()
}
