package main

import (
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	var ticks int

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the task set on simulated ticks",
		Long:  "simulate delivers the given number of timer interrupts back to back, without waiting for wall-clock time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, rec, err := setup(cmd)
			if err != nil {
				return err
			}
			app.Sched.Advance(ticks)
			return finish(cmd.OutOrStdout(), app, rec)
		},
	}

	cmd.Flags().IntVarP(&ticks, "ticks", "n", 2048, "Number of ticks to simulate")
	return cmd
}
