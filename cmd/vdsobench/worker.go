package main

import (
	"github.com/spf13/cobra"

	"vdsobench/internal/clocksource"
	"vdsobench/internal/stress"
)

var (
	workerCalls int
	workerClock string
)

// workerCmd is the child side of the multi-process stress scenario. Its only
// output is the exit status.
var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "Perform a fixed number of fast-path reads and exit",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		clock, err := clocksource.ParseClock(workerClock)
		if err != nil {
			return err
		}
		return stress.RunCalls(env.Fast(), clock, workerCalls)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().IntVar(&workerCalls, "calls", 100_000, "Number of reads")
	workerCmd.Flags().StringVar(&workerClock, "clock", "monotonic", "Clock id to read")
}
