package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"vdsobench/internal/benchmark"
	"vdsobench/internal/clocksource"
	"vdsobench/internal/ui"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the cycle counter, its frequency and the clocks each path supports",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Print as JSON")
}

type hostReport struct {
	Host        benchmark.HostInfo  `json:"host"`
	Native      bool                `json:"native_counter"`
	FrequencyHz float64             `json:"frequency_hz"`
	Known       bool                `json:"frequency_known"`
	Clocks      map[string][]string `json:"clocks"`
}

func runInfo(cmd *cobra.Command, _ []string) error {
	counter := env.Counter()
	hz, known := env.Calibrator(counter).FrequencyHz()

	r := hostReport{
		Host:        env.Host(counter),
		Native:      counter.Native(),
		FrequencyHz: hz,
		Known:       known,
		Clocks:      map[string][]string{},
	}
	sources := []clocksource.Source{env.Fast(), env.Syscall()}
	for _, src := range sources {
		names := []string{}
		for _, id := range clocksource.Clocks(src) {
			names = append(names, id.String())
		}
		r.Clocks[src.Name()] = names
	}

	out := cmd.OutOrStdout()
	if infoJSON {
		return ui.RenderJSON(out, r)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Kernel:\t%s\n", r.Host.Kernel)
	fmt.Fprintf(w, "Arch:\t%s\n", r.Host.Arch)
	if r.Host.CPUModel != "" {
		fmt.Fprintf(w, "CPU:\t%s\n", r.Host.CPUModel)
	}
	kind := "fallback"
	if r.Native {
		kind = "native"
	}
	fmt.Fprintf(w, "Counter:\t%s (%s)\n", r.Host.Counter, kind)
	if known {
		fmt.Fprintf(w, "Frequency:\t%.2f MHz\n", hz/1e6)
	} else {
		fmt.Fprintf(w, "Frequency:\tunknown\n")
	}
	for _, src := range sources {
		clocks := strings.Join(r.Clocks[src.Name()], ", ")
		if clocks == "" {
			clocks = "none"
		}
		fmt.Fprintf(w, "Clocks (%s):\t%s\n", src.Name(), clocks)
	}
	return w.Flush()
}
