package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/automaxprocs/maxprocs"

	"vdsobench/internal/config"
	harnesserr "vdsobench/internal/errors"
	"vdsobench/internal/telemetry"
)

var exit = os.Exit

var (
	cfgFile   string
	configErr error
	logCloser io.Closer
)

// errChecksFailed is returned when the suite ran to completion but at least
// one verdict failed. The report has already been printed.
var errChecksFailed = errors.New("one or more checks failed")

var rootCmd = &cobra.Command{
	Use:   "vdsobench",
	Short: "Benchmark and validate the vDSO clock_gettime fast path",
	Long: `vdsobench measures the user-space clock_gettime fast path against the
syscall path with cycle-level timing, and runs functional, performance,
accuracy and stress checks that report pass/fail verdicts.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command and maps the outcome onto the exit status:
// 0 all checks passed, 1 failures, 2 configuration errors.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(1)
		}
	}()

	err := rootCmd.Execute()
	if logCloser != nil {
		logCloser.Close()
	}
	if err != nil {
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case harnesserr.Classify(err) == harnesserr.KindConfiguration:
		return 2
	default:
		return 1
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./vdsobench.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running (e.g. :2112)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", harnesserr.ErrConfiguration, err)
	})
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	configErr = config.Load(cfgFile)
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("metrics.addr", rootCmd.PersistentFlags().Lookup("metrics-addr"))
}

func setup(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return fmt.Errorf("%w: %w", harnesserr.ErrConfiguration, configErr)
	}

	if logCloser != nil {
		logCloser.Close()
	}
	logCloser = telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log.file"))

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	})); err != nil {
		slog.Warn("Failed to set GOMAXPROCS", "error", err)
	}
	return nil
}

// loadSettings decodes and validates the effective configuration.
func loadSettings() (config.Settings, error) {
	settings, err := config.Current()
	if err != nil {
		return config.Settings{}, fmt.Errorf("%w: %w", harnesserr.ErrConfiguration, err)
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}
