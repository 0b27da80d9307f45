package fluxcoach

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dbPath  string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "fluxcoach",
	Short: "fluxcoach estimates your TDEE and coaches calorie targets from daily logs",
	Long: "fluxcoach is a local-first coaching CLI: it turns noisy scale weights and " +
		"logged nutrition into a smoothed trend weight, an adaptive TDEE estimate, " +
		"calorie targets, and weekly check-ins.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config.Build()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to SQLite database")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log the recompute walk")
}
