// Command visioneer drives one Visioneer project from the command
// line: run its agent cycle, inspect its state, answer its open
// questions, and steer its goals. Subcommands are split across
// cmd_*.go files in this package, following the codenerd CLI's
// convention of one root entry point plus per-concern command files.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagDataDir  string
	flagProject  string
	flagConfig   string
	flagTimeout  time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "visioneer",
	Short: "Visioneer - an autonomous agent's memory and scheduling engine",
	Long: `Visioneer drives an autonomous agent's cycle: wake, prioritise,
check coherence against its active goal, execute, persist what it
learned, and rewrite its own orientation as it goes.

Run without a subcommand to see this help; "visioneer run" starts the
cycle loop for a project.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.TimeKey = "ts"
		built, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "data", "directory holding per-project SQLite databases")
	rootCmd.PersistentFlags().StringVar(&flagProject, "project", "default", "project name")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to a YAML config file (defaults applied for anything omitted)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "override the executor's per-call timeout")

	rootCmd.AddCommand(
		runCmd,
		statusCmd,
		dashboardCmd,
		answerCmd,
		goalCmd,
		warningsCmd,
		resetCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
