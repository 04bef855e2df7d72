package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "plens",
	Short: "promptlens — snapshot, compare, and test-run prompt configurations",
	Long: `plens captures named snapshots of a prompt configuration (ordered prompt
fragments with enable flags), renders word-level diffs between snapshots,
and test-runs a snapshot against a live session with guaranteed restoration
of the prior state.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose/debug output")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "plens: %s\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
