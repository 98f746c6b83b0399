// Package main implements the healthscan CLI.
//
// # File Index
//
//   - main.go      - entry point, rootCmd, global flags, logger lifecycle
//   - cmd_scan.go  - scanCmd, runScan(), the full scan -> merge -> score ->
//                    integrity -> plan -> concern -> queue pipeline
//   - cmd_queue.go - queueCmd, printing the ranked work queue from
//                    persisted state without running a new scan
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/healthscan/healthscan/internal/logging"
)

var (
	verbose   bool
	workspace string
	timeout   time.Duration
	cfgPath   string

	rootLogger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "healthscan",
	Short: "Continuous codebase quality analyzer",
	Long: `healthscan walks a repository, runs its detector pipeline, and maintains
a durable finding/plan ledger across scans.

It never calls out to a network or an LLM on its own; the review packet
contract (see "healthscan queue --help") is how an external reviewer's
subjective judgment gets folded back in.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		z, err := logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		rootLogger = z
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if rootLogger != nil {
			logging.Sync(rootLogger)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "repository root (default: current directory)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall scan timeout")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.toml (default: <workspace>/.healthscan/config.toml)")

	rootCmd.AddCommand(scanCmd, queueCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
