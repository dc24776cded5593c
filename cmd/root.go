// Package cmd implements the a11yscan command-line interface: a cobra
// command tree over the in-process orchestrator, registry, and event bus.
// The CLI exposes no network API; the only network-facing code is the
// WebSocket demo in internal/boundary, which cmd does not wire up (see
// DESIGN.md).
package cmd

import (
	"os"

	"github.com/openaudit/a11yscan/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "a11yscan",
	Short: "WCAG 2.1 AA / EAA accessibility compliance scan orchestrator",
	Long: `a11yscan discovers the pages of a site, runs a configurable set of
accessibility scanners against each one, and aggregates the results into a
single compliance score and violation report.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup()
	},
}

// Execute runs the root command; errors are printed and exit the process
// with a non-zero status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(configCmd)
}
