// Package cli implements the mcpcat command line: offline scrubbing of
// event logs and the spool watcher daemon mode.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mcpcat",
	Short: "MCP telemetry capture and scrubbing",
	Long:  "Processes MCP telemetry events: strips binary and unsupported content,\nbounds every event to the 100KB ceiling, and writes JSONL safe to ship.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
