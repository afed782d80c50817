package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcpcat/mcpcat-go/internal/event"
	"github.com/mcpcat/mcpcat-go/internal/eventlog"
	"github.com/mcpcat/mcpcat-go/internal/sanitize"
	"github.com/mcpcat/mcpcat-go/internal/truncate"
)

var scrubOut string

func init() {
	rootCmd.AddCommand(scrubCmd)
	scrubCmd.Flags().StringVarP(&scrubOut, "output", "o", "", "Output file (default stdout)")
}

var scrubCmd = &cobra.Command{
	Use:   "scrub [file]",
	Short: "Sanitize and truncate a JSONL event log",
	Long:  "Reads raw events from a JSONL file (or stdin), runs each through the\nsanitize and truncate pipeline, and writes processed JSONL.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScrub,
}

func runScrub(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	out := io.Writer(os.Stdout)
	if scrubOut != "" {
		f, err := os.Create(scrubOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	return eventlog.Scan(in, func(e event.Event) error {
		processed := truncate.Truncate(sanitize.Sanitize(e))
		if err := enc.Encode(&processed); err != nil {
			return fmt.Errorf("write event %s: %w", processed.ID, err)
		}
		return nil
	})
}
