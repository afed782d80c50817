package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcpcat/mcpcat-go/internal/eventlog"
	"github.com/mcpcat/mcpcat-go/internal/spool"
)

var watchConfig string

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchConfig, "config", "c", "", "Path to watch config YAML (required)")
	watchCmd.MarkFlagRequired("config")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Process raw event files from a spool directory",
	Long:  "Watches the configured spool directory for .json event files, runs each\nthrough the pipeline, and appends the result to the output log. Runs until\ninterrupted.",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := spool.LoadConfig(watchConfig)
	if err != nil {
		return err
	}

	log, err := eventlog.Open(cfg.Output)
	if err != nil {
		return err
	}
	defer func() { _ = log.Close() }()

	processor := spool.NewProcessor(log)
	watcher := spool.NewWatcher(cfg.SpoolDir, cfg.Poll(), func(path string) {
		if err := processor.Process(path); err != nil {
			fmt.Fprintf(os.Stderr, "mcpcat: %v\n", err)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "mcpcat: watching %s -> %s\n", cfg.SpoolDir, cfg.Output)
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
