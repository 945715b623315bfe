package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docq/internal/adapters/driving/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest new documents",
	Long: `Watch a directory for new or modified files and ingest every
supported file automatically. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce,
		"How long a file must stay quiet before ingestion")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := ensurePipeline(); err != nil {
		return err
	}
	if ingestionService == nil || extractor == nil {
		return errors.New("ingestion service not configured")
	}

	dir := args[0]
	watcher := watch.New(ingestionService, extractor.SupportedTypes(), watchDebounce)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan watch.Event)
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx, dir, events) }()

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				continue
			}
			if ev.Err != nil {
				cmd.PrintErrf("Error ingesting %s: %v\n", ev.Path, ev.Err)
				continue
			}
			cmd.Printf("Ingested %s (%d segments, document %s)\n",
				ev.Path, ev.Result.SegmentCount, ev.Result.DocumentID)

		case err := <-done:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			cmd.Println("\nStopped watching.")
			return nil
		}
	}
}
