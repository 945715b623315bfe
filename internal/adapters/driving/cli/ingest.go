package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest documents into the index",
	Long: `Extract, chunk, embed and index one or more documents.

A document becomes queryable only after ingestion completes; a failed
ingestion leaves no partial state behind.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := ensurePipeline(); err != nil {
		return err
	}
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}

	ctx := cmd.Context()
	var failed int

	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			cmd.PrintErrf("Error reading %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := ingestionService.Ingest(ctx, content, path)
		if err != nil {
			cmd.PrintErrf("Error ingesting %s: %v\n", path, err)
			failed++
			continue
		}

		cmd.Printf("Ingested %s\n", path)
		cmd.Printf("  Document ID: %s\n", result.DocumentID)
		cmd.Printf("  Pages:       %d\n", result.PageCount)
		cmd.Printf("  Segments:    %d\n", result.SegmentCount)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}
