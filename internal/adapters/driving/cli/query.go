package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driving"
)

var queryCmd = &cobra.Command{
	Use:   "query [doc-id] [question]",
	Short: "Ask a question about a document",
	Long: `Run the retrieval pipeline against an ingested document: embed the
question, search the vector index, re-rank, and generate a grounded answer
with page-level citations.

Use --conversation to continue a previous conversation so the answer is
conditioned on earlier turns. Use --no-answer to retrieve the ranked
evidence without generating an answer.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runQuery,
}

// Query command flags.
var (
	conversationID string
	noAnswer       bool
	showEvidence   bool
	jsonOutput     bool
)

func init() {
	queryCmd.Flags().StringVarP(&conversationID, "conversation", "c", "", "Conversation ID to continue")
	queryCmd.Flags().BoolVar(&noAnswer, "no-answer", false, "Skip answer generation, return evidence only")
	queryCmd.Flags().BoolVarP(&showEvidence, "evidence", "e", false, "Print the retrieved evidence segments")
	queryCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if err := ensurePipeline(); err != nil {
		return err
	}
	if queryService == nil {
		return errors.New("query service not configured")
	}

	documentID := args[0]
	question := strings.Join(args[1:], " ")

	result, err := queryService.Query(cmd.Context(), documentID, question, driving.QueryOptions{
		ConversationID: conversationID,
		WithoutAnswer:  noAnswer,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printQueryJSON(cmd, result)
	}

	if result.Answer != "" {
		cmd.Println(result.Answer)
	}

	if len(result.Citations) > 0 {
		cmd.Println("\nSources:")
		for _, c := range result.Citations {
			if c.PageNumber > 0 {
				cmd.Printf("  [%s, p.%d]\n", c.DocumentName, c.PageNumber)
			} else {
				cmd.Printf("  [%s]\n", c.DocumentName)
			}
		}
	}

	if showEvidence || noAnswer {
		for _, ev := range result.Evidence {
			cmd.Printf("\n--- Evidence %d (page %d, score %.4f) ---\n",
				ev.FinalRank+1, ev.Segment.PageNumber, evidenceScore(ev))
			cmd.Println(ev.Segment.Text)
		}
	}

	if result.ConversationID != "" {
		cmd.Printf("\nConversation: %s\n", result.ConversationID)
	}

	return nil
}

// printQueryJSON writes the result as indented JSON for scripting.
func printQueryJSON(cmd *cobra.Command, result *domain.QueryResult) error {
	out := struct {
		Answer         string            `json:"answer"`
		Citations      []domain.Citation `json:"citations"`
		ConversationID string            `json:"conversation_id"`
		Empty          bool              `json:"empty"`
	}{
		Answer:         result.Answer,
		Citations:      result.Citations,
		ConversationID: result.ConversationID,
		Empty:          result.Empty,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

// evidenceScore prefers the cross-encoder score when one was computed.
func evidenceScore(ev domain.Evidence) float64 {
	if ev.Reranked {
		return ev.RerankScore
	}
	return ev.VectorScore
}
