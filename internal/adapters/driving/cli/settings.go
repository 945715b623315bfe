package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docq/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long:  `View and change chunking, embedding, re-ranking and generation settings.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetStrategyCmd = &cobra.Command{
	Use:   "set-strategy [hierarchical|semantic]",
	Short: "Set the chunking strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetStrategy,
}

var settingsSetEmbeddingCmd = &cobra.Command{
	Use:   "set-embedding [ollama|openai]",
	Short: "Set the embedding provider",
	Long: `Set the embedding provider. Changing the provider or model changes the
model identity; previously ingested documents must be re-ingested before
they can be queried under the new model.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSetEmbedding,
}

var settingsSetLLMCmd = &cobra.Command{
	Use:   "set-llm [ollama|openai]",
	Short: "Set the answer generation provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetLLM,
}

var settingsSetRerankerCmd = &cobra.Command{
	Use:   "set-reranker [base-url]",
	Short: "Set the cross-encoder re-ranker endpoint",
	Long: `Set the TEI-compatible re-ranker endpoint. Pass an empty base URL to
disable re-ranking; queries then rank evidence by vector similarity alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsSetReranker,
}

// Settings command flags.
var (
	settingsModel  string
	settingsAPIKey string
)

func init() {
	settingsSetEmbeddingCmd.Flags().StringVarP(&settingsModel, "model", "m", "", "Model name (provider default if empty)")
	settingsSetEmbeddingCmd.Flags().StringVarP(&settingsAPIKey, "api-key", "k", "", "API key (required for cloud providers)")
	settingsSetLLMCmd.Flags().StringVarP(&settingsModel, "model", "m", "", "Model name (provider default if empty)")
	settingsSetLLMCmd.Flags().StringVarP(&settingsAPIKey, "api-key", "k", "", "API key (required for cloud providers)")
	settingsSetRerankerCmd.Flags().StringVarP(&settingsModel, "model", "m", "", "Cross-encoder model name")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetStrategyCmd)
	settingsCmd.AddCommand(settingsSetEmbeddingCmd)
	settingsCmd.AddCommand(settingsSetLLMCmd)
	settingsCmd.AddCommand(settingsSetRerankerCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	cmd.Println("Chunking:")
	cmd.Printf("  Strategy:       %s\n", settings.Chunking.Strategy)
	cmd.Printf("  Max tokens:     %d\n", settings.Chunking.MaxTokens)
	cmd.Printf("  Overlap tokens: %d\n", settings.Chunking.OverlapTokens)
	if settings.Chunking.Strategy == domain.ChunkStrategySemantic {
		cmd.Printf("  Similarity:     %.2f\n", settings.Chunking.SimilarityThreshold)
	}

	cmd.Println("\nEmbedding:")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider)
	cmd.Printf("  Model:    %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.APIKey != "" {
		cmd.Println("  API key:  (set)")
	}

	cmd.Println("\nRe-ranker:")
	if settings.Reranker.IsConfigured() {
		cmd.Printf("  Base URL: %s\n", settings.Reranker.BaseURL)
		cmd.Printf("  Model:    %s\n", settings.Reranker.Model)
	} else {
		cmd.Println("  (disabled)")
	}

	cmd.Println("\nGeneration:")
	cmd.Printf("  Provider:    %s\n", settings.LLM.Provider)
	cmd.Printf("  Model:       %s\n", settings.LLM.Model)
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)

	cmd.Println("\nRetrieval:")
	cmd.Printf("  Initial K:     %d\n", settings.Retrieval.InitialK)
	cmd.Printf("  Final K:       %d\n", settings.Retrieval.FinalK)
	cmd.Printf("  Stage timeout: %s\n", settings.Retrieval.StageTimeout)
	cmd.Printf("  History turns: %d\n", settings.Retrieval.HistoryTurns)

	return nil
}

func runSettingsSetStrategy(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	strategy := domain.ChunkStrategy(args[0])
	if err := settingsService.SetChunkStrategy(strategy); err != nil {
		return err
	}

	cmd.Printf("Chunking strategy set to %s.\n", strategy.Description())
	return nil
}

func runSettingsSetEmbedding(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(args[0])
	if err := settingsService.SetEmbeddingProvider(provider, settingsModel, settingsAPIKey); err != nil {
		return err
	}

	cmd.Printf("Embedding provider set to %s.\n", provider)
	cmd.Println("Previously ingested documents must be re-ingested before querying.")
	return nil
}

func runSettingsSetLLM(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	provider := domain.AIProvider(args[0])
	if err := settingsService.SetLLMProvider(provider, settingsModel, settingsAPIKey); err != nil {
		return err
	}

	cmd.Printf("Generation provider set to %s.\n", provider)
	return nil
}

func runSettingsSetReranker(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	baseURL := ""
	if len(args) == 1 {
		baseURL = args[0]
	}

	if err := settingsService.SetReranker(baseURL, settingsModel); err != nil {
		return err
	}

	if baseURL == "" {
		cmd.Println("Re-ranking disabled.")
	} else {
		cmd.Printf("Re-ranker endpoint set to %s.\n", baseURL)
	}
	return nil
}
