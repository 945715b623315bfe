// Package cli implements the docq command line interface using cobra.
// Commands are thin adapters over the driving ports; all retrieval logic
// lives in the core services.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docq/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docq/internal/adapters/driven/embedding"
	ollamaembed "github.com/custodia-labs/docq/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/docq/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docq/internal/adapters/driven/extract/plaintext"
	ollamallm "github.com/custodia-labs/docq/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/docq/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docq/internal/adapters/driven/reranker/tei"
	"github.com/custodia-labs/docq/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docq/internal/chunker"
	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
	"github.com/custodia-labs/docq/internal/core/ports/driving"
	"github.com/custodia-labs/docq/internal/core/services"
	"github.com/custodia-labs/docq/internal/logger"
)

// version is set by Execute from the main package.
var version = "dev"

// Persistent flags.
var (
	verboseFlag   bool
	configDirFlag string
	dataDirFlag   string
)

// Services used by commands. Populated by ensurePipeline, or set directly
// in tests.
var (
	settingsService  driving.SettingsService
	ingestionService driving.IngestionService
	queryService     driving.QueryService

	extractor driven.Extractor
	store     *sqlite.Store
)

var rootCmd = &cobra.Command{
	Use:   "docq",
	Short: "Ask questions about your documents",
	Long: `docq ingests documents into a local vector index and answers
natural-language questions about them with page-level citations.

Documents are chunked, embedded and indexed locally. Queries retrieve the
most relevant passages, optionally re-rank them with a cross-encoder, and
generate a grounded answer with an LLM.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		return ensureSettings()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.docq)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default ~/.docq/data)")
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer func() {
		if store != nil {
			store.Close()
			store = nil
		}
	}()
	return rootCmd.Execute()
}

// ensureSettings wires the config-backed settings service. Cheap; runs for
// every command.
func ensureSettings() error {
	if settingsService != nil {
		return nil
	}
	configStore, err := file.NewConfigStore(configDirFlag)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService = services.NewSettingsService(configStore)
	return nil
}

// ensurePipeline wires storage, the extraction/chunking/embedding chain and
// the retrieval services. Commands that touch documents call this first.
func ensurePipeline() error {
	if ingestionService != nil && queryService != nil {
		return nil
	}
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if err := settings.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking settings: %w", err)
	}

	embedder, err := buildEmbedder(settings.Embedding)
	if err != nil {
		return err
	}

	store, err = sqlite.NewStore(dataDirFlag)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}

	chk, err := chunker.New(settings.Chunking, embedder)
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	extractor = plaintext.NewExtractor()
	docStore := store.DocumentStore()
	vectorIndex := store.VectorIndex(embedder.Dimensions())

	ingestionService = services.NewIngestService(extractor, chk, embedder, docStore, vectorIndex)

	var reranker driven.Reranker
	if settings.Reranker.IsConfigured() {
		reranker, err = tei.NewReranker(tei.Config{
			BaseURL: settings.Reranker.BaseURL,
			Model:   settings.Reranker.Model,
		})
		if err != nil {
			return fmt.Errorf("configuring reranker: %w", err)
		}
	}

	var generator driven.Generator
	if settings.LLM.IsConfigured() {
		generator, err = buildGenerator(settings.LLM)
		if err != nil {
			return err
		}
	}

	queryService, err = services.NewQueryService(
		docStore,
		store.ConversationStore(),
		vectorIndex,
		embedder,
		reranker,
		generator,
		settings.Retrieval,
	)
	if err != nil {
		return fmt.Errorf("configuring query pipeline: %w", err)
	}

	return nil
}

// buildGenerator constructs the configured generation provider.
func buildGenerator(cfg domain.LLMSettings) (driven.Generator, error) {
	switch cfg.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewGenerator(ollamallm.Config{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		}), nil
	case domain.AIProviderOpenAI:
		generator, err := openaillm.NewGenerator(openaillm.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring generation provider: %w", err)
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", cfg.Provider)
	}
}

// buildEmbedder constructs the configured embedding provider wrapped with
// retry and rate limiting.
func buildEmbedder(cfg domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	var (
		inner driven.EmbeddingService
		err   error
	)

	switch cfg.Provider {
	case domain.AIProviderOllama:
		dims := cfg.Dimensions
		if dims == 0 {
			dims = domain.EmbeddingDimensions()[cfg.Model]
		}
		if dims == 0 {
			return nil, fmt.Errorf("unknown embedding model %q: set embedding.dimensions to its vector size", cfg.Model)
		}
		inner = ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			Dimensions:     dims,
			MaxInputTokens: cfg.MaxInputTokens,
		})
	case domain.AIProviderOpenAI:
		inner, err = openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:         cfg.APIKey,
			BaseURL:        cfg.BaseURL,
			Model:          cfg.Model,
			MaxInputTokens: cfg.MaxInputTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("configuring embedding provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}

	inner = embedding.NewRetrying(inner, cfg.MaxRetries)
	return embedding.NewRateLimited(inner, cfg.RequestsPerSecond), nil
}
