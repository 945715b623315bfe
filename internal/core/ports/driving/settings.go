package driving

import "github.com/custodia-labs/docq/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetChunkStrategy updates the chunking strategy.
	SetChunkStrategy(strategy domain.ChunkStrategy) error

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// SetLLMProvider configures the generation provider.
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// SetReranker configures the cross-encoder re-ranker endpoint.
	// An empty baseURL disables re-ranking.
	SetReranker(baseURL, model string) error

	// Validate checks if current settings are usable.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
