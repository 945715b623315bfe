package services

import (
	"fmt"
	"time"

	"github.com/custodia-labs/docq/internal/core/domain"
	"github.com/custodia-labs/docq/internal/core/ports/driven"
	"github.com/custodia-labs/docq/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyChunkStrategy  = "chunking.strategy"
	keyChunkMaxTokens = "chunking.max_tokens"
	keyChunkOverlap   = "chunking.overlap_tokens"
	keyChunkThreshold = "chunking.similarity_threshold"

	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKey    = "embedding.api_key"
	keyEmbedDims      = "embedding.dimensions"
	keyEmbedMaxInput  = "embedding.max_input_tokens"
	keyEmbedRetries   = "embedding.max_retries"
	keyEmbedRateLimit = "embedding.requests_per_second"

	keyRerankBaseURL = "reranker.base_url"
	keyRerankModel   = "reranker.model"

	keyLLMProvider    = "llm.provider"
	keyLLMModel       = "llm.model"
	keyLLMBaseURL     = "llm.base_url"
	keyLLMAPIKey      = "llm.api_key"
	keyLLMTemperature = "llm.temperature"

	keyRetrievalInitialK = "retrieval.initial_k"
	keyRetrievalFinalK   = "retrieval.final_k"
	keyRetrievalTimeout  = "retrieval.stage_timeout"
	keyRetrievalHistory  = "retrieval.history_turns"
)

// SettingsService manages application settings backed by a config store.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, falling back to defaults for
// any key the config store does not hold.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Chunking: domain.ChunkingSettings{
			Strategy:            s.getStrategy(defaults.Chunking.Strategy),
			MaxTokens:           s.getInt(keyChunkMaxTokens, defaults.Chunking.MaxTokens),
			OverlapTokens:       s.getIntAllowZero(keyChunkOverlap, defaults.Chunking.OverlapTokens),
			SimilarityThreshold: s.getFloat(keyChunkThreshold, defaults.Chunking.SimilarityThreshold),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.getIntAllowZero(keyEmbedDims, 0),
			MaxInputTokens:    s.getInt(keyEmbedMaxInput, defaults.Embedding.MaxInputTokens),
			MaxRetries:        s.getIntAllowZero(keyEmbedRetries, defaults.Embedding.MaxRetries),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRateLimit),
		},
		Reranker: domain.RerankerSettings{
			BaseURL: s.configStore.GetString(keyRerankBaseURL),
			Model:   s.configStore.GetString(keyRerankModel),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
		},
		Retrieval: domain.RetrievalSettings{
			InitialK:     s.getInt(keyRetrievalInitialK, defaults.Retrieval.InitialK),
			FinalK:       s.getInt(keyRetrievalFinalK, defaults.Retrieval.FinalK),
			StageTimeout: s.getDuration(keyRetrievalTimeout, defaults.Retrieval.StageTimeout),
			HistoryTurns: s.getIntAllowZero(keyRetrievalHistory, defaults.Retrieval.HistoryTurns),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking settings: %w", err)
	}
	if err := settings.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval settings: %w", err)
	}

	entries := []struct {
		key   string
		value any
	}{
		{keyChunkStrategy, settings.Chunking.Strategy.String()},
		{keyChunkMaxTokens, settings.Chunking.MaxTokens},
		{keyChunkOverlap, settings.Chunking.OverlapTokens},
		{keyChunkThreshold, settings.Chunking.SimilarityThreshold},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDims, settings.Embedding.Dimensions},
		{keyEmbedMaxInput, settings.Embedding.MaxInputTokens},
		{keyEmbedRetries, settings.Embedding.MaxRetries},
		{keyEmbedRateLimit, settings.Embedding.RequestsPerSecond},
		{keyRerankBaseURL, settings.Reranker.BaseURL},
		{keyRerankModel, settings.Reranker.Model},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyRetrievalInitialK, settings.Retrieval.InitialK},
		{keyRetrievalFinalK, settings.Retrieval.FinalK},
		{keyRetrievalTimeout, settings.Retrieval.StageTimeout.String()},
		{keyRetrievalHistory, settings.Retrieval.HistoryTurns},
	}
	for _, e := range entries {
		if err := s.configStore.Set(e.key, e.value); err != nil {
			return fmt.Errorf("save %s: %w", e.key, err)
		}
	}

	// API keys are only written when present so a re-save of loaded
	// settings never blanks a stored key.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.LLM.APIKey != "" {
		if err := s.configStore.Set(keyLLMAPIKey, settings.LLM.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyLLMAPIKey, err)
		}
	}

	return nil
}

// SetChunkStrategy updates the chunking strategy.
func (s *SettingsService) SetChunkStrategy(strategy domain.ChunkStrategy) error {
	if !strategy.IsValid() {
		return fmt.Errorf("invalid chunk strategy: %s", strategy)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Chunking.Strategy = strategy
	return s.Save(settings)
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if provider != domain.AIProviderOllama && provider != domain.AIProviderOpenAI {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	// A dimension override belongs to the previous model.
	settings.Embedding.Dimensions = 0

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the generation provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if provider != domain.AIProviderOllama && provider != domain.AIProviderOpenAI {
		return fmt.Errorf("provider %s does not support generation", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}

	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetReranker configures the cross-encoder re-ranker endpoint. An empty
// baseURL disables re-ranking.
func (s *SettingsService) SetReranker(baseURL, model string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Reranker.BaseURL = baseURL
	settings.Reranker.Model = model
	return s.Save(settings)
}

// Validate checks if current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if err := settings.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking settings: %w", err)
	}
	if err := settings.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval settings: %w", err)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %s is not configured", settings.Embedding.Provider)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero distinguishes an explicit zero from an absent key.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getStrategy(defaultVal domain.ChunkStrategy) domain.ChunkStrategy {
	val := s.configStore.GetString(keyChunkStrategy)
	if val == "" {
		return defaultVal
	}
	strategy := domain.ChunkStrategy(val)
	if !strategy.IsValid() {
		return defaultVal
	}
	return strategy
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
