package domain

import "time"

const unknownDescription = "Unknown"

// ChunkStrategy selects how documents are split into segments.
type ChunkStrategy string

// Available chunking strategies.
const (
	// ChunkStrategyHierarchical splits on structural boundaries
	// (section > paragraph > sentence) and keeps parent/child links.
	ChunkStrategyHierarchical ChunkStrategy = "hierarchical"

	// ChunkStrategySemantic greedily merges sentences while their
	// embedding similarity stays above a threshold. Flat output.
	ChunkStrategySemantic ChunkStrategy = "semantic"
)

// IsValid returns true if the strategy is recognised.
func (s ChunkStrategy) IsValid() bool {
	switch s {
	case ChunkStrategyHierarchical, ChunkStrategySemantic:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s ChunkStrategy) String() string {
	return string(s)
}

// Description returns a human-readable description of the strategy.
func (s ChunkStrategy) Description() string {
	switch s {
	case ChunkStrategyHierarchical:
		return "Hierarchical (structure-aware, parent/child segments)"
	case ChunkStrategySemantic:
		return "Semantic (similarity-guided sentence merging)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an AI service provider for embeddings, re-ranking
// or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderTEI is a text-embeddings-inference compatible server
	// (used for cross-encoder re-ranking).
	AIProviderTEI AIProvider = "tei"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderTEI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderTEI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// ChunkingSettings holds chunking strategy configuration.
type ChunkingSettings struct {
	// Strategy selects the chunking algorithm.
	Strategy ChunkStrategy

	// MaxTokens is the maximum segment size in tokens.
	MaxTokens int

	// OverlapTokens is the shared trailing/leading token count between
	// adjacent segments produced by a hard split.
	OverlapTokens int

	// SimilarityThreshold closes a semantic segment when the cosine
	// similarity between the running segment and the next sentence
	// drops below it. Static per configuration, not adaptive.
	SimilarityThreshold float64
}

// Validate checks the settings for consistency.
func (c ChunkingSettings) Validate() error {
	if !c.Strategy.IsValid() {
		return ErrInvalidInput
	}
	if c.MaxTokens <= 0 || c.OverlapTokens < 0 || c.OverlapTokens >= c.MaxTokens {
		return ErrInvalidInput
	}
	if c.Strategy == ChunkStrategySemantic && (c.SimilarityThreshold < -1 || c.SimilarityThreshold > 1) {
		return ErrInvalidInput
	}
	return nil
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the embedding vector size. Zero means look the
	// model up in EmbeddingDimensions(); models absent from that table
	// must set it explicitly.
	Dimensions int

	// MaxInputTokens is the model's maximum input length.
	MaxInputTokens int

	// MaxRetries bounds retry attempts for transient failures.
	MaxRetries int

	// RequestsPerSecond throttles cloud API calls. Zero disables
	// throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// RerankerSettings holds cross-encoder re-ranker configuration.
type RerankerSettings struct {
	// BaseURL is the TEI-compatible rerank endpoint.
	BaseURL string

	// Model is the cross-encoder model name.
	Model string
}

// IsConfigured returns true if the re-ranker is set up.
func (r RerankerSettings) IsConfigured() bool {
	return r.BaseURL != ""
}

// LLMSettings holds generation provider configuration.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Temperature controls generation randomness.
	Temperature float64
}

// IsConfigured returns true if the generation provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RetrievalSettings holds pipeline behaviour configuration.
type RetrievalSettings struct {
	// InitialK is the first-stage vector search candidate count.
	InitialK int

	// FinalK is the evidence set size selected after re-ranking.
	FinalK int

	// StageTimeout bounds each external call (embed, rerank, generate).
	// Zero means no per-stage deadline beyond the caller's context.
	StageTimeout time.Duration

	// HistoryTurns is how many prior conversation turns condition the
	// query.
	HistoryTurns int
}

// Validate checks the settings for consistency.
// The pipeline never re-ranks more candidates than the index returned,
// so FinalK must not exceed InitialK.
func (r RetrievalSettings) Validate() error {
	if r.InitialK <= 0 || r.FinalK <= 0 || r.FinalK > r.InitialK {
		return ErrInvalidInput
	}
	return nil
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Chunking holds chunking strategy settings.
	Chunking ChunkingSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Reranker holds re-ranker settings.
	Reranker RerankerSettings

	// LLM holds generation provider settings.
	LLM LLMSettings

	// Retrieval holds pipeline settings.
	Retrieval RetrievalSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Provider endpoints are left unconfigured; users set them via config.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Chunking: ChunkingSettings{
			Strategy:            ChunkStrategyHierarchical,
			MaxTokens:           1000,
			OverlapTokens:       100,
			SimilarityThreshold: 0.6,
		},
		Embedding: EmbeddingSettings{
			Provider:       AIProviderOllama,
			Model:          "nomic-embed-text",
			MaxInputTokens: 8192,
			MaxRetries:     3,
		},
		Reranker: RerankerSettings{},
		LLM: LLMSettings{
			Provider:    AIProviderOllama,
			Model:       "qwen2.5:7b",
			Temperature: 0.1,
		},
		Retrieval: RetrievalSettings{
			InitialK:     10,
			FinalK:       5,
			StageTimeout: 60 * time.Second,
			HistoryTurns: 10,
		},
	}
}

// DefaultEmbeddingModels returns the default model per embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns the default model per generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "qwen2.5:7b",
		AIProviderOpenAI: "gpt-4o-mini",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
