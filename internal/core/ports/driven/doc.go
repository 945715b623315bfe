// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Extractor: Turns raw file bytes into a Document with a page map
//   - EmbeddingService: Maps text to fixed-length vectors
//   - VectorIndex: Vector storage and similarity query
//   - DocumentStore: Document/segment persistence and the ready flag
//   - ConversationStore: Append-only conversation persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - Reranker: Cross-encoder second-stage scoring. Without it, evidence
//     is selected by vector score alone.
//   - Generator: Answer synthesis. Without it, query returns the raw
//     evidence set and no answer text.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
