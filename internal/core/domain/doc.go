// Package domain defines the core business entities for docq.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested document with its page map
//   - TextSegment: A retrievable unit of document text (a "chunk")
//   - RetrievalCandidate: A query-scoped scored segment reference
//   - Citation: A (page, document) provenance pointer
//   - Conversation: Append-only query/answer history
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
