// Package domain defines the core business entities for Corpora.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Page: A single page of raw text extracted from a source document
//   - Chunk: A bounded unit of text with provenance metadata and embedding
//   - RetrievedContext: A ranked similarity-search hit returned to callers
//   - SourceRecord: Bookkeeping for an ingested source document
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
