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
//   - DocumentStore: Chunk persistence plus vector-search index operations (MongoDB Atlas).
//   - EmbeddingService: Generates vector embeddings (OpenAI).
//
// # Optional Interfaces
//
//   - SourceLedger: Records ingested sources for operator visibility.
//     When nil, ingestion still completes; only the bookkeeping is skipped.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
