package driven

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// IndexDefinition declares the schema of a vector-search index.
// Dimensions and similarity are fixed for the life of an index; changing
// either requires a new index under a new name.
type IndexDefinition struct {
	// Name is the search index name, unique per collection.
	Name string

	// Path is the document field holding the embedding vector.
	Path string

	// Dimensions is the embedding length, fixed at the embedding
	// model's output size.
	Dimensions int

	// Similarity is the metric the index ranks by (e.g. "cosine").
	Similarity string

	// FilterPaths are metadata fields the index exposes for filtering.
	FilterPaths []string
}

// SearchOptions configures a similarity search.
type SearchOptions struct {
	// Limit is the maximum number of hits to return.
	Limit int

	// Source, when non-empty, restricts hits to chunks whose
	// metadata.source equals it. Requires the field to be declared as a
	// filter path on the index.
	Source string
}

// SearchHit is a raw similarity-search result before normalisation.
type SearchHit struct {
	// Content is the stored chunk text.
	Content string

	// Metadata is the stored chunk metadata as the index returns it.
	// Fields may be missing; the retriever degrades rather than fails.
	Metadata map[string]any

	// Score is the similarity score reported by the store.
	Score float64
}

// DocumentStore persists chunks and provides vector-search operations.
// Backed by MongoDB Atlas vector search.
//
// All operations require an established connection; the connection
// lifecycle is owned by the composition root, never by core services.
type DocumentStore interface {
	// ListCollections returns the names of existing collections.
	ListCollections(ctx context.Context) ([]string, error)

	// CreateCollection creates a named collection. Creating a collection
	// that already exists returns an error wrapping domain.ErrAlreadyExists.
	CreateCollection(ctx context.Context, name string) error

	// ListSearchIndexes returns the names of search indexes on a collection.
	ListSearchIndexes(ctx context.Context, collection string) ([]string, error)

	// CreateSearchIndex submits a vector-search index creation request.
	// A lost creation race surfaces as an error wrapping
	// domain.ErrAlreadyExists, which callers treat as success.
	CreateSearchIndex(ctx context.Context, collection string, def IndexDefinition) error

	// InsertChunks writes a batch of embedded chunks as one request.
	// Chunk order within the batch is preserved.
	InsertChunks(ctx context.Context, collection string, chunks []domain.Chunk) error

	// SimilaritySearch finds the nearest stored chunks to the query
	// vector. Zero matches is a valid result, not an error.
	SimilaritySearch(ctx context.Context, collection, index string, vector []float32, opts SearchOptions) ([]SearchHit, error)
}
