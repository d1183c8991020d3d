// Package memory provides an in-memory implementation of the document
// store ports. It backs tests and local experiments where a real
// MongoDB Atlas cluster is unavailable; similarity search is exact
// cosine over everything stored.
package memory

import (
	"context"
	"math"
	"slices"
	"sort"
	"sync"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.DocumentStore = (*Store)(nil)
	_ driven.SourceLedger  = (*Store)(nil)
)

// Store is an in-memory implementation of driven.DocumentStore.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]domain.Chunk
	indexes     map[string][]driven.IndexDefinition
	sources     []domain.SourceRecord
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string][]domain.Chunk),
		indexes:     make(map[string][]driven.IndexDefinition),
	}
}

// ListCollections returns the names of existing collections.
func (s *Store) ListCollections(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// CreateCollection creates a named collection.
func (s *Store) CreateCollection(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return domain.ErrAlreadyExists
	}
	s.collections[name] = nil
	return nil
}

// ListSearchIndexes returns the names of search indexes on a collection.
func (s *Store) ListSearchIndexes(_ context.Context, collection string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	defs := s.indexes[collection]
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names, nil
}

// CreateSearchIndex registers a vector-search index definition.
func (s *Store) CreateSearchIndex(_ context.Context, collection string, def driven.IndexDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.indexes[collection] {
		if existing.Name == def.Name {
			return domain.ErrAlreadyExists
		}
	}
	s.indexes[collection] = append(s.indexes[collection], def)
	return nil
}

// InsertChunks appends a batch of chunks, preserving order.
func (s *Store) InsertChunks(_ context.Context, collection string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], chunks...)
	return nil
}

// SimilaritySearch ranks stored chunks by exact cosine similarity to
// the query vector and returns the top hits.
func (s *Store) SimilaritySearch(_ context.Context, collection, _ string, vector []float32, opts driven.SearchOptions) ([]driven.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	hits := make([]driven.SearchHit, 0, limit)
	for _, chunk := range s.collections[collection] {
		if opts.Source != "" && chunk.Metadata.Source != opts.Source {
			continue
		}
		hits = append(hits, driven.SearchHit{
			Content: chunk.Content,
			Metadata: map[string]any{
				"source":      chunk.Metadata.Source,
				"page_number": chunk.Metadata.PageNumber,
			},
			Score: float64(cosineSimilarity(vector, chunk.Embedding)),
		})
	}

	slices.SortStableFunc(hits, func(a, b driven.SearchHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// RecordSource appends a ledger entry.
func (s *Store) RecordSource(_ context.Context, record domain.SourceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = append(s.sources, record)
	return nil
}

// ListSources returns all recorded sources, newest first.
func (s *Store) ListSources(_ context.Context) ([]domain.SourceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.SourceRecord, len(s.sources))
	copy(records, s.sources)
	sort.Slice(records, func(i, j int) bool {
		return records[i].IngestedAt.After(records[j].IngestedAt)
	})
	return records, nil
}

// cosineSimilarity computes cos(θ) = (A · B) / (||A|| × ||B||) in a
// single pass. Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}
