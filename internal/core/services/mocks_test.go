package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// --- Mock implementations shared by the service tests ---

// mockDocStore implements driven.DocumentStore for testing.
type mockDocStore struct {
	mu sync.Mutex

	collections []string
	indexes     map[string][]string

	listCollErr  error
	createCollErr error
	listIdxErr   error
	createIdxErr error
	insertErr    error
	searchErr    error

	createCollCalls int
	createIdxCalls  int
	inserted        [][]domain.Chunk

	searchHits     []driven.SearchHit
	lastSearchOpts driven.SearchOptions
	lastVector     []float32
}

func newMockDocStore() *mockDocStore {
	return &mockDocStore{indexes: make(map[string][]string)}
}

func (m *mockDocStore) ListCollections(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listCollErr != nil {
		return nil, m.listCollErr
	}
	return m.collections, nil
}

func (m *mockDocStore) CreateCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCollCalls++
	if m.createCollErr != nil {
		return m.createCollErr
	}
	m.collections = append(m.collections, name)
	return nil
}

func (m *mockDocStore) ListSearchIndexes(_ context.Context, collection string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listIdxErr != nil {
		return nil, m.listIdxErr
	}
	return m.indexes[collection], nil
}

func (m *mockDocStore) CreateSearchIndex(_ context.Context, collection string, def driven.IndexDefinition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createIdxCalls++
	if m.createIdxErr != nil {
		return m.createIdxErr
	}
	m.indexes[collection] = append(m.indexes[collection], def.Name)
	return nil
}

func (m *mockDocStore) InsertChunks(_ context.Context, _ string, chunks []domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	batch := make([]domain.Chunk, len(chunks))
	copy(batch, chunks)
	m.inserted = append(m.inserted, batch)
	return nil
}

func (m *mockDocStore) SimilaritySearch(_ context.Context, _, _ string, vector []float32, opts driven.SearchOptions) ([]driven.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastVector = vector
	m.lastSearchOpts = opts
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if opts.Limit < len(m.searchHits) {
		return m.searchHits[:opts.Limit], nil
	}
	return m.searchHits, nil
}

// mockEmbedder implements driven.EmbeddingService for testing.
type mockEmbedder struct {
	embedding []float32
	embedErr  error
	dims      int

	batchCalls  int
	failOnBatch int // 1-based batch call to fail on; 0 never fails
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.embedErr != nil && (m.failOnBatch == 0 || m.batchCalls == m.failOnBatch) {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i := range texts {
		result[i] = m.embedding
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 3072
}

func (m *mockEmbedder) ModelName() string { return "mock-embedding-model" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockLedger implements driven.SourceLedger for testing.
type mockLedger struct {
	records   []domain.SourceRecord
	recordErr error
}

func (m *mockLedger) RecordSource(_ context.Context, record domain.SourceRecord) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockLedger) ListSources(_ context.Context) ([]domain.SourceRecord, error) {
	return m.records, nil
}

// stubChunker emits one chunk per non-blank page, bypassing the real
// splitting logic so tests control chunk counts exactly.
type stubChunker struct{}

func (stubChunker) Name() string { return "stub" }

func (stubChunker) Process(pages []domain.Page, source string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(pages))
	for _, page := range pages {
		if page.Text == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Content:  page.Text,
			Metadata: domain.ChunkMetadata{Source: source, PageNumber: page.Number},
		})
	}
	return chunks
}
