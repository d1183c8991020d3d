package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

func testRetriever(store *mockDocStore, embedder *mockEmbedder) *Retriever {
	return NewRetriever(store, embedder, NewProvisioner(store), "combined_vectors", testIndexDef())
}

func TestRetriever_Retrieve_RejectsBlankQuery(t *testing.T) {
	r := testRetriever(newMockDocStore(), &mockEmbedder{})

	for _, query := range []string{"", "   ", "\n\t"} {
		_, err := r.Retrieve(context.Background(), query, domain.RetrieveOptions{})
		assert.ErrorIs(t, err, domain.ErrInvalidQuery, "query %q", query)
	}
}

func TestRetriever_Retrieve_HappyPath(t *testing.T) {
	store := newMockDocStore()
	store.searchHits = []driven.SearchHit{
		{
			Content:  "cache coherence protocols",
			Metadata: map[string]any{"source": "book.pdf", "page_number": int32(12)},
			Score:    0.91,
		},
		{
			Content:  "memory consistency models",
			Metadata: map[string]any{"source": "book.pdf", "page_number": float64(47)},
			Score:    0.84,
		},
	}
	r := testRetriever(store, &mockEmbedder{embedding: []float32{0.5, 0.5}})

	resp, err := r.Retrieve(context.Background(), "what is cache coherence?", domain.RetrieveOptions{})
	require.NoError(t, err)
	require.False(t, resp.Failed())
	require.Len(t, resp.Contexts, 2)

	first := resp.Contexts[0]
	assert.Equal(t, "cache coherence protocols", first.Content)
	assert.Equal(t, "12", first.PageNumber)
	assert.InDelta(t, 0.91, first.Score, 1e-9)

	assert.Equal(t, "47", resp.Contexts[1].PageNumber)
	assert.Equal(t, []float32{0.5, 0.5}, store.lastVector)
}

func TestRetriever_Retrieve_DefaultTopK(t *testing.T) {
	store := newMockDocStore()
	r := testRetriever(store, &mockEmbedder{embedding: []float32{1}})

	_, err := r.Retrieve(context.Background(), "query", domain.RetrieveOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, store.lastSearchOpts.Limit)
}

func TestRetriever_Retrieve_SourceFilterPassedThrough(t *testing.T) {
	store := newMockDocStore()
	r := testRetriever(store, &mockEmbedder{embedding: []float32{1}})

	_, err := r.Retrieve(context.Background(), "query", domain.RetrieveOptions{TopK: 3, Source: "book.pdf"})
	require.NoError(t, err)
	assert.Equal(t, 3, store.lastSearchOpts.Limit)
	assert.Equal(t, "book.pdf", store.lastSearchOpts.Source)
}

func TestRetriever_Retrieve_MissingPageNumberDegrades(t *testing.T) {
	store := newMockDocStore()
	store.searchHits = []driven.SearchHit{
		{Content: "orphan chunk", Metadata: map[string]any{"source": "book.pdf"}, Score: 0.5},
		{Content: "nil metadata", Metadata: nil, Score: 0.4},
	}
	r := testRetriever(store, &mockEmbedder{embedding: []float32{1}})

	resp, err := r.Retrieve(context.Background(), "query", domain.RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, resp.Contexts, 2)
	assert.Equal(t, domain.PageNumberUnknown, resp.Contexts[0].PageNumber)
	assert.Equal(t, domain.PageNumberUnknown, resp.Contexts[1].PageNumber)
}

func TestRetriever_Retrieve_ZeroMatches(t *testing.T) {
	store := newMockDocStore()
	r := testRetriever(store, &mockEmbedder{embedding: []float32{1}})

	resp, err := r.Retrieve(context.Background(), "nothing matches this", domain.RetrieveOptions{})
	require.NoError(t, err)
	assert.False(t, resp.Failed())
	assert.Empty(t, resp.Contexts)
}

func TestRetriever_Retrieve_SearchFailureIsSoft(t *testing.T) {
	store := newMockDocStore()
	store.searchErr = errors.New("$vectorSearch stage failed")
	r := testRetriever(store, &mockEmbedder{embedding: []float32{1}})

	resp, err := r.Retrieve(context.Background(), "query", domain.RetrieveOptions{})
	require.NoError(t, err, "remote failures must not propagate as errors")
	require.True(t, resp.Failed())
	assert.Contains(t, resp.Error, "similarity search")
	assert.Empty(t, resp.Contexts)
}

func TestRetriever_Retrieve_EmbedFailureIsSoft(t *testing.T) {
	store := newMockDocStore()
	r := testRetriever(store, &mockEmbedder{embedErr: errors.New("quota exhausted")})

	resp, err := r.Retrieve(context.Background(), "query", domain.RetrieveOptions{})
	require.NoError(t, err)
	require.True(t, resp.Failed())
	assert.Contains(t, resp.Error, "embed query")
}

func TestRetriever_Retrieve_LazyProvisioning(t *testing.T) {
	store := newMockDocStore()
	r := testRetriever(store, &mockEmbedder{embedding: []float32{1}})

	// Nothing was provisioned at startup; retrieval provisions on use.
	_, err := r.Retrieve(context.Background(), "query", domain.RetrieveOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, store.createIdxCalls)
	assert.Contains(t, store.indexes["combined_vectors"], "combined_index")
}

func TestRetriever_Retrieve_MissingDependencies(t *testing.T) {
	t.Run("nil store", func(t *testing.T) {
		r := NewRetriever(nil, &mockEmbedder{}, NewProvisioner(nil), "c", testIndexDef())
		_, err := r.Retrieve(context.Background(), "query", domain.RetrieveOptions{})
		assert.ErrorIs(t, err, domain.ErrNotConnected)
	})

	t.Run("nil embedder", func(t *testing.T) {
		store := newMockDocStore()
		r := NewRetriever(store, nil, NewProvisioner(store), "c", testIndexDef())
		_, err := r.Retrieve(context.Background(), "query", domain.RetrieveOptions{})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}
