package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpora-cli/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// DefaultTopK is the number of contexts returned when the caller does
// not ask for a specific count.
const DefaultTopK = 5

// Retriever answers semantic queries against the chunk collection.
//
// Past query validation, the contract is fail-soft: remote failures are
// logged with the query for diagnosis and carried back inside the
// response payload, so a serving caller can proceed with degraded
// context instead of an outage. This is the deliberate opposite of the
// ingestion writer's fail-fast contract.
type Retriever struct {
	store       driven.DocumentStore
	embedder    driven.EmbeddingService
	provisioner *Provisioner

	collection string
	index      driven.IndexDefinition
}

// NewRetriever creates a new retrieval service.
func NewRetriever(
	store driven.DocumentStore,
	embedder driven.EmbeddingService,
	provisioner *Provisioner,
	collection string,
	index driven.IndexDefinition,
) *Retriever {
	return &Retriever{
		store:       store,
		embedder:    embedder,
		provisioner: provisioner,
		collection:  collection,
		index:       index,
	}
}

// Retrieve embeds the query once and returns the top-K nearest chunks
// by cosine similarity, ranked descending by score. Zero matches is a
// valid, empty response.
func (s *Retriever) Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) (*domain.RetrievalResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must be non-empty text", domain.ErrInvalidQuery)
	}
	if s.store == nil {
		return nil, domain.ErrNotConnected
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q, k: %d, source filter: %q", query, topK, opts.Source)

	// Provision lazily so retrieval works even when startup skipped it.
	if err := s.provisioner.EnsureIndex(ctx, s.collection, s.index); err != nil {
		return s.softFail(query, "provision index", err), nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return s.softFail(query, "embed query", err), nil
	}

	hits, err := s.store.SimilaritySearch(ctx, s.collection, s.index.Name, vector, driven.SearchOptions{
		Limit:  topK,
		Source: opts.Source,
	})
	if err != nil {
		return s.softFail(query, "similarity search", err), nil
	}

	contexts := make([]domain.RetrievedContext, 0, len(hits))
	for _, hit := range hits {
		contexts = append(contexts, normaliseHit(hit))
	}

	logger.Info("Retrieved %d context items", len(contexts))
	return &domain.RetrievalResponse{Contexts: contexts}, nil
}

// softFail logs a remote failure with enough context to diagnose it and
// converts it into the structured error payload.
func (s *Retriever) softFail(query, op string, err error) *domain.RetrievalResponse {
	logger.Error("Retrieval failed (%s) for query %q on %s/%s: %v",
		op, query, s.collection, s.index.Name, err)
	return &domain.RetrievalResponse{
		Error: fmt.Sprintf("%s: %v", op, err),
	}
}

// normaliseHit converts a raw search hit into a caller-facing context.
// A missing page number degrades to the sentinel instead of failing the
// whole retrieval.
func normaliseHit(hit driven.SearchHit) domain.RetrievedContext {
	page := domain.PageNumberUnknown
	if raw, ok := hit.Metadata["page_number"]; ok {
		switch v := raw.(type) {
		case int:
			page = fmt.Sprintf("%d", v)
		case int32:
			page = fmt.Sprintf("%d", v)
		case int64:
			page = fmt.Sprintf("%d", v)
		case float64:
			page = fmt.Sprintf("%d", int(v))
		case string:
			if v != "" {
				page = v
			}
		}
	}

	return domain.RetrievedContext{
		PageNumber: page,
		Content:    hit.Content,
		Metadata:   hit.Metadata,
		Score:      hit.Score,
	}
}
