package driving

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// RetrievalService answers semantic queries over the ingested corpus.
//
// Retrieval is fail-soft past the input boundary: a blank query is
// rejected with domain.ErrInvalidQuery before any remote call, but any
// remote failure after that is logged and carried back inside the
// response payload so serving callers never see a raised error.
type RetrievalService interface {
	// Retrieve embeds the query and returns the top-K nearest chunks.
	Retrieve(ctx context.Context, query string, opts domain.RetrieveOptions) (*domain.RetrievalResponse, error)
}
