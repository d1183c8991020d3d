package driven

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// SourceLedger records which source documents have been ingested.
// It is bookkeeping only; the chunk collection remains the source of
// truth for retrieval.
type SourceLedger interface {
	// RecordSource appends a record for a completed ingestion job.
	RecordSource(ctx context.Context, record domain.SourceRecord) error

	// ListSources returns all recorded sources, newest first.
	ListSources(ctx context.Context) ([]domain.SourceRecord, error)
}
