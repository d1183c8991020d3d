package driving

import (
	"context"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// IngestReport summarises a completed ingestion job.
type IngestReport struct {
	// Source is the document identifier the chunks were tagged with.
	Source string

	// Pages is the number of non-empty pages processed.
	Pages int

	// ChunksWritten is the number of chunks embedded and persisted.
	ChunksWritten int

	// Batches is the number of write batches submitted.
	Batches int
}

// IngestService ingests paged documents into the vector corpus.
//
// Ingestion is fail-fast: the first failing batch aborts the job with a
// *domain.BatchError so the operator knows exactly which chunk range is
// missing. Partial, silently-incomplete ingestion is considered worse
// than a loud stop.
type IngestService interface {
	// Ingest chunks, embeds and persists the pages of one source document.
	Ingest(ctx context.Context, source string, pages []domain.Page) (*IngestReport, error)

	// ListSources returns the ledger of previously ingested documents.
	ListSources(ctx context.Context) ([]domain.SourceRecord, error)
}
