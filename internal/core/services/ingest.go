package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
	"github.com/custodia-labs/corpora-cli/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestService = (*Ingestor)(nil)

// DefaultBatchSize bounds how many chunks are embedded and written per
// request, keeping each embedding call under the API's token ceiling.
const DefaultBatchSize = 50

// DefaultBatchDelay is the pause between batches. It is rate-limit
// hygiene for the embedding API, not a correctness requirement.
const DefaultBatchDelay = 500 * time.Millisecond

// IngestorConfig configures the ingestion writer.
type IngestorConfig struct {
	// Collection is the chunk collection written to.
	Collection string

	// Index describes the vector-search index ensured before writing.
	Index driven.IndexDefinition

	// BatchSize caps chunks per embedding/write request. Defaults to
	// DefaultBatchSize.
	BatchSize int

	// BatchDelay spaces consecutive batches. Defaults to DefaultBatchDelay.
	BatchDelay time.Duration
}

// Ingestor embeds and persists chunked documents in bounded batches.
//
// The contract is fail-fast: the first failing batch aborts the job
// with a *domain.BatchError naming the batch and chunk range, because a
// silently incomplete corpus is worse than a loud stop.
type Ingestor struct {
	store       driven.DocumentStore
	embedder    driven.EmbeddingService
	chunker     driven.Chunker
	provisioner *Provisioner
	ledger      driven.SourceLedger

	collection string
	index      driven.IndexDefinition
	batchSize  int
	limiter    *rate.Limiter
}

// NewIngestor creates a new ingestion writer. The ledger is optional;
// when nil, completed jobs are simply not recorded.
func NewIngestor(
	store driven.DocumentStore,
	embedder driven.EmbeddingService,
	chunker driven.Chunker,
	provisioner *Provisioner,
	ledger driven.SourceLedger,
	cfg IngestorConfig,
) *Ingestor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = DefaultBatchDelay
	}

	return &Ingestor{
		store:       store,
		embedder:    embedder,
		chunker:     chunker,
		provisioner: provisioner,
		ledger:      ledger,
		collection:  cfg.Collection,
		index:       cfg.Index,
		batchSize:   cfg.BatchSize,
		limiter:     rate.NewLimiter(rate.Every(cfg.BatchDelay), 1),
	}
}

// Ingest chunks, embeds and persists the pages of one source document.
// Batches are submitted in chunk order and chunk order within a batch
// is preserved, so page provenance stays aligned end to end.
func (s *Ingestor) Ingest(ctx context.Context, source string, pages []domain.Page) (*driving.IngestReport, error) {
	if s.store == nil {
		return nil, domain.ErrNotConnected
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	logger.Section("Ingestion")
	logger.Info("Source: %s (%d pages)", source, len(pages))

	if err := s.provisioner.EnsureIndex(ctx, s.collection, s.index); err != nil {
		return nil, fmt.Errorf("provision before ingest: %w", err)
	}

	chunks := s.chunker.Process(pages, source)
	logger.Info("Prepared %d chunks (page-based + fallback split)", len(chunks))
	if len(chunks) == 0 {
		return &driving.IngestReport{Source: source}, nil
	}

	// Ids are assigned before batching so every chunk identity is fixed
	// for the whole job, whatever happens to individual batches.
	for i := range chunks {
		chunks[i].ID = uuid.New().String()
	}

	batches := partition(chunks, s.batchSize)

	for i, batch := range batches {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, s.batchError(i, len(batch), err)
		}

		if err := s.writeBatch(ctx, batch); err != nil {
			batchErr := s.batchError(i, len(batch), err)
			logger.Error("Batch %d failed: %v", i+1, err)
			return nil, batchErr
		}

		logger.Info("Batch %d: stored %d chunks", i+1, len(batch))
	}

	report := &driving.IngestReport{
		Source:        source,
		Pages:         countPages(chunks),
		ChunksWritten: len(chunks),
		Batches:       len(batches),
	}

	s.recordSource(ctx, report)
	return report, nil
}

// ListSources returns the ledger of previously ingested documents.
func (s *Ingestor) ListSources(ctx context.Context) ([]domain.SourceRecord, error) {
	if s.ledger == nil {
		return nil, nil
	}
	return s.ledger.ListSources(ctx)
}

// writeBatch embeds one batch and submits it as a single write.
func (s *Ingestor) writeBatch(ctx context.Context, batch []domain.Chunk) error {
	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("embed batch: got %d embeddings for %d chunks", len(embeddings), len(batch))
	}

	for i := range batch {
		batch[i].Embedding = embeddings[i]
	}

	if err := s.store.InsertChunks(ctx, s.collection, batch); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}
	return nil
}

// batchError wraps a failure with the 1-based batch index and the
// half-open chunk range the batch covered.
func (s *Ingestor) batchError(batchIdx, batchLen int, err error) *domain.BatchError {
	start := batchIdx * s.batchSize
	return &domain.BatchError{
		Batch: batchIdx + 1,
		Start: start,
		End:   start + batchLen,
		Err:   err,
	}
}

func (s *Ingestor) recordSource(ctx context.Context, report *driving.IngestReport) {
	if s.ledger == nil {
		return
	}

	record := domain.SourceRecord{
		ID:         uuid.New().String(),
		Source:     report.Source,
		Pages:      report.Pages,
		ChunkCount: report.ChunksWritten,
		IngestedAt: time.Now().UTC(),
	}
	if err := s.ledger.RecordSource(ctx, record); err != nil {
		// Bookkeeping only; the corpus itself is complete.
		logger.Warn("Failed to record source %s: %v", report.Source, err)
	}
}

// partition splits chunks into consecutive batches of at most size.
// It is a pure function: input order is preserved across and within
// batches, and the concatenation of all batches equals the input.
func partition(chunks []domain.Chunk, size int) [][]domain.Chunk {
	if size <= 0 || len(chunks) == 0 {
		return nil
	}

	batches := make([][]domain.Chunk, 0, (len(chunks)+size-1)/size)
	for start := 0; start < len(chunks); start += size {
		end := start + size
		if end > len(chunks) {
			end = len(chunks)
		}
		batches = append(batches, chunks[start:end])
	}
	return batches
}

// countPages counts the distinct pages represented in the chunk list.
func countPages(chunks []domain.Chunk) int {
	seen := make(map[int]bool, len(chunks))
	for _, chunk := range chunks {
		seen[chunk.Metadata.PageNumber] = true
	}
	return len(seen)
}
