package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// mockIngestService is a test double for driving.IngestService.
type mockIngestService struct {
	report     *driving.IngestReport
	ingestErr  error
	sources    []domain.SourceRecord
	sourcesErr error

	lastSource string
	lastPages  []domain.Page
}

func (m *mockIngestService) Ingest(_ context.Context, source string, pages []domain.Page) (*driving.IngestReport, error) {
	m.lastSource = source
	m.lastPages = pages
	if m.ingestErr != nil {
		return nil, m.ingestErr
	}
	if m.report != nil {
		return m.report, nil
	}
	return &driving.IngestReport{Source: source, Pages: len(pages), ChunksWritten: len(pages), Batches: 1}, nil
}

func (m *mockIngestService) ListSources(_ context.Context) ([]domain.SourceRecord, error) {
	return m.sources, m.sourcesErr
}

// mockRetrievalService is a test double for driving.RetrievalService.
type mockRetrievalService struct {
	resp *domain.RetrievalResponse
	err  error

	lastQuery string
	lastOpts  domain.RetrieveOptions
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string, opts domain.RetrieveOptions) (*domain.RetrievalResponse, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	if m.resp != nil {
		return m.resp, nil
	}
	return &domain.RetrievalResponse{}, nil
}

// setupTestServices installs mock services and returns a cleanup func.
func setupTestServices() (*mockIngestService, *mockRetrievalService, func()) {
	oldIngest := ingestService
	oldRetrieval := retrievalService

	ingest := &mockIngestService{
		sources: []domain.SourceRecord{
			{ID: "1", Source: "physics.pdf", Pages: 12, ChunkCount: 40, IngestedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)},
		},
	}
	retrieval := &mockRetrievalService{
		resp: &domain.RetrievalResponse{
			Contexts: []domain.RetrievedContext{
				{PageNumber: "3", Content: "Newton's second law relates force and acceleration.", Score: 0.91},
			},
		},
	}

	ingestService = ingest
	retrievalService = retrieval

	return ingest, retrieval, func() {
		ingestService = oldIngest
		retrievalService = oldRetrieval
	}
}
