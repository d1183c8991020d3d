package driven

import "github.com/custodia-labs/corpora-cli/internal/core/domain"

// Chunker turns a paged document into ordered chunk drafts.
// Drafts carry content and provenance metadata only; ids and embeddings
// are assigned later by the ingestion writer.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Process chunks the pages of a single source document.
	// Empty pages yield no chunks; page order is preserved in the output.
	Process(pages []domain.Page, source string) []domain.Chunk
}
