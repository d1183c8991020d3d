package domain

import "time"

// Page is a single page of raw text extracted from a source document.
// Pages are the unit of input to the chunking pipeline; page numbers
// are 1-based and preserved as provenance on every chunk.
type Page struct {
	// Number is the 1-based page number within the source document.
	Number int

	// Text is the raw extracted text for the page, before stripping.
	Text string
}

// ChunkMetadata carries the provenance of a chunk back to its source.
type ChunkMetadata struct {
	// Source is the originating document identifier (typically a filename).
	Source string

	// PageNumber is the 1-based page the chunk was cut from.
	PageNumber int
}

// Chunk is a bounded unit of ingested text. Chunks are created by the
// chunker, assigned an ID and embedded by the ingestion writer, and are
// immutable once persisted.
type Chunk struct {
	// ID is the unique identifier assigned at ingestion time.
	// It is stable across retries of the same logical batch.
	ID string

	// Content is the chunk text. Never empty for a persisted chunk.
	Content string

	// Embedding is the dense vector representation, produced at write
	// time. Its length matches the search index dimensionality.
	Embedding []float32

	// Metadata ties the chunk back to its source page.
	Metadata ChunkMetadata
}

// SourceRecord is the bookkeeping entry written after a source document
// has been fully ingested. It lets operators see what the corpus holds
// without scanning the chunk collection.
type SourceRecord struct {
	// ID is the unique identifier for the ingestion run.
	ID string

	// Source is the document identifier used as chunk provenance.
	Source string

	// Pages is the number of non-empty pages the document produced.
	Pages int

	// ChunkCount is the number of chunks written for this source.
	ChunkCount int

	// IngestedAt is when the ingestion job completed.
	IngestedAt time.Time
}
