// Package chunker provides a page-aware text chunking processor.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per sub-chunk.
const DefaultChunkSize = 2000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// DefaultLargePageThreshold is the stripped-page length above which a
// page is split into sub-chunks instead of being emitted whole.
const DefaultLargePageThreshold = 12000

// separators are tried in order when looking for a cut point.
// Paragraph breaks beat line breaks beat sentence ends beat spaces;
// a hard character cut is the last resort.
var separators = []string{"\n\n", "\n", ". ", " "}

// Processor turns the pages of a document into chunk drafts.
//
// Pages under the large-page threshold become one chunk each. Larger
// pages are split into overlapping sub-chunks at the best available
// text boundary. Every chunk carries its page's full provenance.
type Processor struct {
	chunkSize int
	overlap   int
	threshold int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the sub-chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between sub-chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithLargePageThreshold sets the page length above which splitting kicks in.
func WithLargePageThreshold(threshold int) Option {
	return func(p *Processor) {
		if threshold > 0 {
			p.threshold = threshold
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
		threshold: DefaultLargePageThreshold,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "page-chunker"
}

// Process chunks the pages of a single source document.
// Pages that are empty after stripping yield no chunks. Output order
// follows page order, and sub-chunk order within a page, so provenance
// stays aligned through downstream batching.
func (p *Processor) Process(pages []domain.Page, source string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(pages))

	for _, page := range pages {
		content := strings.TrimSpace(page.Text)
		if content == "" {
			continue
		}

		meta := domain.ChunkMetadata{
			Source:     source,
			PageNumber: page.Number,
		}

		if utf8.RuneCountInString(content) <= p.threshold {
			chunks = append(chunks, domain.Chunk{Content: content, Metadata: meta})
			continue
		}

		logger.Warn("Page %d of %s is very large, splitting into sub-chunks", page.Number, source)
		for _, piece := range p.split(content) {
			chunks = append(chunks, domain.Chunk{Content: piece, Metadata: meta})
		}
	}

	return chunks
}

// split cuts content into overlapping pieces of at most chunkSize
// characters. The end of each piece is pulled back to the best text
// boundary in its second half where one exists; the next piece always
// starts exactly overlap characters before the previous end, so the
// configured overlap holds regardless of the boundary chosen.
func (p *Processor) split(content string) []string {
	runes := []rune(content)
	total := len(runes)

	pieces := make([]string, 0, (total/(p.chunkSize-p.overlap))+1)

	start := 0
	for start < total {
		end := start + p.chunkSize
		if end >= total {
			pieces = append(pieces, string(runes[start:total]))
			break
		}

		end = p.cutPoint(runes, start, end)
		pieces = append(pieces, string(runes[start:end]))

		// Overlap guard: chunkSize > overlap is enforced in New.
		start = end - p.overlap
	}

	return pieces
}

// cutPoint finds where to end a piece that spans [start, end) of runes.
// It prefers the last separator occurrence in the second half of the
// window, trying separators in priority order, and falls back to the
// hard cut at end when no boundary qualifies.
func (p *Processor) cutPoint(runes []rune, start, end int) int {
	window := string(runes[start:end])
	// Never cut before half a chunk; tiny fragments defeat the point.
	// The cut must also clear the overlap so the window keeps advancing.
	minCut := p.chunkSize / 2
	if minCut <= p.overlap {
		minCut = p.overlap + 1
	}

	for _, sep := range separators {
		idx := strings.LastIndex(window, sep)
		if idx < 0 {
			continue
		}
		cut := utf8.RuneCountInString(window[:idx]) + utf8.RuneCountInString(sep)
		if cut >= minCut {
			return start + cut
		}
	}

	return end
}
