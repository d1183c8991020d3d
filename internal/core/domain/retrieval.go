package domain

// PageNumberUnknown is the sentinel page number reported when a stored
// chunk's metadata does not carry one. Retrieval degrades rather than
// failing the whole response over missing provenance.
const PageNumberUnknown = "unknown"

// RetrieveOptions configures a retrieval query.
type RetrieveOptions struct {
	// TopK is the maximum number of contexts to return. Defaults to 5.
	TopK int

	// Source optionally restricts results to chunks ingested from a
	// single source document, using the index's filter field.
	Source string
}

// RetrievedContext is a single similarity-search hit, normalised for
// callers. Contexts are ordered by descending similarity score.
type RetrievedContext struct {
	// PageNumber is the provenance page, or PageNumberUnknown when the
	// stored metadata lacks one.
	PageNumber string `json:"page_number"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Metadata is the stored chunk metadata as returned by the index.
	Metadata map[string]any `json:"metadata"`

	// Score is the similarity score reported by the vector search.
	Score float64 `json:"similarity_score"`
}

// RetrievalResponse is the payload returned to retrieval callers.
// Exactly one of Contexts or Error is meaningful: remote failures are
// carried here as data, never propagated past the retrieval boundary.
type RetrievalResponse struct {
	Contexts []RetrievedContext `json:"contexts,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// Failed reports whether the retrieval soft-failed.
func (r *RetrievalResponse) Failed() bool {
	return r.Error != ""
}
