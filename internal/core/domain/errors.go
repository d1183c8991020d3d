package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	// Store adapters classify "index already exists" responses with this
	// error so the provisioner can absorb lost creation races as success.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidConfig indicates missing or malformed connection settings.
	// Surfaced at startup; nothing is dialled with a bad configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotConnected indicates a component was used before the document
	// store connection was established. This is a programmer error.
	ErrNotConnected = errors.New("not connected to document store")

	// ErrInvalidQuery indicates an empty or blank retrieval query.
	// Rejected before any remote call is made.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Neither ingestion nor retrieval can run without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// BatchError reports a failed ingestion batch. Ingestion is fail-fast:
// the first failing batch aborts the job, and the error names the batch
// and the chunk range it covered so the operator knows what is missing.
type BatchError struct {
	// Batch is the 1-based index of the failing batch.
	Batch int

	// Start and End are the half-open chunk range [Start, End) the
	// batch covered within the ingestion job.
	Start, End int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d (chunks %d-%d) failed: %v", e.Batch, e.Start, e.End, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BatchError) Unwrap() error {
	return e.Err
}
