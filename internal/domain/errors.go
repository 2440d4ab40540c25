package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized signals an operation against an unconstructed index.
	ErrNotInitialized = errors.New("vector index not initialized")
	// ErrInvalidNamespace signals a malformed namespace key.
	ErrInvalidNamespace = errors.New("invalid namespace")
	// ErrInvalidRecordID signals a malformed record id.
	ErrInvalidRecordID = errors.New("invalid record id")
	// ErrInvalidVector signals an empty or non-finite vector.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrDimensionMismatch signals a vector whose length differs from the namespace dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidMetadata signals malformed tag or numeric metadata.
	ErrInvalidMetadata = errors.New("invalid metadata")
	// ErrBatchTooLarge signals a batch exceeding the per-request item limit.
	ErrBatchTooLarge = errors.New("batch too large")

	// ErrInvalidMethod signals an unknown ranking method.
	ErrInvalidMethod = errors.New("invalid ranking method")
	// ErrZeroWeights signals a weight set that sums to zero and cannot be normalized.
	ErrZeroWeights = errors.New("ranking weights sum to zero")

	// ErrEmbeddingBackend signals an embedding provider failure.
	ErrEmbeddingBackend = errors.New("embedding backend error")
	// ErrTimeout signals that an operation exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")
)

// DimensionError wraps ErrDimensionMismatch with the established and the offending lengths.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: namespace dimensionality is %d, got %d", ErrDimensionMismatch.Error(), e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionError creates a dimension mismatch error for a namespace established at want.
func NewDimensionError(want, got int) error {
	return &DimensionError{Want: want, Got: got}
}
