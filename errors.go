package rankdex

import "github.com/kailas-cloud/rankdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidNamespace  = domain.ErrInvalidNamespace
	ErrInvalidRecordID   = domain.ErrInvalidRecordID
	ErrInvalidVector     = domain.ErrInvalidVector
	ErrDimensionMismatch = domain.ErrDimensionMismatch
	ErrInvalidMetadata   = domain.ErrInvalidMetadata
	ErrBatchTooLarge     = domain.ErrBatchTooLarge
	ErrInvalidMethod     = domain.ErrInvalidMethod
	ErrZeroWeights       = domain.ErrZeroWeights
	ErrNotInitialized    = domain.ErrNotInitialized
	ErrTimeout           = domain.ErrTimeout
	ErrEmbeddingBackend  = domain.ErrEmbeddingBackend
)
