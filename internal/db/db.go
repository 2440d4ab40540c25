package db

import (
	"context"
	"time"
)

// Store is the backing-store facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	VectorStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backing-store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// VectorRecord is the wire shape of a stored record. The adapter above this
// layer owns validation; the store only persists and retrieves.
type VectorRecord struct {
	ID       string
	Vector   []float32
	Document string
	Tags     map[string]string
	Numerics map[string]float64
}

// VectorMatch is a search hit with its [0, 1] similarity score.
type VectorMatch struct {
	VectorRecord
	Score float64
}

// SearchQuery asks for the Limit nearest records to Vector, pre-filtered by
// tag equality. Threshold filtering happens above this layer.
type SearchQuery struct {
	Vector []float32
	Limit  int
	Filter map[string]string
}

// ListQuery enumerates records in stable store order.
type ListQuery struct {
	Filter map[string]string
	Limit  int
	Offset int
}

// VectorStore is the narrow namespace-scoped persistence contract. Namespaces
// are created implicitly by EnsureNamespace on first write; the established
// dimensionality is persisted with the namespace, and EnsureNamespace with a
// different dim fails so concurrent first writers resolve to a single winner.
type VectorStore interface {
	EnsureNamespace(ctx context.Context, ns string, dim int) error
	NamespaceDim(ctx context.Context, ns string) (int, bool, error)
	DropNamespace(ctx context.Context, ns string) (bool, error)
	UpsertVector(ctx context.Context, ns string, rec VectorRecord) error
	GetVector(ctx context.Context, ns, id string) (VectorRecord, error)
	DeleteVector(ctx context.Context, ns, id string) (bool, error)
	ListVectors(ctx context.Context, ns string, q ListQuery) ([]VectorRecord, error)
	SearchVectors(ctx context.Context, ns string, q SearchQuery) ([]VectorMatch, error)
	CountVectors(ctx context.Context, ns string) (int, error)
}

// KVStore provides simple key-value operations (embedding cache L2 tier).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
