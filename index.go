package rankdex

import (
	"context"
	"fmt"
)

// TypedIndex is a generic, schema-first handle over one namespace.
// Schema is inferred from T's struct tags at construction time:
//
//	type Article struct {
//		ID      string    `rankdex:"id,id"`
//		Body    string    `rankdex:"body,document"`
//		Vec     []float32 `rankdex:"vec,vector"`
//		Lang    string    `rankdex:"lang,tag"`
//		Updated int64     `rankdex:"updated_at,numeric"`
//	}
type TypedIndex[T any] struct {
	namespace string
	client    *Client
	meta      *schemaMeta
}

// NewIndex creates a typed index handle for the given namespace.
// T must be a struct with rankdex tags. Schema is parsed once and cached.
func NewIndex[T any](client *Client, namespace string) (*TypedIndex[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new index %q: %w", namespace, err)
	}
	return &TypedIndex[T]{namespace: namespace, client: client, meta: meta}, nil
}

// Upsert creates or replaces a single item. Returns the effective id.
func (idx *TypedIndex[T]) Upsert(ctx context.Context, item T) (string, error) {
	return idx.client.Records(idx.namespace).Upsert(ctx, idx.meta.toRecord(item))
}

// UpsertBatch creates or replaces items in batch with per-item outcomes.
func (idx *TypedIndex[T]) UpsertBatch(ctx context.Context, items []T) ([]BatchResult, error) {
	recs := make([]Record, len(items))
	for i, item := range items {
		recs[i] = idx.meta.toRecord(item)
	}
	return idx.client.Records(idx.namespace).UpsertBatch(ctx, recs)
}

// Get retrieves a typed item by id.
func (idx *TypedIndex[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	rec, found, err := idx.client.Records(idx.namespace).Get(ctx, id)
	if err != nil || !found {
		return zero, false, err
	}
	item, ok := idx.meta.fromRecord(rec).(T)
	if !ok {
		return zero, false, fmt.Errorf("get %q: type assertion failed", id)
	}
	return item, true, nil
}

// Delete removes an item by id. Returns true when something was removed.
func (idx *TypedIndex[T]) Delete(ctx context.Context, id string) (bool, error) {
	return idx.client.Records(idx.namespace).Delete(ctx, id)
}

// Count returns the number of items in the namespace.
func (idx *TypedIndex[T]) Count(ctx context.Context) (int, error) {
	return idx.client.Records(idx.namespace).Count(ctx)
}

// Drop removes the namespace with all its items.
func (idx *TypedIndex[T]) Drop(ctx context.Context) (bool, error) {
	return idx.client.Records(idx.namespace).Drop(ctx)
}

// Search returns a fluent search builder for this index.
func (idx *TypedIndex[T]) Search() *SearchBuilder[T] {
	return &SearchBuilder[T]{idx: idx}
}
