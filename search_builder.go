package rankdex

import (
	"context"
	"fmt"
)

// Hit is a typed search result. Score is the cosine similarity, or the
// combined ranking score when ranking is configured on the builder.
type Hit[T any] struct {
	Item  T
	Score float64
}

// SearchBuilder is a fluent builder for typed search queries.
type SearchBuilder[T any] struct {
	idx *TypedIndex[T]

	vector []float32
	text   string

	filters   map[string]string
	limit     int
	threshold float64

	rank *RankOptions
}

// Vector sets the query vector.
func (b *SearchBuilder[T]) Vector(vec []float32) *SearchBuilder[T] {
	b.vector = vec
	return b
}

// Text sets the query text, embedded before hitting the index.
func (b *SearchBuilder[T]) Text(q string) *SearchBuilder[T] {
	b.text = q
	return b
}

// Where adds a tag filter condition (exact match).
func (b *SearchBuilder[T]) Where(key, value string) *SearchBuilder[T] {
	if b.filters == nil {
		b.filters = make(map[string]string)
	}
	b.filters[key] = value
	return b
}

// Limit sets the maximum number of candidates fetched from the index.
func (b *SearchBuilder[T]) Limit(n int) *SearchBuilder[T] {
	b.limit = n
	return b
}

// Threshold sets the minimum similarity for candidates.
func (b *SearchBuilder[T]) Threshold(t float64) *SearchBuilder[T] {
	b.threshold = t
	return b
}

// Ranked re-scores the hits with the given options before returning them.
// A nil opts ranks with the weighted method and default weights.
func (b *SearchBuilder[T]) Ranked(opts *RankOptions) *SearchBuilder[T] {
	if opts == nil {
		opts = &RankOptions{}
	}
	b.rank = opts
	return b
}

// Do executes the search and returns typed results.
func (b *SearchBuilder[T]) Do(ctx context.Context) ([]Hit[T], error) {
	if b.rank != nil {
		return b.doRanked(ctx)
	}
	return b.doPlain(ctx)
}

func (b *SearchBuilder[T]) doPlain(ctx context.Context) ([]Hit[T], error) {
	svc := b.idx.client.Search(b.idx.namespace)
	opts := &SearchOptions{Limit: b.limit, Threshold: b.threshold, Filter: b.filters}

	var (
		results []SearchResult
		err     error
	)
	if b.text != "" {
		results, err = svc.QueryText(ctx, b.text, opts)
	} else {
		results, err = svc.Query(ctx, b.vector, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit[T], len(results))
	for i, r := range results {
		hits[i] = Hit[T]{
			Item: b.toItem(Record{
				ID: r.ID, Document: r.Document,
				Tags: r.Tags, Numerics: r.Numerics,
			}),
			Score: r.Similarity,
		}
	}
	return hits, nil
}

func (b *SearchBuilder[T]) doRanked(ctx context.Context) ([]Hit[T], error) {
	svc := b.idx.client.Search(b.idx.namespace)
	opts := &SearchOptions{Limit: b.limit, Threshold: b.threshold, Filter: b.filters}

	var (
		results []RankedResult
		err     error
	)
	if b.text != "" {
		results, err = svc.RankedText(ctx, b.text, opts, b.rank)
	} else {
		results, err = svc.Ranked(ctx, b.vector, opts, b.rank)
	}
	if err != nil {
		return nil, fmt.Errorf("ranked search: %w", err)
	}

	hits := make([]Hit[T], len(results))
	for i, r := range results {
		hits[i] = Hit[T]{
			Item: b.toItem(Record{
				ID: r.ID, Document: r.Document,
				Tags: r.Tags, Numerics: r.Numerics,
			}),
			Score: r.Score,
		}
	}
	return hits, nil
}

func (b *SearchBuilder[T]) toItem(rec Record) T {
	item, _ := b.idx.meta.fromRecord(rec).(T)
	return item
}
