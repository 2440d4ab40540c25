package rankdex

import (
	"context"
	"fmt"

	dombatch "github.com/kailas-cloud/rankdex/internal/domain/batch"
	domrec "github.com/kailas-cloud/rankdex/internal/domain/record"
	recorduc "github.com/kailas-cloud/rankdex/internal/usecase/record"
)

// RecordsService manages vector records within a single namespace.
type RecordsService struct {
	namespace string
	svc       *recorduc.Service
}

// Upsert creates or fully replaces a record and returns the effective id
// (generated when rec.ID is empty). An empty vector with a non-empty
// document is embedded through the configured embedder.
func (s *RecordsService) Upsert(ctx context.Context, rec Record) (string, error) {
	stored, err := s.svc.Upsert(ctx, s.namespace, toUpsertParams(rec))
	if err != nil {
		return "", fmt.Errorf("upsert: %w", err)
	}
	return stored.ID(), nil
}

// UpsertBatch writes records in one call with per-item outcomes; one failed
// item never aborts the rest. The batch size is bounded by WithMaxBatchSize.
func (s *RecordsService) UpsertBatch(ctx context.Context, recs []Record) ([]BatchResult, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	if max := s.svc.MaxBatch(); len(recs) > max {
		return nil, fmt.Errorf("batch of %d exceeds limit %d: %w", len(recs), max, ErrBatchTooLarge)
	}

	items := make([]recorduc.UpsertParams, len(recs))
	for i, rec := range recs {
		items[i] = toUpsertParams(rec)
	}
	return fromBatchResults(s.svc.UpsertBatch(ctx, s.namespace, items)), nil
}

// Get retrieves a record by id. found is false when the id is absent.
func (s *RecordsService) Get(ctx context.Context, id string) (Record, bool, error) {
	rec, found, err := s.svc.Get(ctx, s.namespace, id)
	if err != nil {
		return Record{}, false, fmt.Errorf("get record: %w", err)
	}
	if !found {
		return Record{}, false, nil
	}
	return fromInternalRecord(rec), true, nil
}

// Delete removes a record by id. Returns true when a record was removed,
// false when the id was already absent; never errors on the second call.
func (s *RecordsService) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.svc.Delete(ctx, s.namespace, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return deleted, nil
}

// List returns records in stable insertion order. opts may be nil.
// Vectors are included.
func (s *RecordsService) List(ctx context.Context, opts *ListOptions) ([]Record, error) {
	if opts == nil {
		opts = &ListOptions{}
	}
	recs, err := s.svc.List(ctx, s.namespace, opts.Filter, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]Record, len(recs))
	for i := range recs {
		out[i] = fromInternalRecord(recs[i])
	}
	return out, nil
}

// Count returns the number of records in the namespace.
func (s *RecordsService) Count(ctx context.Context) (int, error) {
	n, err := s.svc.Count(ctx, s.namespace)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Drop removes the namespace with all its records and its established
// dimensionality. Returns false when the namespace never existed.
func (s *RecordsService) Drop(ctx context.Context) (bool, error) {
	dropped, err := s.svc.Drop(ctx, s.namespace)
	if err != nil {
		return false, fmt.Errorf("drop namespace: %w", err)
	}
	return dropped, nil
}

func toUpsertParams(rec Record) recorduc.UpsertParams {
	return recorduc.UpsertParams{
		ID:       rec.ID,
		Document: rec.Document,
		Tags:     rec.Tags,
		Numerics: rec.Numerics,
		Vector:   rec.Vector,
	}
}

func fromInternalRecord(rec domrec.Record) Record {
	return Record{
		ID:       rec.ID(),
		Document: rec.Document(),
		Tags:     rec.Tags(),
		Numerics: rec.Numerics(),
		Vector:   rec.Vector(),
	}
}

func fromBatchResults(results []dombatch.Result) []BatchResult {
	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{
			ID:  r.ID(),
			OK:  r.Status() == dombatch.StatusOK,
			Err: r.Err(),
		}
	}
	return out
}
