// Package record orchestrates record CRUD with automatic vectorization.
package record

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/rankdex/internal/domain"
	dombatch "github.com/kailas-cloud/rankdex/internal/domain/batch"
	"github.com/kailas-cloud/rankdex/internal/domain/namespace"
	domrec "github.com/kailas-cloud/rankdex/internal/domain/record"
	"github.com/kailas-cloud/rankdex/internal/domain/vector"
)

// MaxBatchSize is the maximum number of items per batch upsert.
const MaxBatchSize = 100

// Service handles record CRUD with automatic vectorization.
type Service struct {
	repo            Repository
	embed           Embedder
	maxBatchSize    int
	defaultPageSize int
	maxPageSize     int
}

// New creates a record service.
func New(repo Repository, embed Embedder) *Service {
	return &Service{
		repo:            repo,
		embed:           embed,
		maxBatchSize:    MaxBatchSize,
		defaultPageSize: 20,
		maxPageSize:     100,
	}
}

// WithMaxBatchSize configures the batch item limit.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// MaxBatch returns the configured batch item limit.
func (s *Service) MaxBatch() int { return s.maxBatchSize }

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Upsert creates or replaces a record, deriving the vector from the document
// when none is supplied. Returns the stored record with its effective id.
func (s *Service) Upsert(ctx context.Context, ns string, p UpsertParams) (domrec.Record, error) {
	n, err := namespace.New(ns)
	if err != nil {
		return domrec.Record{}, err
	}

	rec, err := s.prepare(ctx, p)
	if err != nil {
		return domrec.Record{}, err
	}

	if err := s.repo.Upsert(ctx, n, rec); err != nil {
		return domrec.Record{}, fmt.Errorf("upsert record: %w", err)
	}
	return rec, nil
}

// UpsertBatch upserts up to the configured number of records, reporting
// per-item outcomes. Documents needing embedding go to the provider in one
// batch call; an embedding failure fails exactly those items while records
// carrying their own vectors still proceed.
func (s *Service) UpsertBatch(ctx context.Context, ns string, items []UpsertParams) []dombatch.Result {
	results := make([]dombatch.Result, len(items))

	if len(items) > s.maxBatchSize {
		err := fmt.Errorf("batch of %d exceeds %d items: %w", len(items), s.maxBatchSize, domain.ErrBatchTooLarge)
		for i, item := range items {
			results[i] = dombatch.NewError(item.ID, err)
		}
		return results
	}

	n, err := namespace.New(ns)
	if err != nil {
		for i, item := range items {
			results[i] = dombatch.NewError(item.ID, err)
		}
		return results
	}

	recs := make([]domrec.Record, len(items))
	ready := make([]bool, len(items))
	var embedIdx []int
	var embedTexts []string

	for i, p := range items {
		id := p.ID
		if id == "" {
			id = uuid.NewString()
		}

		rec, err := domrec.New(id, p.Document, p.Tags, p.Numerics)
		if err != nil {
			results[i] = dombatch.NewError(p.ID, err)
			continue
		}

		if len(p.Vector) > 0 {
			if err := vector.Validate(p.Vector); err != nil {
				results[i] = dombatch.NewError(id, err)
				continue
			}
			recs[i] = rec.WithVector(vector.Clone(p.Vector))
			ready[i] = true
			continue
		}

		if p.Document == "" {
			results[i] = dombatch.NewError(id,
				fmt.Errorf("record needs a vector or a document to embed: %w", domain.ErrInvalidVector))
			continue
		}

		recs[i] = rec
		embedIdx = append(embedIdx, i)
		embedTexts = append(embedTexts, p.Document)
	}

	if len(embedTexts) > 0 {
		s.vectorizeBatch(ctx, recs, ready, results, embedIdx, embedTexts)
	}

	for i := range items {
		if !ready[i] {
			continue
		}
		if err := s.repo.Upsert(ctx, n, recs[i]); err != nil {
			results[i] = dombatch.NewError(recs[i].ID(), fmt.Errorf("upsert: %w", err))
			continue
		}
		results[i] = dombatch.NewOK(recs[i].ID())
	}
	return results
}

// prepare validates the params and resolves the record vector, embedding the
// document when no vector is supplied.
func (s *Service) prepare(ctx context.Context, p UpsertParams) (domrec.Record, error) {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	rec, err := domrec.New(id, p.Document, p.Tags, p.Numerics)
	if err != nil {
		return domrec.Record{}, err
	}

	if len(p.Vector) > 0 {
		if err := vector.Validate(p.Vector); err != nil {
			return domrec.Record{}, err
		}
		return rec.WithVector(vector.Clone(p.Vector)), nil
	}

	if p.Document == "" {
		return domrec.Record{}, fmt.Errorf("record needs a vector or a document to embed: %w", domain.ErrInvalidVector)
	}
	if s.embed == nil {
		return domrec.Record{}, fmt.Errorf("no embedder configured: %w", domain.ErrNotInitialized)
	}

	embRes, err := s.embed.Embed(ctx, p.Document)
	if err != nil {
		return domrec.Record{}, fmt.Errorf("vectorize document: %w", err)
	}
	return rec.WithVector(embRes.Embedding), nil
}

// vectorizeBatch embeds all pending documents in one provider call and
// attaches the vectors by position.
func (s *Service) vectorizeBatch(
	ctx context.Context,
	recs []domrec.Record, ready []bool, results []dombatch.Result,
	embedIdx []int, embedTexts []string,
) {
	batch, err := s.batchEmbed(ctx, embedTexts)
	if err == nil && len(batch.Embeddings) != len(embedTexts) {
		err = fmt.Errorf("got %d embeddings for %d documents", len(batch.Embeddings), len(embedTexts))
	}
	if err != nil {
		err = fmt.Errorf("vectorize documents: %w", err)
		for _, i := range embedIdx {
			results[i] = dombatch.NewError(recs[i].ID(), err)
		}
		return
	}

	for j, i := range embedIdx {
		recs[i] = recs[i].WithVector(batch.Embeddings[j])
		ready[i] = true
	}
}

// batchEmbed prefers the provider's native batch API.
func (s *Service) batchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if s.embed == nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("no embedder configured: %w", domain.ErrNotInitialized)
	}
	if be, ok := s.embed.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, s.embed, texts)
}

// Get fetches one record. Absence is reported via found, not an error.
func (s *Service) Get(ctx context.Context, ns, id string) (domrec.Record, bool, error) {
	n, err := namespace.New(ns)
	if err != nil {
		return domrec.Record{}, false, err
	}
	if id == "" {
		return domrec.Record{}, false, fmt.Errorf("record ID is required: %w", domain.ErrInvalidRecordID)
	}

	rec, found, err := s.repo.Get(ctx, n, id)
	if err != nil {
		return domrec.Record{}, false, fmt.Errorf("get record: %w", err)
	}
	return rec, found, nil
}

// Delete removes one record. Deleting an absent id reports false, no error.
func (s *Service) Delete(ctx context.Context, ns, id string) (bool, error) {
	n, err := namespace.New(ns)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, fmt.Errorf("record ID is required: %w", domain.ErrInvalidRecordID)
	}

	deleted, err := s.repo.Delete(ctx, n, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	return deleted, nil
}

// List enumerates records with optional tag equality filtering.
func (s *Service) List(
	ctx context.Context, ns string, filter map[string]string, limit, offset int,
) ([]domrec.Record, error) {
	n, err := namespace.New(ns)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}

	records, err := s.repo.List(ctx, n, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

// Count returns the number of records in a namespace.
func (s *Service) Count(ctx context.Context, ns string) (int, error) {
	n, err := namespace.New(ns)
	if err != nil {
		return 0, err
	}

	count, err := s.repo.Count(ctx, n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Drop removes a namespace with all its records. Dropping an absent
// namespace reports false, no error.
func (s *Service) Drop(ctx context.Context, ns string) (bool, error) {
	n, err := namespace.New(ns)
	if err != nil {
		return false, err
	}

	dropped, err := s.repo.Drop(ctx, n)
	if err != nil {
		return false, fmt.Errorf("drop namespace: %w", err)
	}
	return dropped, nil
}
