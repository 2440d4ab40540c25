package search

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/namespace"
	"github.com/kailas-cloud/rankdex/internal/domain/rank"
	"github.com/kailas-cloud/rankdex/internal/domain/search/query"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	"github.com/kailas-cloud/rankdex/internal/usecase/ranking"
)

// Service handles similarity search and the search-then-rank pipeline.
type Service struct {
	repo   Repository
	embed  Embedder
	ranker Ranker
}

// New creates a search service.
func New(repo Repository, embed Embedder, ranker Ranker) *Service {
	return &Service{repo: repo, embed: embed, ranker: ranker}
}

// Search runs a k-NN similarity search in the namespace. Text queries are
// vectorized through the embedder first.
func (s *Service) Search(ctx context.Context, ns string, q query.Query) ([]result.Hit, error) {
	n, err := namespace.New(ns)
	if err != nil {
		return nil, err
	}

	q, err = s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	hits, err := s.repo.Search(ctx, n, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return hits, nil
}

// SearchRanked runs a similarity search and re-scores the hits. The query
// limit and threshold bound candidate retrieval; the ranking parameters
// apply to the combined score afterwards.
func (s *Service) SearchRanked(
	ctx context.Context, ns string, q query.Query, p ranking.Params,
) ([]result.Ranked, error) {
	n, err := namespace.New(ns)
	if err != nil {
		return nil, err
	}

	q, err = s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}

	hits, err := s.repo.Search(ctx, n, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}

	candidates := make([]rank.Candidate, len(hits))
	for i, h := range hits {
		candidates[i] = rank.FromHit(h)
	}

	ranked, err := s.ranker.Rank(ctx, q.Vector(), candidates, p)
	if err != nil {
		return nil, fmt.Errorf("rank hits: %w", err)
	}
	return ranked, nil
}

// resolve vectorizes text queries, leaving vector queries untouched.
func (s *Service) resolve(ctx context.Context, q query.Query) (query.Query, error) {
	if len(q.Vector()) > 0 {
		return q, nil
	}
	if s.embed == nil {
		return query.Query{}, fmt.Errorf("no embedder configured: %w", domain.ErrNotInitialized)
	}

	embResult, err := s.embed.Embed(ctx, q.Text())
	if err != nil {
		return query.Query{}, fmt.Errorf("vectorize query: %w", err)
	}
	return q.WithVector(embResult.Embedding), nil
}
