package rankdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/rankdex/internal/domain/rank"
	"github.com/kailas-cloud/rankdex/internal/domain/rank/method"
	"github.com/kailas-cloud/rankdex/internal/domain/search/query"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	rankinguc "github.com/kailas-cloud/rankdex/internal/usecase/ranking"
	searchuc "github.com/kailas-cloud/rankdex/internal/usecase/search"
)

// SearchService executes similarity queries against a single namespace.
type SearchService struct {
	namespace string
	svc       *searchuc.Service
}

// Query runs a k-NN search with an explicit query vector. opts may be nil.
func (s *SearchService) Query(
	ctx context.Context, vector []float32, opts *SearchOptions,
) ([]SearchResult, error) {
	q, err := buildQuery(vector, "", opts)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	hits, err := s.svc.Search(ctx, s.namespace, q)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return fromHits(hits), nil
}

// QueryText embeds the text through the cache chain and searches with the
// resulting vector. Fails with ErrNotInitialized when no embedder is
// configured.
func (s *SearchService) QueryText(
	ctx context.Context, text string, opts *SearchOptions,
) ([]SearchResult, error) {
	q, err := buildQuery(nil, text, opts)
	if err != nil {
		return nil, fmt.Errorf("query text: %w", err)
	}
	hits, err := s.svc.Search(ctx, s.namespace, q)
	if err != nil {
		return nil, fmt.Errorf("query text: %w", err)
	}
	return fromHits(hits), nil
}

// Ranked searches with the query vector and re-scores the hits in one call.
// opts bounds candidate retrieval, rankOpts tunes scoring; both may be nil.
func (s *SearchService) Ranked(
	ctx context.Context, vector []float32, opts *SearchOptions, rankOpts *RankOptions,
) ([]RankedResult, error) {
	q, err := buildQuery(vector, "", opts)
	if err != nil {
		return nil, fmt.Errorf("ranked query: %w", err)
	}
	ranked, err := s.svc.SearchRanked(ctx, s.namespace, q, toRankingParams(rankOpts))
	if err != nil {
		return nil, fmt.Errorf("ranked query: %w", err)
	}
	return fromRanked(ranked), nil
}

// RankedText is Ranked with an embedded text query.
func (s *SearchService) RankedText(
	ctx context.Context, text string, opts *SearchOptions, rankOpts *RankOptions,
) ([]RankedResult, error) {
	q, err := buildQuery(nil, text, opts)
	if err != nil {
		return nil, fmt.Errorf("ranked query text: %w", err)
	}
	ranked, err := s.svc.SearchRanked(ctx, s.namespace, q, toRankingParams(rankOpts))
	if err != nil {
		return nil, fmt.Errorf("ranked query text: %w", err)
	}
	return fromRanked(ranked), nil
}

func buildQuery(vector []float32, text string, opts *SearchOptions) (query.Query, error) {
	if opts == nil {
		opts = &SearchOptions{}
	}
	return query.New(vector, text, opts.Limit, opts.Threshold, opts.Filter)
}

// toRankingParams converts public rank options, defaulting a nil options
// struct and an empty method to weighted.
func toRankingParams(opts *RankOptions) rankinguc.Params {
	if opts == nil {
		opts = &RankOptions{}
	}
	m := method.Method(opts.Method)
	if opts.Method == "" {
		m = method.Weighted
	}
	return rankinguc.Params{
		Method:    m,
		TopK:      opts.TopK,
		Threshold: opts.Threshold,
		Weights:   opts.Weights,
		Resolver:  toResolver(opts.Resolver),
	}
}

func toResolver(r Resolver) rankinguc.Resolver {
	if r == nil {
		return nil
	}
	return func(name string, c rank.Candidate) (float64, bool) {
		return r(name, fromInternalCandidate(&c))
	}
}

func fromInternalCandidate(c *rank.Candidate) Candidate {
	out := Candidate{
		ID:       c.ID(),
		Vector:   c.Vector(),
		Document: c.Document(),
		Tags:     c.Tags(),
		Numerics: c.Numerics(),
	}
	if sim, ok := c.Similarity(); ok {
		out.Similarity = &sim
	}
	return out
}

func fromHits(hits []result.Hit) []SearchResult {
	out := make([]SearchResult, len(hits))
	for i := range hits {
		h := &hits[i]
		out[i] = SearchResult{
			ID:         h.ID(),
			Similarity: h.Similarity(),
			Document:   h.Document(),
			Tags:       h.Tags(),
			Numerics:   h.Numerics(),
		}
	}
	return out
}

func fromRanked(ranked []result.Ranked) []RankedResult {
	out := make([]RankedResult, len(ranked))
	for i := range ranked {
		r := &ranked[i]
		out[i] = RankedResult{
			ID:       r.ID(),
			Score:    r.Score(),
			Document: r.Document(),
			Tags:     r.Tags(),
			Numerics: r.Numerics(),
		}
	}
	return out
}
