package rankdex

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/rankdex/internal/domain/rank"
	rankinguc "github.com/kailas-cloud/rankdex/internal/usecase/ranking"
)

// RankBuilder is a fluent builder for ranking caller-supplied candidates.
// Zero configuration means the weighted method with default weights.
type RankBuilder struct {
	svc *rankinguc.Service

	queryVector []float32
	method      RankMethod
	topK        int
	threshold   float64
	weights     map[string]float64
	resolver    Resolver
}

// Query sets the query vector used to derive similarity for candidates that
// carry a vector but no explicit similarity.
func (b *RankBuilder) Query(vec []float32) *RankBuilder {
	b.queryVector = vec
	return b
}

// Method selects the scoring strategy (similarity, weighted, custom).
func (b *RankBuilder) Method(m RankMethod) *RankBuilder {
	b.method = m
	return b
}

// Weight sets one factor weight. Only ratios matter; the engine rescales
// weights to sum 1.0.
func (b *RankBuilder) Weight(name string, w float64) *RankBuilder {
	if b.weights == nil {
		b.weights = make(map[string]float64)
	}
	b.weights[name] = w
	return b
}

// Weights replaces the whole factor weight mapping.
func (b *RankBuilder) Weights(w map[string]float64) *RankBuilder {
	b.weights = w
	return b
}

// TopK truncates the ordered result when positive.
func (b *RankBuilder) TopK(k int) *RankBuilder {
	b.topK = k
	return b
}

// Threshold drops results whose final score is strictly below it.
func (b *RankBuilder) Threshold(t float64) *RankBuilder {
	b.threshold = t
	return b
}

// Resolve installs a custom factor resolver, consulted first for every
// factor by the custom method.
func (b *RankBuilder) Resolve(r Resolver) *RankBuilder {
	b.resolver = r
	return b
}

// Do scores, orders, filters and truncates the candidates. The input slice
// is never mutated.
func (b *RankBuilder) Do(ctx context.Context, candidates []Candidate) ([]RankedResult, error) {
	internal := make([]rank.Candidate, len(candidates))
	for i, c := range candidates {
		internal[i] = toInternalCandidate(c)
	}

	ranked, err := b.svc.Rank(ctx, b.queryVector, internal, toRankingParams(&RankOptions{
		Method:    b.method,
		TopK:      b.topK,
		Threshold: b.threshold,
		Weights:   b.weights,
		Resolver:  b.resolver,
	}))
	if err != nil {
		return nil, fmt.Errorf("rank: %w", err)
	}
	return fromRanked(ranked), nil
}

func toInternalCandidate(c Candidate) rank.Candidate {
	out := rank.NewCandidate(c.ID, c.Document, c.Tags, c.Numerics)
	if c.Similarity != nil {
		out = out.WithSimilarity(*c.Similarity)
	}
	if len(c.Vector) > 0 {
		out = out.WithVector(c.Vector)
	}
	return out
}
