// Package ranking re-scores, orders, filters and truncates candidate sets.
// The service is pure: no I/O, no suspension, a function of its inputs plus
// the injected clock.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/rank"
	"github.com/kailas-cloud/rankdex/internal/domain/rank/method"
	"github.com/kailas-cloud/rankdex/internal/domain/rank/weights"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
	"github.com/kailas-cloud/rankdex/internal/domain/vector"
)

// Service is the ranking engine.
type Service struct {
	recencyField string
	halfLife     time.Duration

	now func() time.Time
}

// New creates a ranking service. Zero-value config fields fall back to
// DefaultRecencyField and DefaultRecencyHalfLife.
func New(cfg Config) *Service {
	if cfg.RecencyField == "" {
		cfg.RecencyField = DefaultRecencyField
	}
	if cfg.RecencyHalfLife <= 0 {
		cfg.RecencyHalfLife = DefaultRecencyHalfLife
	}
	return &Service{
		recencyField: cfg.RecencyField,
		halfLife:     cfg.RecencyHalfLife,
		now:          time.Now,
	}
}

// Rank scores the candidates with the selected method, drops scores strictly
// below the threshold, orders descending with ties kept in input order, and
// truncates to TopK. The candidates slice is never mutated.
func (s *Service) Rank(
	ctx context.Context, query []float32, candidates []rank.Candidate, p Params,
) ([]result.Ranked, error) {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("rank: %w: %w", domain.ErrTimeout, err)
		}
		return nil, fmt.Errorf("rank: %w", err)
	}

	score, err := s.scorer(query, p)
	if err != nil {
		return nil, err
	}

	type scored struct {
		c     *rank.Candidate
		score float64
	}
	kept := make([]scored, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		v := score(c)
		if v < p.Threshold {
			continue
		}
		kept = append(kept, scored{c: c, score: v})
	}

	// Stable keeps input order on exact score ties.
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].score > kept[j].score
	})

	if p.TopK > 0 && len(kept) > p.TopK {
		kept = kept[:p.TopK]
	}

	ranked := make([]result.Ranked, 0, len(kept))
	for _, sc := range kept {
		ranked = append(ranked, result.NewRanked(
			sc.c.ID(), sc.score, sc.c.Document(), sc.c.Tags(), sc.c.Numerics(),
		))
	}
	return ranked, nil
}

// scorer validates the method and weights up front and returns the per-
// candidate scoring function, so invalid input fails before any scoring work.
func (s *Service) scorer(query []float32, p Params) (func(c *rank.Candidate) float64, error) {
	switch p.Method {
	case method.Similarity:
		return func(c *rank.Candidate) float64 {
			return s.similarity(query, c)
		}, nil

	case method.Weighted:
		ws, err := weights.New(p.Weights)
		if err != nil {
			return nil, err
		}
		ws = ws.Normalized()
		return func(c *rank.Candidate) float64 {
			return s.combine(query, c, ws, nil)
		}, nil

	case method.Custom:
		if len(p.Weights) == 0 {
			return nil, fmt.Errorf("custom ranking needs an explicit weight mapping: %w", domain.ErrZeroWeights)
		}
		ws, err := weights.New(p.Weights)
		if err != nil {
			return nil, err
		}
		ws = ws.Normalized()
		return func(c *rank.Candidate) float64 {
			return s.combine(query, c, ws, p.Resolver)
		}, nil

	default:
		return nil, fmt.Errorf("ranking method %q: %w", p.Method, domain.ErrInvalidMethod)
	}
}

// combine computes Σ weight[f] × factor[f] over the configured factors.
func (s *Service) combine(
	query []float32, c *rank.Candidate, ws weights.Weights, resolve Resolver,
) float64 {
	var total float64
	for _, name := range ws.Names() {
		w, _ := ws.Get(name)
		total += w * s.factor(query, c, name, resolve)
	}
	return total
}

// factor resolves one factor value. The custom resolver is consulted first,
// then the built-in similarity and recency derivations, then the candidate's
// own numerics. Anything unresolved scores the neutral 0.
func (s *Service) factor(
	query []float32, c *rank.Candidate, name string, resolve Resolver,
) float64 {
	if resolve != nil {
		if v, ok := resolve(name, *c); ok {
			return v
		}
	}

	switch name {
	case weights.Similarity:
		return s.similarity(query, c)
	case weights.Recency:
		return s.recency(c)
	default:
		if v, ok := c.Numeric(name); ok {
			return v
		}
		return 0
	}
}

// similarity prefers the candidate's explicit similarity and otherwise
// derives a clamped cosine score when both vectors are at hand.
func (s *Service) similarity(query []float32, c *rank.Candidate) float64 {
	if sim, ok := c.Similarity(); ok {
		return sim
	}
	if len(query) > 0 && len(c.Vector()) > 0 {
		return vector.Score(query, c.Vector())
	}
	return 0
}

// recency prefers an explicit recency numeric and otherwise decays the
// configured timestamp field exponentially: 0.5 after one half-life.
// Future timestamps clamp to 1.
func (s *Service) recency(c *rank.Candidate) float64 {
	if v, ok := c.Numeric(weights.Recency); ok {
		return v
	}

	ts, ok := c.Numeric(s.recencyField)
	if !ok {
		return 0
	}

	age := s.now().Sub(time.Unix(int64(ts), 0))
	if age <= 0 {
		return 1
	}
	return math.Exp2(-float64(age) / float64(s.halfLife))
}
