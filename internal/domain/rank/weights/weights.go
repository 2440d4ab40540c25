// Package weights defines ranking factor weights and their normalization.
package weights

import (
	"fmt"
	"math"
	"sort"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Built-in factor names for the weighted ranking method.
const (
	Similarity = "similarity"
	Recency    = "recency"
	Relevance  = "relevance"
	Importance = "importance"
)

// Default weighted-method weights. They already sum to 1.0.
const (
	DefaultSimilarity = 0.60
	DefaultRecency    = 0.20
	DefaultRelevance  = 0.10
	DefaultImportance = 0.10
)

// Weights is a validated factor-name → weight mapping. Only relative
// magnitudes matter: Normalized rescales any valid set to sum 1.0, so
// {similarity: 3, recency: 1} ranks identically to {similarity: 0.6, recency: 0.2}.
type Weights struct {
	w map[string]float64
}

// Default returns the built-in weighted-method weights.
func Default() Weights {
	return Weights{w: map[string]float64{
		Similarity: DefaultSimilarity,
		Recency:    DefaultRecency,
		Relevance:  DefaultRelevance,
		Importance: DefaultImportance,
	}}
}

// New validates and creates Weights. A nil or empty mapping yields Default().
// Weights must be finite and non-negative, and at least one must be positive.
func New(w map[string]float64) (Weights, error) {
	if len(w) == 0 {
		return Default(), nil
	}
	var sum float64
	for name, v := range w {
		if name == "" {
			return Weights{}, fmt.Errorf("weight with empty factor name: %w", domain.ErrZeroWeights)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Weights{}, fmt.Errorf("weight for %q is not finite: %w", name, domain.ErrZeroWeights)
		}
		if v < 0 {
			return Weights{}, fmt.Errorf("weight for %q is negative: %w", name, domain.ErrZeroWeights)
		}
		sum += v
	}
	if sum == 0 {
		return Weights{}, fmt.Errorf("all %d weights are zero, nothing to normalize: %w", len(w), domain.ErrZeroWeights)
	}

	c := make(map[string]float64, len(w))
	for name, v := range w {
		c[name] = v
	}
	return Weights{w: c}, nil
}

// Normalized returns a copy rescaled so the weights sum to 1.0.
func (ws Weights) Normalized() Weights {
	var sum float64
	for _, v := range ws.w {
		sum += v
	}
	n := make(map[string]float64, len(ws.w))
	for name, v := range ws.w {
		n[name] = v / sum
	}
	return Weights{w: n}
}

// Get returns the weight for a factor name.
func (ws Weights) Get(name string) (float64, bool) {
	v, ok := ws.w[name]
	return v, ok
}

// Names returns the factor names in sorted order for deterministic scoring.
func (ws Weights) Names() []string {
	names := make([]string, 0, len(ws.w))
	for name := range ws.w {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of configured factors.
func (ws Weights) Len() int { return len(ws.w) }

// IsZero reports whether the weights were never constructed.
func (ws Weights) IsZero() bool { return ws.w == nil }
