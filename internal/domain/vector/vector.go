// Package vector holds the shared similarity math for query and record vectors.
package vector

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// Cosine returns the raw cosine of the angle between a and b in [-1, 1].
// Mismatched lengths and zero-norm inputs yield 0 rather than an error so
// ranking over heterogeneous candidates degrades instead of failing.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Score maps cosine similarity into the [0, 1] similarity scale used across
// the index and ranking layers: negatives clamp to 0. For typical embedding
// vectors cosine is already non-negative, so this is usually the identity.
func Score(a, b []float32) float64 {
	return ClampScore(Cosine(a, b))
}

// ClampScore bounds a similarity score into [0, 1].
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Validate rejects empty vectors and non-finite components.
func Validate(v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("vector is empty: %w", domain.ErrInvalidVector)
	}
	for i, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("vector component [%d] is not finite: %w", i, domain.ErrInvalidVector)
		}
	}
	return nil
}

// Clone returns a defensive copy of v, or nil for a nil input.
func Clone(v []float32) []float32 {
	if v == nil {
		return nil
	}
	c := make([]float32, len(v))
	copy(c, v)
	return c
}
