// Package rank defines the ephemeral ranking candidate consumed by the
// ranking engine. Candidates are produced per query, either from index
// search hits or supplied by the caller, and are discarded after scoring.
package rank

import (
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
)

// Candidate is a single scoring input. Similarity and vector are both
// optional: an explicit similarity wins, otherwise the engine derives one
// from the vector when a query vector is available. Factor values live in
// numerics and default to 0 when absent.
type Candidate struct {
	id            string
	similarity    float64
	hasSimilarity bool
	vector        []float32
	document      string
	tags          map[string]string
	numerics      map[string]float64
}

// NewCandidate creates a candidate without a similarity or vector attached.
func NewCandidate(
	id, document string, tags map[string]string, numerics map[string]float64,
) Candidate {
	return Candidate{id: id, document: document, tags: tags, numerics: numerics}
}

// FromHit converts a search hit into a ranking candidate, carrying the hit
// similarity as the explicit similarity.
func FromHit(h result.Hit) Candidate {
	return Candidate{
		id:            h.ID(),
		similarity:    h.Similarity(),
		hasSimilarity: true,
		document:      h.Document(),
		tags:          h.Tags(),
		numerics:      h.Numerics(),
	}
}

// WithSimilarity returns a copy carrying an explicit [0, 1] similarity.
func (c *Candidate) WithSimilarity(sim float64) Candidate {
	out := *c
	out.similarity = sim
	out.hasSimilarity = true
	return out
}

// WithVector returns a copy carrying the candidate's own vector, letting the
// engine compute similarity against the query on demand.
func (c *Candidate) WithVector(vec []float32) Candidate {
	out := *c
	out.vector = vec
	return out
}

// ID returns the candidate identifier.
func (c *Candidate) ID() string { return c.id }

// Similarity returns the explicit similarity and whether one was set.
func (c *Candidate) Similarity() (float64, bool) { return c.similarity, c.hasSimilarity }

// Vector returns the candidate vector, nil when not attached.
func (c *Candidate) Vector() []float32 { return c.vector }

// Document returns the candidate text.
func (c *Candidate) Document() string { return c.document }

// Tags returns the candidate tags.
func (c *Candidate) Tags() map[string]string { return c.tags }

// Numerics returns the candidate numeric fields.
func (c *Candidate) Numerics() map[string]float64 { return c.numerics }

// Numeric returns a single numeric factor value by name.
func (c *Candidate) Numeric(name string) (float64, bool) {
	v, ok := c.numerics[name]
	return v, ok
}
