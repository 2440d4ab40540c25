// Package result defines search and ranking output value objects.
package result

// Hit is a single similarity search hit, ordered by descending similarity.
type Hit struct {
	id         string
	similarity float64
	document   string
	tags       map[string]string
	numerics   map[string]float64
}

// NewHit creates a search hit.
func NewHit(
	id string, similarity float64, document string,
	tags map[string]string, numerics map[string]float64,
) Hit {
	return Hit{
		id: id, similarity: similarity, document: document,
		tags: tags, numerics: numerics,
	}
}

// ID returns the record identifier.
func (h *Hit) ID() string { return h.id }

// Similarity returns the [0, 1] similarity to the query vector.
func (h *Hit) Similarity() float64 { return h.similarity }

// Document returns the record text.
func (h *Hit) Document() string { return h.document }

// Tags returns the record tags.
func (h *Hit) Tags() map[string]string { return h.tags }

// Numerics returns the record numeric fields.
func (h *Hit) Numerics() map[string]float64 { return h.numerics }

// Ranked is a single ranked result produced from a hit or an external
// candidate, ordered by descending final score.
type Ranked struct {
	id       string
	score    float64
	document string
	tags     map[string]string
	numerics map[string]float64
}

// NewRanked creates a ranked result.
func NewRanked(
	id string, score float64, document string,
	tags map[string]string, numerics map[string]float64,
) Ranked {
	return Ranked{
		id: id, score: score, document: document,
		tags: tags, numerics: numerics,
	}
}

// ID returns the record identifier.
func (r *Ranked) ID() string { return r.id }

// Score returns the final combined score.
func (r *Ranked) Score() float64 { return r.score }

// Document returns the record text.
func (r *Ranked) Document() string { return r.document }

// Tags returns the record tags.
func (r *Ranked) Tags() map[string]string { return r.tags }

// Numerics returns the record numeric fields.
func (r *Ranked) Numerics() map[string]float64 { return r.numerics }
