// Package query defines the validated similarity search query.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/vector"
)

// Search parameter limits.
const (
	// MaxTextLength is the maximum allowed query text length.
	MaxTextLength = 4096
	DefaultLimit  = 10
	MaxLimit      = 500
)

var filterKeyRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// Query is a validated similarity search query. Exactly one of vector and
// text is set; a text query is embedded before hitting the index.
type Query struct {
	vector    []float32
	text      string
	limit     int
	threshold float64
	filter    map[string]string
}

// New validates and normalizes search parameters.
// Defaults: limit=10, clamped to 500. Threshold is clamped into [0, 1]
// rather than rejected. The filter restricts candidates to records whose
// tags equal every given pair.
func New(vec []float32, text string, limit int, threshold float64, filter map[string]string) (Query, error) {
	if len(vec) == 0 && text == "" {
		return Query{}, fmt.Errorf("query vector or text is required: %w", domain.ErrInvalidVector)
	}
	if len(vec) > 0 && text != "" {
		return Query{}, fmt.Errorf("query vector and text are mutually exclusive: %w", domain.ErrInvalidVector)
	}
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query text too long (max %d chars): %w", MaxTextLength, domain.ErrInvalidVector)
	}
	if len(vec) > 0 {
		if err := vector.Validate(vec); err != nil {
			return Query{}, fmt.Errorf("query vector: %w", err)
		}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	for k, v := range filter {
		if !filterKeyRegex.MatchString(k) {
			return Query{}, fmt.Errorf("filter key %q must match %s: %w", k, filterKeyRegex.String(), domain.ErrInvalidMetadata)
		}
		if strings.ContainsRune(v, ',') {
			return Query{}, fmt.Errorf("filter %q value contains a comma: %w", k, domain.ErrInvalidMetadata)
		}
	}

	return Query{
		vector:    vector.Clone(vec),
		text:      text,
		limit:     limit,
		threshold: vector.ClampScore(threshold),
		filter:    cloneFilter(filter),
	}, nil
}

// Vector returns the query vector, nil for text queries.
func (q *Query) Vector() []float32 { return q.vector }

// Text returns the raw query text, empty for vector queries.
func (q *Query) Text() string { return q.text }

// Limit returns the maximum number of hits to return.
func (q *Query) Limit() int { return q.limit }

// Threshold returns the minimum similarity, already clamped into [0, 1].
func (q *Query) Threshold() float64 { return q.threshold }

// Filter returns the tag equality constraints.
func (q *Query) Filter() map[string]string { return q.filter }

// WithVector returns a copy with the resolved vector attached (text queries
// after embedding).
func (q *Query) WithVector(vec []float32) Query {
	return Query{
		vector:    vec,
		text:      q.text,
		limit:     q.limit,
		threshold: q.threshold,
		filter:    q.filter,
	}
}

func cloneFilter(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
