// Package record defines the vector record aggregate stored in a namespace.
package record

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

var (
	idRegex  = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
	keyRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
)

// MaxDocumentSize is the maximum document text size in bytes.
const MaxDocumentSize = 163840 // 160KB

// Record is the vector record aggregate (immutable value object).
// Metadata is a closed tagged shape: string tags for equality filtering and
// float64 numerics for ranking factor inputs.
type Record struct {
	id       string
	document string
	tags     map[string]string
	numerics map[string]float64
	vector   []float32
}

// New validates and creates a Record. The vector is attached separately via
// SetVector/WithVector once computed or validated, so text-only upserts can
// construct the record before embedding.
// ID: ^[a-zA-Z0-9_.:-]+$, 1-256 bytes. Document: optional, max 160KB.
// Tag values must not contain commas (reserved as the tag-set separator).
func New(id, document string, tags map[string]string, numerics map[string]float64) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record ID is required: %w", domain.ErrInvalidRecordID)
	}
	if len(id) > 256 {
		return Record{}, fmt.Errorf("record ID too long (max 256): %w", domain.ErrInvalidRecordID)
	}
	if !idRegex.MatchString(id) {
		return Record{}, fmt.Errorf("record ID must match %s: %w", idRegex.String(), domain.ErrInvalidRecordID)
	}
	if len(document) > MaxDocumentSize {
		return Record{}, fmt.Errorf("document too large (max %d bytes): %w", MaxDocumentSize, domain.ErrInvalidMetadata)
	}
	for k, v := range tags {
		if !keyRegex.MatchString(k) {
			return Record{}, fmt.Errorf("tag key %q must match %s: %w", k, keyRegex.String(), domain.ErrInvalidMetadata)
		}
		if strings.ContainsRune(v, ',') {
			return Record{}, fmt.Errorf("tag %q value contains a comma: %w", k, domain.ErrInvalidMetadata)
		}
	}
	for k, v := range numerics {
		if !keyRegex.MatchString(k) {
			return Record{}, fmt.Errorf("numeric key %q must match %s: %w", k, keyRegex.String(), domain.ErrInvalidMetadata)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Record{}, fmt.Errorf("numeric %q is not finite: %w", k, domain.ErrInvalidMetadata)
		}
	}

	return Record{
		id:       id,
		document: document,
		tags:     cloneStringMap(tags),
		numerics: cloneFloat64Map(numerics),
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	id, document string, tags map[string]string, numerics map[string]float64,
	vector []float32,
) Record {
	return Record{id: id, document: document, tags: tags, numerics: numerics, vector: vector}
}

// ID returns the record identifier.
func (r *Record) ID() string { return r.id }

// Document returns the original text the vector was derived from.
func (r *Record) Document() string { return r.document }

// Tags returns the string metadata fields.
func (r *Record) Tags() map[string]string { return r.tags }

// Numerics returns the numeric metadata fields.
func (r *Record) Numerics() map[string]float64 { return r.numerics }

// Vector returns the embedding vector.
func (r *Record) Vector() []float32 { return r.vector }

// Dim returns the vector length, 0 when no vector is attached.
func (r *Record) Dim() int { return len(r.vector) }

// WithVector returns a copy with the given vector set.
func (r *Record) WithVector(v []float32) Record {
	return Record{
		id: r.id, document: r.document, tags: r.tags, numerics: r.numerics,
		vector: v,
	}
}

// SetVector sets the vector in place (mutation).
func (r *Record) SetVector(v []float32) { r.vector = v }

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	c := make(map[string]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneFloat64Map(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
