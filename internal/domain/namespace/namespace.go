// Package namespace defines the tenant isolation key for vector records.
package namespace

import (
	"fmt"
	"regexp"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// MaxNameLength is the maximum namespace key length in bytes.
const MaxNameLength = 128

// Namespace is a validated isolation key. Tenant resolution happens upstream;
// here it is an opaque string that scopes every record and query.
type Namespace struct {
	name string
}

// New validates and creates a Namespace.
func New(name string) (Namespace, error) {
	if name == "" {
		return Namespace{}, fmt.Errorf("namespace is required: %w", domain.ErrInvalidNamespace)
	}
	if len(name) > MaxNameLength {
		return Namespace{}, fmt.Errorf("namespace too long (max %d): %w", MaxNameLength, domain.ErrInvalidNamespace)
	}
	if !nameRegex.MatchString(name) {
		return Namespace{}, fmt.Errorf("namespace must match %s: %w", nameRegex.String(), domain.ErrInvalidNamespace)
	}
	return Namespace{name: name}, nil
}

// Name returns the namespace key.
func (n Namespace) Name() string { return n.name }

// IsZero reports whether the namespace was never constructed.
func (n Namespace) IsZero() bool { return n.name == "" }
