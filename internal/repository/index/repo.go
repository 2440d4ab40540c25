// Package index adapts the backing store to the namespace-scoped record
// operations the usecases work with: dimensionality arbitration, absence as
// a bool, threshold filtering and deadline classification live here.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/domain/namespace"
	"github.com/kailas-cloud/rankdex/internal/domain/record"
	"github.com/kailas-cloud/rankdex/internal/domain/search/query"
	"github.com/kailas-cloud/rankdex/internal/domain/search/result"
)

// List pagination bounds.
const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// store is the consumer interface for vector persistence (ISP).
type store interface {
	EnsureNamespace(ctx context.Context, ns string, dim int) error
	NamespaceDim(ctx context.Context, ns string) (int, bool, error)
	DropNamespace(ctx context.Context, ns string) (bool, error)
	UpsertVector(ctx context.Context, ns string, rec db.VectorRecord) error
	GetVector(ctx context.Context, ns, id string) (db.VectorRecord, error)
	DeleteVector(ctx context.Context, ns, id string) (bool, error)
	ListVectors(ctx context.Context, ns string, q db.ListQuery) ([]db.VectorRecord, error)
	SearchVectors(ctx context.Context, ns string, q db.SearchQuery) ([]db.VectorMatch, error)
	CountVectors(ctx context.Context, ns string) (int, error)
}

// Repo implements the usecase-facing index repository.
type Repo struct {
	store store
}

// New creates an index repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Upsert stores a record, establishing the namespace dimensionality on first
// write. A record whose vector length differs from the established dim fails
// with domain.DimensionError before anything is written.
func (r *Repo) Upsert(ctx context.Context, ns namespace.Namespace, rec record.Record) error {
	if rec.Dim() == 0 {
		return fmt.Errorf("record %q has no vector: %w", rec.ID(), domain.ErrInvalidVector)
	}

	if err := r.store.EnsureNamespace(ctx, ns.Name(), rec.Dim()); err != nil {
		if errors.Is(err, db.ErrDimConflict) {
			return r.dimConflict(ctx, ns.Name(), rec.Dim(), err)
		}
		return wrapStoreErr(fmt.Sprintf("ensure namespace %s", ns.Name()), err)
	}

	if err := r.store.UpsertVector(ctx, ns.Name(), toStored(rec)); err != nil {
		return wrapStoreErr(fmt.Sprintf("upsert %s/%s", ns.Name(), rec.ID()), err)
	}
	return nil
}

// Get fetches a record. A missing record (or namespace) reports found=false,
// never an error.
func (r *Repo) Get(ctx context.Context, ns namespace.Namespace, id string) (record.Record, bool, error) {
	stored, err := r.store.GetVector(ctx, ns.Name(), id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return record.Record{}, false, nil
		}
		return record.Record{}, false, wrapStoreErr(fmt.Sprintf("get %s/%s", ns.Name(), id), err)
	}
	return fromStored(stored), true, nil
}

// Delete removes a record, reporting whether it existed.
func (r *Repo) Delete(ctx context.Context, ns namespace.Namespace, id string) (bool, error) {
	existed, err := r.store.DeleteVector(ctx, ns.Name(), id)
	if err != nil {
		return false, wrapStoreErr(fmt.Sprintf("delete %s/%s", ns.Name(), id), err)
	}
	return existed, nil
}

// List enumerates records with optional tag filtering and offset pagination.
func (r *Repo) List(
	ctx context.Context, ns namespace.Namespace,
	filter map[string]string, limit, offset int,
) ([]record.Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	stored, err := r.store.ListVectors(ctx, ns.Name(), db.ListQuery{
		Filter: filter,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("list %s", ns.Name()), err)
	}

	records := make([]record.Record, 0, len(stored))
	for _, sr := range stored {
		records = append(records, fromStored(sr))
	}
	return records, nil
}

// Search runs the KNN query and converts matches into hits. Hits strictly
// below the query threshold are dropped; the threshold itself still passes.
// Candidates outside the KNN window score below every in-window candidate,
// so filtering after the fetch loses nothing.
func (r *Repo) Search(ctx context.Context, ns namespace.Namespace, q query.Query) ([]result.Hit, error) {
	if len(q.Vector()) == 0 {
		return nil, fmt.Errorf("query vector not resolved: %w", domain.ErrInvalidVector)
	}

	matches, err := r.store.SearchVectors(ctx, ns.Name(), db.SearchQuery{
		Vector: q.Vector(),
		Limit:  q.Limit(),
		Filter: q.Filter(),
	})
	if err != nil {
		return nil, wrapStoreErr(fmt.Sprintf("search %s", ns.Name()), err)
	}

	hits := make([]result.Hit, 0, len(matches))
	for _, m := range matches {
		if m.Score < q.Threshold() {
			continue
		}
		hits = append(hits, toHit(m))
	}

	// Drivers return matches nearest-first already; the stable re-sort pins
	// the contract down without reshuffling driver tie order.
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Similarity() > hits[j].Similarity() })

	return hits, nil
}

// Count returns the number of records in the namespace, 0 when it has never
// been written.
func (r *Repo) Count(ctx context.Context, ns namespace.Namespace) (int, error) {
	n, err := r.store.CountVectors(ctx, ns.Name())
	if err != nil {
		return 0, wrapStoreErr(fmt.Sprintf("count %s", ns.Name()), err)
	}
	return n, nil
}

// Drop removes the namespace with all its records, reporting whether it
// existed.
func (r *Repo) Drop(ctx context.Context, ns namespace.Namespace) (bool, error) {
	existed, err := r.store.DropNamespace(ctx, ns.Name())
	if err != nil {
		return false, wrapStoreErr(fmt.Sprintf("drop %s", ns.Name()), err)
	}
	return existed, nil
}

// Dim reports the established dimensionality, ok=false for an unwritten
// namespace.
func (r *Repo) Dim(ctx context.Context, ns namespace.Namespace) (int, bool, error) {
	dim, ok, err := r.store.NamespaceDim(ctx, ns.Name())
	if err != nil {
		return 0, false, wrapStoreErr(fmt.Sprintf("namespace dim %s", ns.Name()), err)
	}
	return dim, ok, nil
}

// dimConflict rebuilds the structured mismatch error from the established
// dim. Falls back to the store error when the read-back itself fails.
func (r *Repo) dimConflict(ctx context.Context, ns string, got int, cause error) error {
	want, ok, err := r.store.NamespaceDim(ctx, ns)
	if err != nil || !ok {
		return wrapStoreErr(fmt.Sprintf("ensure namespace %s", ns), cause)
	}
	return domain.NewDimensionError(want, got)
}

// wrapStoreErr classifies backend failures: deadline expiry surfaces as
// domain.ErrTimeout so callers can map it without unpacking driver errors.
func wrapStoreErr(msg string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", msg, domain.ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
