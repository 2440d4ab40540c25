// Package memory implements the backing-store contract in process. It is the
// default driver for embedded use and tests: brute-force cosine scan per
// namespace, exact results, suitable up to tens of thousands of vectors.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain/vector"
)

// Store holds every namespace index behind one instance. No ambient state:
// construct once at startup, share via the db.Store interface.
type Store struct {
	mu         sync.RWMutex
	namespaces map[string]*nsIndex
	kv         map[string]kvEntry
}

type nsIndex struct {
	dim     int
	records map[string]*storedRec
	nextSeq uint64
}

// storedRec keeps the insertion sequence so equal-similarity hits and list
// enumeration stay in deterministic first-written order.
type storedRec struct {
	rec db.VectorRecord
	seq uint64
}

type kvEntry struct {
	value    []byte
	expireAt time.Time // zero means no expiry
}

// New creates an empty in-process store.
func New() *Store {
	return &Store{
		namespaces: make(map[string]*nsIndex),
		kv:         make(map[string]kvEntry),
	}
}

// Ping reports readiness; an in-process store is ready unless the caller's
// context already expired.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// WaitForReady mirrors the remote-driver contract; nothing to wait for.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Close releases all held data.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespaces = make(map[string]*nsIndex)
	s.kv = make(map[string]kvEntry)
}

// EnsureNamespace creates the namespace pinned at dim, or verifies the pin.
// Concurrent first writers race here and exactly one dim wins.
func (s *Store) EnsureNamespace(ctx context.Context, ns string, dim int) error {
	if err := opErr(ctx, "memory.ensure"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.namespaces[ns]; ok {
		if idx.dim != dim {
			return &db.Error{Op: "memory.ensure", Err: fmt.Errorf("namespace %q pinned at dim %d, got %d: %w", ns, idx.dim, dim, db.ErrDimConflict)}
		}
		return nil
	}
	s.namespaces[ns] = &nsIndex{dim: dim, records: make(map[string]*storedRec)}
	return nil
}

// NamespaceDim returns the established dimensionality, ok=false when the
// namespace does not exist yet.
func (s *Store) NamespaceDim(ctx context.Context, ns string) (int, bool, error) {
	if err := opErr(ctx, "memory.dim"); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.namespaces[ns]
	if !ok {
		return 0, false, nil
	}
	return idx.dim, true, nil
}

// DropNamespace removes the namespace and all its records.
func (s *Store) DropNamespace(ctx context.Context, ns string) (bool, error) {
	if err := opErr(ctx, "memory.drop"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.namespaces[ns]
	delete(s.namespaces, ns)
	return ok, nil
}

// UpsertVector writes or replaces the record. The namespace must exist
// (EnsureNamespace runs first in the adapter); a dim mismatch here means a
// validation bug upstream and fails loudly rather than storing a vector the
// scan would silently score 0.
func (s *Store) UpsertVector(ctx context.Context, ns string, rec db.VectorRecord) error {
	if err := opErr(ctx, "memory.upsert"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.namespaces[ns]
	if !ok {
		return &db.Error{Op: "memory.upsert", Err: fmt.Errorf("namespace %q: %w", ns, db.ErrNamespaceNotFound)}
	}
	if len(rec.Vector) != idx.dim {
		return &db.Error{Op: "memory.upsert", Err: fmt.Errorf("namespace %q pinned at dim %d, got %d: %w", ns, idx.dim, len(rec.Vector), db.ErrDimConflict)}
	}

	seq := idx.nextSeq
	if prev, exists := idx.records[rec.ID]; exists {
		seq = prev.seq // replacement keeps its original position
	} else {
		idx.nextSeq++
	}
	idx.records[rec.ID] = &storedRec{rec: cloneRecord(rec), seq: seq}
	return nil
}

// GetVector returns the record or db.ErrKeyNotFound.
func (s *Store) GetVector(ctx context.Context, ns, id string) (db.VectorRecord, error) {
	if err := opErr(ctx, "memory.get"); err != nil {
		return db.VectorRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.namespaces[ns]
	if !ok {
		return db.VectorRecord{}, db.ErrKeyNotFound
	}
	sr, ok := idx.records[id]
	if !ok {
		return db.VectorRecord{}, db.ErrKeyNotFound
	}
	return cloneRecord(sr.rec), nil
}

// DeleteVector removes the record, reporting whether it existed.
func (s *Store) DeleteVector(ctx context.Context, ns, id string) (bool, error) {
	if err := opErr(ctx, "memory.delete"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.namespaces[ns]
	if !ok {
		return false, nil
	}
	if _, ok := idx.records[id]; !ok {
		return false, nil
	}
	delete(idx.records, id)
	return true, nil
}

// ListVectors enumerates filter-matching records in insertion order.
func (s *Store) ListVectors(ctx context.Context, ns string, q db.ListQuery) ([]db.VectorRecord, error) {
	if err := opErr(ctx, "memory.list"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.namespaces[ns]
	if !ok {
		return nil, nil
	}

	matched := make([]*storedRec, 0, len(idx.records))
	for _, sr := range idx.records {
		if matchesFilter(sr.rec.Tags, q.Filter) {
			matched = append(matched, sr)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].seq < matched[j].seq })

	if q.Offset >= len(matched) {
		return nil, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && q.Limit < len(matched) {
		matched = matched[:q.Limit]
	}

	out := make([]db.VectorRecord, len(matched))
	for i, sr := range matched {
		out[i] = cloneRecord(sr.rec)
	}
	return out, nil
}

// SearchVectors brute-force scans the namespace: cosine against every
// filter-matching record, descending score, ties in insertion order.
func (s *Store) SearchVectors(ctx context.Context, ns string, q db.SearchQuery) ([]db.VectorMatch, error) {
	if err := opErr(ctx, "memory.search"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.namespaces[ns]
	if !ok {
		return nil, nil
	}

	type scored struct {
		sr    *storedRec
		score float64
	}
	candidates := make([]scored, 0, len(idx.records))
	for _, sr := range idx.records {
		if !matchesFilter(sr.rec.Tags, q.Filter) {
			continue
		}
		candidates = append(candidates, scored{sr: sr, score: vector.Score(q.Vector, sr.rec.Vector)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].sr.seq < candidates[j].sr.seq
	})

	if q.Limit > 0 && q.Limit < len(candidates) {
		candidates = candidates[:q.Limit]
	}

	out := make([]db.VectorMatch, len(candidates))
	for i, c := range candidates {
		out[i] = db.VectorMatch{VectorRecord: cloneRecord(c.sr.rec), Score: c.score}
	}
	return out, nil
}

// CountVectors returns the number of records in the namespace.
func (s *Store) CountVectors(ctx context.Context, ns string) (int, error) {
	if err := opErr(ctx, "memory.count"); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.namespaces[ns]
	if !ok {
		return 0, nil
	}
	return len(idx.records), nil
}

// Get returns the KV value or db.ErrKeyNotFound; expired entries are absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := opErr(ctx, "memory.kvget"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	e, ok := s.kv[key]
	s.mu.RUnlock()

	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		s.mu.Lock()
		delete(s.kv, key)
		s.mu.Unlock()
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a KV value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a KV value; ttl<=0 means no expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := opErr(ctx, "memory.kvset"); err != nil {
		return err
	}
	v := make([]byte, len(value))
	copy(v, value)

	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.kv[key] = kvEntry{value: v, expireAt: expireAt}
	s.mu.Unlock()
	return nil
}

func opErr(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return &db.Error{Op: op, Err: err}
	}
	return nil
}

func matchesFilter(tags, filter map[string]string) bool {
	for k, want := range filter {
		if got, ok := tags[k]; !ok || got != want {
			return false
		}
	}
	return true
}

func cloneRecord(rec db.VectorRecord) db.VectorRecord {
	out := db.VectorRecord{
		ID:       rec.ID,
		Vector:   vector.Clone(rec.Vector),
		Document: rec.Document,
	}
	if rec.Tags != nil {
		out.Tags = make(map[string]string, len(rec.Tags))
		for k, v := range rec.Tags {
			out.Tags[k] = v
		}
	}
	if rec.Numerics != nil {
		out.Numerics = make(map[string]float64, len(rec.Numerics))
		for k, v := range rec.Numerics {
			out.Numerics[k] = v
		}
	}
	return out
}
