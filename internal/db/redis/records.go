package redis

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/rankdex/internal/db"
)

// UpsertVector stores a record hash, replacing any previous version. The
// caller establishes the namespace via EnsureNamespace first so the index
// picks the write up.
func (s *Store) UpsertVector(ctx context.Context, ns string, rec db.VectorRecord) error {
	cmd := s.b().Hset().Key(recordKey(ns, rec.ID)).FieldValue()
	for k, v := range recordFields(rec) {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// GetVector fetches a record by ID. Returns db.ErrKeyNotFound when absent.
func (s *Store) GetVector(ctx context.Context, ns, id string) (db.VectorRecord, error) {
	cmd := s.b().Hgetall().Key(recordKey(ns, id)).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return db.VectorRecord{}, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	// HGETALL on a missing key yields an empty map, not a nil reply.
	if len(m) == 0 {
		return db.VectorRecord{}, db.ErrKeyNotFound
	}

	rec, err := recordFromFields(id, m)
	if err != nil {
		return db.VectorRecord{}, fmt.Errorf("decode record %q: %w", id, err)
	}
	return rec, nil
}

// DeleteVector removes a record, reporting whether it existed.
func (s *Store) DeleteVector(ctx context.Context, ns, id string) (bool, error) {
	cmd := s.b().Del().Key(recordKey(ns, id)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpDel, Err: err}
	}
	return n > 0, nil
}
