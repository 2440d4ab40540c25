package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/rankdex/internal/db"
)

// EnsureNamespace establishes a namespace with the given dimensionality.
// The first caller wins via HSETNX; a later caller with a different dim gets
// db.ErrDimConflict. The call is idempotent for the established dim.
func (s *Store) EnsureNamespace(ctx context.Context, ns string, dim int) error {
	cmd := s.b().Hsetnx().Key(metaKey(ns)).Field(metaFieldDim).Value(strconv.Itoa(dim)).Build()
	won, err := s.do(ctx, cmd).AsBool()
	if err != nil {
		return &db.Error{Op: db.OpHSetNX, Err: err}
	}

	if !won {
		have, ok, err := s.NamespaceDim(ctx, ns)
		if err != nil {
			return err
		}
		if ok && have != dim {
			return fmt.Errorf("namespace %q: established dim %d, got %d: %w", ns, have, dim, db.ErrDimConflict)
		}
	}

	// FT.CREATE runs on every call; tolerating "already exists" closes the
	// gap left by a writer that stopped between meta write and index build.
	if err := s.createIndex(ctx, s.indexSpec(ns, dim)); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return err
	}
	return nil
}

// NamespaceDim reports the established dimensionality, or false when the
// namespace has never been written.
func (s *Store) NamespaceDim(ctx context.Context, ns string) (int, bool, error) {
	cmd := s.b().Hget().Key(metaKey(ns)).Field(metaFieldDim).Build()
	raw, err := s.do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return 0, false, nil
		}
		return 0, false, &db.Error{Op: db.OpHGet, Err: err}
	}

	dim, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("namespace %q: parse dim: %w", ns, err)
	}
	return dim, true, nil
}

// DropNamespace removes the namespace index, its records (DD) and its meta
// hash. Returns false when the namespace did not exist.
func (s *Store) DropNamespace(ctx context.Context, ns string) (bool, error) {
	dropped := true
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(indexName(ns), "DD").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if !isRedisErr(err, "unknown index name") {
			return false, &db.Error{Op: db.OpDropIndex, Err: err}
		}
		dropped = false
	}

	delCmd := s.b().Del().Key(metaKey(ns)).Build()
	n, err := s.do(ctx, delCmd).AsInt64()
	if err != nil {
		return dropped, &db.Error{Op: db.OpDel, Err: err}
	}
	return dropped || n > 0, nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, ns string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(indexName(ns)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func (s *Store) indexSpec(ns string, dim int) *db.VectorIndexSpec {
	return &db.VectorIndexSpec{
		Name:        indexName(ns),
		Prefix:      recordPrefix(ns),
		Dim:         dim,
		Algo:        s.algo,
		Distance:    db.DistanceCosine,
		M:           s.m,
		EFConstruct: s.efConstruct,
	}
}

func (s *Store) createIndex(ctx context.Context, spec *db.VectorIndexSpec) error {
	args, err := buildCreateArgs(spec)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// buildCreateArgs renders the fixed per-namespace schema: one vector field
// plus one tag-set field holding the packed "k=v" pairs.
func buildCreateArgs(spec *db.VectorIndexSpec) ([]string, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	algo := spec.Algo
	if algo == "" {
		algo = db.VectorFlat
	}
	distance := spec.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(spec.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if algo == db.VectorHNSW {
		if spec.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(spec.M))
		}
		if spec.EFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(spec.EFConstruct))
		}
	}

	args := []string{spec.Name, "ON", "HASH", "PREFIX", "1", spec.Prefix, "SCHEMA"}
	args = append(args, fieldVector, "VECTOR", string(algo), strconv.Itoa(len(attrs)))
	args = append(args, attrs...)
	args = append(args, fieldTags, "TAG", "SEPARATOR", tagSeparator)

	return args, nil
}
