package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain/namespace"
	"github.com/kailas-cloud/rankdex/internal/domain/record"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	ensureNamespaceFn func(ctx context.Context, ns string, dim int) error
	namespaceDimFn    func(ctx context.Context, ns string) (int, bool, error)
	dropNamespaceFn   func(ctx context.Context, ns string) (bool, error)
	upsertVectorFn    func(ctx context.Context, ns string, rec db.VectorRecord) error
	getVectorFn       func(ctx context.Context, ns, id string) (db.VectorRecord, error)
	deleteVectorFn    func(ctx context.Context, ns, id string) (bool, error)
	listVectorsFn     func(ctx context.Context, ns string, q db.ListQuery) ([]db.VectorRecord, error)
	searchVectorsFn   func(ctx context.Context, ns string, q db.SearchQuery) ([]db.VectorMatch, error)
	countVectorsFn    func(ctx context.Context, ns string) (int, error)
}

func (m *mockStore) EnsureNamespace(ctx context.Context, ns string, dim int) error {
	if m.ensureNamespaceFn != nil {
		return m.ensureNamespaceFn(ctx, ns, dim)
	}
	return nil
}

func (m *mockStore) NamespaceDim(ctx context.Context, ns string) (int, bool, error) {
	if m.namespaceDimFn != nil {
		return m.namespaceDimFn(ctx, ns)
	}
	return 0, false, nil
}

func (m *mockStore) DropNamespace(ctx context.Context, ns string) (bool, error) {
	if m.dropNamespaceFn != nil {
		return m.dropNamespaceFn(ctx, ns)
	}
	return false, nil
}

func (m *mockStore) UpsertVector(ctx context.Context, ns string, rec db.VectorRecord) error {
	if m.upsertVectorFn != nil {
		return m.upsertVectorFn(ctx, ns, rec)
	}
	return nil
}

func (m *mockStore) GetVector(ctx context.Context, ns, id string) (db.VectorRecord, error) {
	if m.getVectorFn != nil {
		return m.getVectorFn(ctx, ns, id)
	}
	return db.VectorRecord{}, db.ErrKeyNotFound
}

func (m *mockStore) DeleteVector(ctx context.Context, ns, id string) (bool, error) {
	if m.deleteVectorFn != nil {
		return m.deleteVectorFn(ctx, ns, id)
	}
	return false, nil
}

func (m *mockStore) ListVectors(ctx context.Context, ns string, q db.ListQuery) ([]db.VectorRecord, error) {
	if m.listVectorsFn != nil {
		return m.listVectorsFn(ctx, ns, q)
	}
	return nil, nil
}

func (m *mockStore) SearchVectors(ctx context.Context, ns string, q db.SearchQuery) ([]db.VectorMatch, error) {
	if m.searchVectorsFn != nil {
		return m.searchVectorsFn(ctx, ns, q)
	}
	return nil, nil
}

func (m *mockStore) CountVectors(ctx context.Context, ns string) (int, error) {
	if m.countVectorsFn != nil {
		return m.countVectorsFn(ctx, ns)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

func testNamespace(t *testing.T) namespace.Namespace {
	t.Helper()
	ns, err := namespace.New("tenant-a")
	if err != nil {
		t.Fatalf("namespace: %v", err)
	}
	return ns
}

func testRecord(t *testing.T, id string, vec []float32) record.Record {
	t.Helper()
	rec, err := record.New(id, "some text", map[string]string{"env": "prod"}, nil)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	return rec.WithVector(vec)
}
