package record

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain"
	dombatch "github.com/kailas-cloud/rankdex/internal/domain/batch"
	"github.com/kailas-cloud/rankdex/internal/domain/namespace"
	domrec "github.com/kailas-cloud/rankdex/internal/domain/record"
)

// --- Mocks ---

type mockRepo struct {
	upserted  []domrec.Record
	upsertErr error

	getRec   domrec.Record
	getFound bool
	getErr   error

	deleted   bool
	deleteErr error

	listRecs   []domrec.Record
	listErr    error
	lastFilter map[string]string
	lastLimit  int
	lastOffset int

	count    int
	countErr error

	dropped bool
	dropErr error

	lastNS string
}

func (m *mockRepo) Upsert(_ context.Context, ns namespace.Namespace, rec domrec.Record) error {
	m.lastNS = ns.Name()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserted = append(m.upserted, rec)
	return nil
}

func (m *mockRepo) Get(_ context.Context, ns namespace.Namespace, _ string) (domrec.Record, bool, error) {
	m.lastNS = ns.Name()
	return m.getRec, m.getFound, m.getErr
}

func (m *mockRepo) Delete(_ context.Context, ns namespace.Namespace, _ string) (bool, error) {
	m.lastNS = ns.Name()
	return m.deleted, m.deleteErr
}

func (m *mockRepo) List(
	_ context.Context, ns namespace.Namespace, filter map[string]string, limit, offset int,
) ([]domrec.Record, error) {
	m.lastNS = ns.Name()
	m.lastFilter = filter
	m.lastLimit = limit
	m.lastOffset = offset
	return m.listRecs, m.listErr
}

func (m *mockRepo) Count(_ context.Context, ns namespace.Namespace) (int, error) {
	m.lastNS = ns.Name()
	return m.count, m.countErr
}

func (m *mockRepo) Drop(_ context.Context, ns namespace.Namespace) (bool, error) {
	m.lastNS = ns.Name()
	return m.dropped, m.dropErr
}

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErr   error
	embedCalls int
	batchCalls int
	lastTexts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.embedCalls++
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	m.lastTexts = texts
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = m.result.Embedding
	}
	return domain.BatchEmbeddingResult{
		Embeddings:  embeddings,
		TotalTokens: m.result.TotalTokens * len(texts),
	}, nil
}

func newTestService() (*Service, *mockRepo, *mockEmbedder) {
	repo := &mockRepo{}
	embed := &mockEmbedder{result: domain.EmbeddingResult{
		Embedding:   []float32{0.1, 0.2, 0.3},
		TotalTokens: 5,
	}}
	return New(repo, embed), repo, embed
}

// --- Upsert ---

func TestUpsert_WithVector(t *testing.T) {
	svc, repo, embed := newTestService()

	rec, err := svc.Upsert(context.Background(), "tenant-a", UpsertParams{
		ID:     "doc-1",
		Vector: []float32{1, 2, 3, 4},
		Tags:   map[string]string{"env": "prod"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID() != "doc-1" {
		t.Errorf("expected effective id doc-1, got %q", rec.ID())
	}
	if embed.embedCalls != 0 {
		t.Errorf("expected no embedding for vector upsert, got %d calls", embed.embedCalls)
	}
	if len(repo.upserted) != 1 || repo.upserted[0].Dim() != 4 {
		t.Fatalf("expected stored record with dim 4, got %+v", repo.upserted)
	}
	if repo.lastNS != "tenant-a" {
		t.Errorf("expected namespace tenant-a, got %q", repo.lastNS)
	}
}

func TestUpsert_GeneratesID(t *testing.T) {
	svc, repo, _ := newTestService()

	rec, err := svc.Upsert(context.Background(), "tenant-a", UpsertParams{
		Vector: []float32{1, 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.ID()) != 36 || strings.Count(rec.ID(), "-") != 4 {
		t.Errorf("expected generated uuid, got %q", rec.ID())
	}
	if repo.upserted[0].ID() != rec.ID() {
		t.Errorf("stored id %q differs from returned %q", repo.upserted[0].ID(), rec.ID())
	}
}

func TestUpsert_EmbedsDocument(t *testing.T) {
	svc, repo, embed := newTestService()

	rec, err := svc.Upsert(context.Background(), "tenant-a", UpsertParams{
		ID:       "doc-1",
		Document: "some text",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if embed.embedCalls != 1 {
		t.Fatalf("expected 1 embed call, got %d", embed.embedCalls)
	}
	if rec.Dim() != 3 {
		t.Errorf("expected derived vector dim 3, got %d", rec.Dim())
	}
	if len(repo.upserted) != 1 || repo.upserted[0].Dim() != 3 {
		t.Fatalf("expected stored record with derived vector, got %+v", repo.upserted)
	}
}

func TestUpsert_RequiresVectorOrDocument(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Upsert(context.Background(), "tenant-a", UpsertParams{ID: "doc-1"})
	if !errors.Is(err, domain.ErrInvalidVector) {
		t.Fatalf("expected ErrInvalidVector, got %v", err)
	}
	if len(repo.upserted) != 0 {
		t.Error("nothing must be stored on validation failure")
	}
}

func TestUpsert_InvalidNamespace(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Upsert(context.Background(), "bad namespace!", UpsertParams{
		ID: "doc-1", Vector: []float32{1},
	})
	if !errors.Is(err, domain.ErrInvalidNamespace) {
		t.Fatalf("expected ErrInvalidNamespace, got %v", err)
	}
	if len(repo.upserted) != 0 {
		t.Error("nothing must be stored on validation failure")
	}
}

func TestUpsert_InvalidID(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Upsert(context.Background(), "tenant-a", UpsertParams{
		ID: "no spaces allowed", Vector: []float32{1},
	})
	if !errors.Is(err, domain.ErrInvalidRecordID) {
		t.Fatalf("expected ErrInvalidRecordID, got %v", err)
	}
}

func TestUpsert_EmbedError(t *testing.T) {
	svc, repo, embed := newTestService()
	embed.err = errors.New("provider down")

	_, err := svc.Upsert(context.Background(), "tenant-a", UpsertParams{
		ID: "doc-1", Document: "text",
	})
	if err == nil {
		t.Fatal("expected error from embedder")
	}
	if len(repo.upserted) != 0 {
		t.Error("nothing must be stored when embedding fails")
	}
}

func TestUpsert_NoEmbedderConfigured(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, nil)

	_, err := svc.Upsert(context.Background(), "tenant-a", UpsertParams{
		ID: "doc-1", Document: "text",
	})
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}

	// Самодостаточные записи с вектором работают без эмбеддера.
	_, err = svc.Upsert(context.Background(), "tenant-a", UpsertParams{
		ID: "doc-2", Vector: []float32{1},
	})
	if err != nil {
		t.Fatalf("vector upsert must not need an embedder: %v", err)
	}
}

func TestUpsert_RepoError(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.upsertErr = errors.New("store down")

	_, err := svc.Upsert(context.Background(), "tenant-a", UpsertParams{
		ID: "doc-1", Vector: []float32{1},
	})
	if err == nil || !strings.Contains(err.Error(), "store down") {
		t.Fatalf("expected store error, got %v", err)
	}
}

// --- Get / Delete / List / Count / Drop ---

func TestGet_Found(t *testing.T) {
	svc, repo, _ := newTestService()
	stored, _ := domrec.New("doc-1", "text", nil, nil)
	repo.getRec = stored
	repo.getFound = true

	rec, found, err := svc.Get(context.Background(), "tenant-a", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found || rec.ID() != "doc-1" {
		t.Fatalf("expected found doc-1, got found=%v id=%q", found, rec.ID())
	}
}

func TestGet_Missing(t *testing.T) {
	svc, _, _ := newTestService()

	_, found, err := svc.Get(context.Background(), "tenant-a", "ghost")
	if err != nil {
		t.Fatalf("missing record must not error: %v", err)
	}
	if found {
		t.Error("expected found=false")
	}
}

func TestGet_RequiresID(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Get(context.Background(), "tenant-a", "")
	if !errors.Is(err, domain.ErrInvalidRecordID) {
		t.Fatalf("expected ErrInvalidRecordID, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.deleted = true

	deleted, err := svc.Delete(context.Background(), "tenant-a", "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected deleted=true")
	}

	repo.deleted = false
	deleted, err = svc.Delete(context.Background(), "tenant-a", "doc-1")
	if err != nil {
		t.Fatalf("second delete must not error: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false on repeat")
	}
}

func TestList_PassesThrough(t *testing.T) {
	svc, repo, _ := newTestService()
	stored, _ := domrec.New("doc-1", "", nil, nil)
	repo.listRecs = []domrec.Record{stored}

	records, err := svc.List(context.Background(), "tenant-a",
		map[string]string{"env": "prod"}, 25, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if repo.lastFilter["env"] != "prod" || repo.lastLimit != 25 || repo.lastOffset != 50 {
		t.Errorf("query not passed through: filter=%v limit=%d offset=%d",
			repo.lastFilter, repo.lastLimit, repo.lastOffset)
	}
}

func TestList_PaginationClamping(t *testing.T) {
	svc, repo, _ := newTestService()
	svc.WithPagination(20, 100)

	if _, err := svc.List(context.Background(), "tenant-a", nil, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != 20 {
		t.Errorf("zero limit must fall back to the default page size, got %d", repo.lastLimit)
	}

	if _, err := svc.List(context.Background(), "tenant-a", nil, 5000, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != 100 {
		t.Errorf("limit must clamp to the max page size, got %d", repo.lastLimit)
	}
}

func TestCount(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.count = 42

	count, err := svc.Count(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 42 {
		t.Errorf("expected 42, got %d", count)
	}
}

func TestDrop(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.dropped = true

	dropped, err := svc.Drop(context.Background(), "tenant-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dropped {
		t.Error("expected dropped=true")
	}
}

// --- UpsertBatch ---

func TestUpsertBatch_PerItemOutcomes(t *testing.T) {
	svc, repo, embed := newTestService()

	results := svc.UpsertBatch(context.Background(), "tenant-a", []UpsertParams{
		{ID: "with-vector", Vector: []float32{1, 2, 3}},
		{ID: "bad id!", Vector: []float32{1}},
		{ID: "with-text", Document: "embed me"},
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Status() != dombatch.StatusOK {
		t.Errorf("item 0: expected ok, got %v (%v)", results[0].Status(), results[0].Err())
	}
	if results[1].Status() != dombatch.StatusError || !errors.Is(results[1].Err(), domain.ErrInvalidRecordID) {
		t.Errorf("item 1: expected invalid id error, got %v", results[1].Err())
	}
	if results[2].Status() != dombatch.StatusOK {
		t.Errorf("item 2: expected ok, got %v (%v)", results[2].Status(), results[2].Err())
	}

	if embed.batchCalls != 1 {
		t.Errorf("expected 1 batch embed call, got %d", embed.batchCalls)
	}
	if len(embed.lastTexts) != 1 || embed.lastTexts[0] != "embed me" {
		t.Errorf("expected only the text item embedded, got %v", embed.lastTexts)
	}
	if len(repo.upserted) != 2 {
		t.Errorf("expected 2 stored records, got %d", len(repo.upserted))
	}
	if dombatch.OKCount(results) != 2 {
		t.Errorf("expected 2 ok items, got %d", dombatch.OKCount(results))
	}
}

func TestUpsertBatch_GeneratedIDsReported(t *testing.T) {
	svc, _, _ := newTestService()

	results := svc.UpsertBatch(context.Background(), "tenant-a", []UpsertParams{
		{Vector: []float32{1}},
	})
	if results[0].Status() != dombatch.StatusOK {
		t.Fatalf("expected ok, got %v", results[0].Err())
	}
	if len(results[0].ID()) != 36 {
		t.Errorf("expected generated uuid in result, got %q", results[0].ID())
	}
}

func TestUpsertBatch_TooLarge(t *testing.T) {
	svc, repo, _ := newTestService()
	svc.WithMaxBatchSize(2)

	items := []UpsertParams{
		{ID: "a", Vector: []float32{1}},
		{ID: "b", Vector: []float32{1}},
		{ID: "c", Vector: []float32{1}},
	}
	results := svc.UpsertBatch(context.Background(), "tenant-a", items)

	for i, r := range results {
		if r.Status() != dombatch.StatusError || !errors.Is(r.Err(), domain.ErrBatchTooLarge) {
			t.Errorf("item %d: expected ErrBatchTooLarge, got %v", i, r.Err())
		}
	}
	if len(repo.upserted) != 0 {
		t.Error("nothing must be stored for an oversized batch")
	}
}

func TestUpsertBatch_EmbedFailureFailsOnlyTextItems(t *testing.T) {
	svc, repo, embed := newTestService()
	embed.batchErr = errors.New("api down")

	results := svc.UpsertBatch(context.Background(), "tenant-a", []UpsertParams{
		{ID: "with-vector", Vector: []float32{1, 2}},
		{ID: "with-text", Document: "embed me"},
	})

	if results[0].Status() != dombatch.StatusOK {
		t.Errorf("vector item must succeed, got %v (%v)", results[0].Status(), results[0].Err())
	}
	if results[1].Status() != dombatch.StatusError {
		t.Error("text item must fail when embedding fails")
	}
	if len(repo.upserted) != 1 {
		t.Errorf("expected 1 stored record, got %d", len(repo.upserted))
	}
}

func TestUpsertBatch_InvalidNamespace(t *testing.T) {
	svc, _, _ := newTestService()

	results := svc.UpsertBatch(context.Background(), "", []UpsertParams{
		{ID: "a", Vector: []float32{1}},
	})
	if !errors.Is(results[0].Err(), domain.ErrInvalidNamespace) {
		t.Fatalf("expected ErrInvalidNamespace, got %v", results[0].Err())
	}
}

func TestUpsertBatch_Empty(t *testing.T) {
	svc, _, embed := newTestService()

	results := svc.UpsertBatch(context.Background(), "tenant-a", nil)
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
	if embed.batchCalls != 0 {
		t.Errorf("expected no embed calls, got %d", embed.batchCalls)
	}
}
