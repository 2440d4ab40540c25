package rankdex

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newMemoryClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestNew_DefaultMemory(t *testing.T) {
	c := newMemoryClient(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &clientConfig{driver: "unknown"}
	_, err := createStore(cfg)
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestClientOptions(t *testing.T) {
	cfg := &clientConfig{}

	WithRedis("localhost:6379", "secret")(cfg)
	if cfg.driver != "redis" {
		t.Errorf("driver = %q, want redis", cfg.driver)
	}
	if cfg.addrs[0] != "localhost:6379" {
		t.Errorf("addr = %q, want localhost:6379", cfg.addrs[0])
	}
	if cfg.password != "secret" {
		t.Errorf("password = %q, want secret", cfg.password)
	}

	WithHNSW(16, 200)(cfg)
	if cfg.hnswM != 16 || cfg.hnswEFConstruct != 200 {
		t.Errorf("hnsw = (%d, %d), want (16, 200)", cfg.hnswM, cfg.hnswEFConstruct)
	}

	WithCacheSize(64)(cfg)
	if cfg.cacheSize != 64 {
		t.Errorf("cacheSize = %d, want 64", cfg.cacheSize)
	}

	WithCacheTTL(time.Hour)(cfg)
	if cfg.cacheTTL != time.Hour {
		t.Errorf("cacheTTL = %v, want 1h", cfg.cacheTTL)
	}

	WithRecencyField("published_at")(cfg)
	WithRecencyHalfLife(24 * time.Hour)(cfg)
	if cfg.recencyField != "published_at" || cfg.recencyHalfLife != 24*time.Hour {
		t.Errorf("recency = (%q, %v)", cfg.recencyField, cfg.recencyHalfLife)
	}

	WithMaxBatchSize(500)(cfg)
	if cfg.maxBatchSize != 500 {
		t.Errorf("maxBatchSize = %d, want 500", cfg.maxBatchSize)
	}

	WithOpenAI("sk-test", "text-embedding-3-large", 256)(cfg)
	if cfg.openaiKey != "sk-test" || cfg.openaiModel != "text-embedding-3-large" || cfg.openaiDims != 256 {
		t.Errorf("openai = (%q, %q, %d)", cfg.openaiKey, cfg.openaiModel, cfg.openaiDims)
	}
}

func TestClient_Close_NilStore(t *testing.T) {
	// Close на клиенте с nil store не паникует.
	c := &Client{store: nil}
	c.Close()
}

func TestRecordsRoundtrip(t *testing.T) {
	c := newMemoryClient(t)
	records := c.Records("tenant-a")
	ctx := context.Background()

	id, err := records.Upsert(ctx, Record{
		ID:       "doc-1",
		Document: "hello world",
		Tags:     map[string]string{"env": "prod"},
		Numerics: map[string]float64{"importance": 0.8},
		Vector:   []float32{0.1, 0.2, 0.3},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if id != "doc-1" {
		t.Errorf("effective id = %q, want doc-1", id)
	}

	rec, found, err := records.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("record not found after upsert")
	}
	if rec.Document != "hello world" || rec.Tags["env"] != "prod" {
		t.Errorf("got %+v", rec)
	}
	if len(rec.Vector) != 3 {
		t.Errorf("vector len = %d, want 3", len(rec.Vector))
	}

	n, err := records.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	deleted, err := records.Delete(ctx, "doc-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted {
		t.Error("first delete = false, want true")
	}
	deleted, err = records.Delete(ctx, "doc-1")
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if deleted {
		t.Error("second delete = true, want false")
	}
}

func TestUpsert_GeneratedID(t *testing.T) {
	c := newMemoryClient(t)

	id, err := c.Records("tenant-a").Upsert(context.Background(), Record{
		Vector: []float32{1, 0},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("expected a generated uuid, got %q", id)
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	c := newMemoryClient(t)
	records := c.Records("tenant-a")
	ctx := context.Background()

	if _, err := records.Upsert(ctx, Record{ID: "a", Vector: []float32{1, 0, 0}}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	_, err := records.Upsert(ctx, Record{ID: "b", Vector: []float32{1, 0}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("err = %v, want ErrDimensionMismatch", err)
	}

	// Неудачная запись не меняет установленную размерность.
	if _, err := records.Upsert(ctx, Record{ID: "c", Vector: []float32{0, 1, 0}}); err != nil {
		t.Fatalf("3-dim upsert after rejected write: %v", err)
	}
}

func TestUpsert_InvalidNamespace(t *testing.T) {
	c := newMemoryClient(t)

	_, err := c.Records("bad ns").Upsert(context.Background(), Record{Vector: []float32{1}})
	if !errors.Is(err, ErrInvalidNamespace) {
		t.Fatalf("err = %v, want ErrInvalidNamespace", err)
	}
}

func TestNamespaceIsolation(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	if _, err := c.Records("tenant-a").Upsert(ctx, Record{ID: "x", Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	_, found, err := c.Records("tenant-b").Get(ctx, "x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if found {
		t.Error("record leaked across namespaces")
	}
}

func TestUpsertBatch(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	results, err := c.Records("tenant-a").UpsertBatch(ctx, []Record{
		{ID: "ok-1", Vector: []float32{1, 0}},
		{ID: "bad id!", Vector: []float32{0, 1}},
		{ID: "ok-2", Vector: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].OK || results[1].OK || !results[2].OK {
		t.Errorf("outcomes = %v %v %v, want ok/fail/ok", results[0].OK, results[1].OK, results[2].OK)
	}
	if !errors.Is(results[1].Err, ErrInvalidRecordID) {
		t.Errorf("item 1 err = %v, want ErrInvalidRecordID", results[1].Err)
	}
}

func TestUpsertBatch_TooLarge(t *testing.T) {
	c := newMemoryClient(t, WithMaxBatchSize(2))

	recs := []Record{
		{ID: "a", Vector: []float32{1}},
		{ID: "b", Vector: []float32{1}},
		{ID: "c", Vector: []float32{1}},
	}
	_, err := c.Records("tenant-a").UpsertBatch(context.Background(), recs)
	if !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("err = %v, want ErrBatchTooLarge", err)
	}
}

func TestDropNamespace(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()

	if _, err := c.Records("tenant-a").Upsert(ctx, Record{ID: "x", Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	dropped, err := c.Records("tenant-a").Drop(ctx)
	if err != nil {
		t.Fatalf("drop: %v", err)
	}
	if !dropped {
		t.Error("drop = false, want true")
	}

	// После drop namespace принимает новую размерность.
	if _, err := c.Records("tenant-a").Upsert(ctx, Record{ID: "y", Vector: []float32{1, 0, 0, 0}}); err != nil {
		t.Fatalf("upsert after drop: %v", err)
	}

	dropped, err = c.Records("tenant-b").Drop(ctx)
	if err != nil {
		t.Fatalf("drop absent: %v", err)
	}
	if dropped {
		t.Error("drop of absent namespace = true, want false")
	}
}

// Три вектора размерности 4, запрос ближе всего к b.
func TestSearch_ConcreteScenario(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()
	records := c.Records("tenant-a")

	seed := []Record{
		{ID: "a", Vector: []float32{1, 0, 0, 0}},
		{ID: "b", Vector: []float32{0.8, 0.6, 0, 0}},
		{ID: "c", Vector: []float32{0, 1, 0, 0}},
	}
	for _, rec := range seed {
		if _, err := records.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert %s: %v", rec.ID, err)
		}
	}

	results, err := c.Search("tenant-a").Query(ctx, []float32{0.8, 0.6, 0, 0}, &SearchOptions{
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].ID != "b" {
		t.Errorf("top hit = %q, want b", results[0].ID)
	}
	if results[1].Similarity > results[0].Similarity {
		t.Error("similarity not descending")
	}
}

func TestSearch_ThresholdMonotonicity(t *testing.T) {
	c := newMemoryClient(t)
	ctx := context.Background()
	records := c.Records("tenant-a")

	for _, rec := range []Record{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0.8, 0.6}},
		{ID: "c", Vector: []float32{0, 1}},
	} {
		if _, err := records.Upsert(ctx, rec); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	query := []float32{1, 0}
	prev := -1
	for _, th := range []float64{0, 0.5, 0.9, 1} {
		results, err := c.Search("tenant-a").Query(ctx, query, &SearchOptions{Threshold: th})
		if err != nil {
			t.Fatalf("threshold %v: %v", th, err)
		}
		if prev >= 0 && len(results) > prev {
			t.Errorf("raising threshold to %v grew results from %d to %d", th, prev, len(results))
		}
		prev = len(results)
	}
}

func TestSearchText_WithoutEmbedder(t *testing.T) {
	c := newMemoryClient(t)

	_, err := c.Search("tenant-a").QueryText(context.Background(), "hello", nil)
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("err = %v, want ErrNotInitialized", err)
	}
}

func TestSearchText_CachedEmbedder(t *testing.T) {
	emb := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{1, 0}, TotalTokens: 3}, nil
		},
	}
	c := newMemoryClient(t, WithEmbedder(emb))
	ctx := context.Background()

	if _, err := c.Records("tenant-a").Upsert(ctx, Record{ID: "a", Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := c.Search("tenant-a").QueryText(ctx, "hello", nil)
	if err != nil {
		t.Fatalf("first query: %v", err)
	}
	if len(results) != 1 || results[0].ID != "a" {
		t.Fatalf("got %+v, want the single record a", results)
	}

	st := c.CacheStats()
	if st.Misses != 1 || st.Hits != 0 || st.Entries != 1 {
		t.Errorf("after first query: %+v, want 1 miss / 0 hits / 1 entry", st)
	}

	again, err := c.Search("tenant-a").QueryText(ctx, "hello", nil)
	if err != nil {
		t.Fatalf("second query: %v", err)
	}
	if again[0].Similarity != results[0].Similarity {
		t.Error("cached embedding changed the similarity")
	}

	st = c.CacheStats()
	if st.Misses != 1 || st.Hits != 1 {
		t.Errorf("after second query: %+v, want 1 miss / 1 hit", st)
	}
	if emb.calls != 1 {
		t.Errorf("provider calls = %d, want 1", emb.calls)
	}
}

func TestSearchText_InstructionPrefix(t *testing.T) {
	var got string
	emb := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			got = text
			return EmbeddingResult{Embedding: []float32{1, 0}}, nil
		},
	}
	c := newMemoryClient(t, WithEmbedder(emb), WithInstruction("query: "))
	ctx := context.Background()

	if _, err := c.Records("tenant-a").Upsert(ctx, Record{ID: "a", Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := c.Search("tenant-a").QueryText(ctx, "hello", nil); err != nil {
		t.Fatalf("query: %v", err)
	}
	if got != "query: hello" {
		t.Errorf("embedded text = %q, want \"query: hello\"", got)
	}
}

func TestHealth(t *testing.T) {
	c := newMemoryClient(t)

	h := c.Health(context.Background())
	if h.Status != "ok" {
		t.Errorf("status = %q, want ok", h.Status)
	}
	if h.Checks["store"] != "ok" {
		t.Errorf("checks = %v", h.Checks)
	}
	if _, ok := h.Checks["embedding"]; ok {
		t.Error("embedding check present without an embedder")
	}
}

func TestHealth_DegradedEmbedder(t *testing.T) {
	c := newMemoryClient(t, WithEmbedder(&failingHealthEmbedder{}))

	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("status = %q, want degraded", h.Status)
	}
	if h.Checks["embedding"] != "error" {
		t.Errorf("checks = %v", h.Checks)
	}
}

func TestEmbedderAdapter(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{
				Embedding:    []float32{1, 2, 3},
				PromptTokens: 5,
				TotalTokens:  10,
			}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	result, err := adapter.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Embedding) != 3 {
		t.Errorf("embedding len = %d, want 3", len(result.Embedding))
	}
	if result.TotalTokens != 10 {
		t.Errorf("total tokens = %d, want 10", result.TotalTokens)
	}
}

func TestEmbedderAdapter_Error(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, _ string) (EmbeddingResult, error) {
			return EmbeddingResult{}, errors.New("provider down")
		},
	}

	adapter := &embedderAdapter{inner: mock}
	if _, err := adapter.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error from adapter")
	}
}

func TestEmbedderAdapter_BatchFallback(t *testing.T) {
	mock := &mockEmbedder{
		fn: func(_ context.Context, text string) (EmbeddingResult, error) {
			return EmbeddingResult{Embedding: []float32{float32(len(text))}, TotalTokens: 1}, nil
		},
	}

	adapter := &embedderAdapter{inner: mock}
	res, err := adapter.BatchEmbed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("batch embed: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("embeddings = %d, want 3", len(res.Embeddings))
	}
	if res.Embeddings[2][0] != 3 {
		t.Errorf("embeddings[2] = %v", res.Embeddings[2])
	}
	if res.TotalTokens != 3 {
		t.Errorf("total tokens = %d, want 3", res.TotalTokens)
	}
}

type mockEmbedder struct {
	fn    func(ctx context.Context, text string) (EmbeddingResult, error)
	calls int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	m.calls++
	return m.fn(ctx, text)
}

type failingHealthEmbedder struct{}

func (failingHealthEmbedder) Embed(context.Context, string) (EmbeddingResult, error) {
	return EmbeddingResult{}, errors.New("provider down")
}

func (failingHealthEmbedder) HealthCheck(context.Context) error {
	return errors.New("provider down")
}
