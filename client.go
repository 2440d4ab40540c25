// Package rankdex is an embeddable vector retrieval and ranking engine:
// namespaced vector records, cosine k-NN search and multi-factor re-scoring,
// with an LRU-cached embedding pipeline in front of any OpenAI-compatible
// provider.
package rankdex

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/db"
	dbMemory "github.com/kailas-cloud/rankdex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/domain"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/repository/embcache"
	"github.com/kailas-cloud/rankdex/internal/repository/index"
	openaitr "github.com/kailas-cloud/rankdex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	rankinguc "github.com/kailas-cloud/rankdex/internal/usecase/ranking"
	recorduc "github.com/kailas-cloud/rankdex/internal/usecase/record"
	searchuc "github.com/kailas-cloud/rankdex/internal/usecase/search"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultOpenAIModel      = "text-embedding-3-small"
)

// Client is the rankdex entry point.
type Client struct {
	store     db.Store
	cache     *embcache.Cache
	recordSvc *recorduc.Service
	searchSvc *searchuc.Service
	rankSvc   *rankinguc.Service
	healthSvc *healthuc.Service
}

// New creates a rankdex Client. Without options it runs fully in-process:
// in-memory store, no embedder (text operations fail until one is
// configured with WithEmbedder or WithOpenAI).
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{driver: "memory"}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("rankdex: store not ready: %w", err)
	}

	return wireClient(store, cfg), nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "memory":
		return dbMemory.New(), nil
	case "redis":
		algo := db.VectorFlat
		if cfg.hnswM > 0 || cfg.hnswEFConstruct > 0 {
			algo = db.VectorHNSW
		}
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.addrs,
			Username:    cfg.username,
			Password:    cfg.password,
			Algo:        algo,
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
		if err != nil {
			return nil, fmt.Errorf("rankdex: create redis store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("rankdex: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig) *Client {
	cache := embcache.NewCache(cfg.cacheSize)

	embedder, checker := buildEmbedder(store, cache, cfg)

	repo := index.New(store)
	rankSvc := rankinguc.New(rankinguc.Config{
		RecencyField:    cfg.recencyField,
		RecencyHalfLife: cfg.recencyHalfLife,
	})

	recordSvc := recorduc.New(repo, embedder)
	if cfg.maxBatchSize > 0 {
		recordSvc = recordSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}

	return &Client{
		store:     store,
		cache:     cache,
		recordSvc: recordSvc,
		searchSvc: searchuc.New(repo, embedder, rankSvc),
		rankSvc:   rankSvc,
		healthSvc: healthuc.New(store, checker),
	}
}

// buildEmbedder assembles the provider → cache decorator chain. A custom
// embedder wins over WithOpenAI. The shared cache tier is wired only for the
// redis driver; an in-memory L2 under the in-memory L1 would just double
// lookups.
func buildEmbedder(store db.Store, cache *embcache.Cache, cfg *clientConfig) (domain.Embedder, domain.HealthChecker) {
	var (
		inner   domain.Embedder
		checker domain.HealthChecker
		model   string
	)

	switch {
	case cfg.embedder != nil:
		inner = &embedderAdapter{inner: cfg.embedder}
		model = "custom"
		if hc, ok := cfg.embedder.(interface {
			HealthCheck(ctx context.Context) error
		}); ok {
			checker = hc
		}
	case cfg.openaiKey != "":
		model = cfg.openaiModel
		if model == "" {
			model = defaultOpenAIModel
		}
		oe := openaitr.NewEmbedder(&openaitr.Config{
			APIKey:     cfg.openaiKey,
			BaseURL:    cfg.openaiBaseURL,
			Model:      model,
			Dimensions: cfg.openaiDims,
			Logger:     cfg.logger,
		})
		inner = oe
		checker = oe
	default:
		return nil, nil
	}

	var l2 db.KVStore
	if cfg.driver == "redis" {
		l2 = store
	}

	cached := embcache.New(
		inner, model, cache, l2, cfg.cacheTTL,
		metrics.EmbeddingCacheTotal, cfg.logger,
	)
	if cfg.instruction != "" {
		// Outermost so the cache below keys on the prefixed text.
		return domain.NewInstructionEmbedder(cached, cfg.instruction), checker
	}
	return cached, checker
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Records returns the record service for a given namespace.
func (c *Client) Records(namespace string) *RecordsService {
	return &RecordsService{namespace: namespace, svc: c.recordSvc}
}

// Search returns the search service for a given namespace.
func (c *Client) Search(namespace string) *SearchService {
	return &SearchService{namespace: namespace, svc: c.searchSvc}
}

// Ranker returns a fluent builder for ranking caller-supplied candidates
// without touching any namespace.
func (c *Client) Ranker() *RankBuilder {
	return &RankBuilder{svc: c.rankSvc}
}

// CacheStats returns a point-in-time embedding cache snapshot.
func (c *Client) CacheStats() CacheStats {
	st := c.cache.Stats()
	return CacheStats{
		Hits:      st.Hits,
		Misses:    st.Misses,
		Evictions: st.Evictions,
		Entries:   st.Entries,
		Bytes:     st.Bytes,
		Capacity:  st.Capacity,
	}
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Health checks the health of all system components.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

// embedderAdapter wraps a public Embedder to satisfy internal
// domain.Embedder, forwarding batch capability when present.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Embedding,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	be, ok := a.inner.(BatchEmbedder)
	if !ok {
		return domain.BatchFallback(ctx, a, texts)
	}
	r, err := be.BatchEmbed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
	}
	return domain.BatchEmbeddingResult{
		Embeddings:   r.Embeddings,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
