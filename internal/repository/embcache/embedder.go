package embcache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/db"
	"github.com/kailas-cloud/rankdex/internal/domain"
)

const l2KeyPrefix = "rx:emb:"

// store is the consumer interface for the shared cache tier (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder layers the in-process LRU and an optional shared key-value
// tier in front of the real embedder. Keys are scoped to the model so a
// model switch never serves stale vectors.
type CachedEmbedder struct {
	inner      domain.Embedder
	model      string
	cache      *Cache
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. s may be nil to run without the shared
// tier; ttl applies to shared-tier writes (0 keeps entries forever).
// cacheTotal is a counter vec with label "result" ("hit"/"l2_hit"/"miss"),
// passed explicitly.
func New(
	inner domain.Embedder,
	model string,
	cache *Cache,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		model:      model,
		cache:      cache,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached embedding or calls the inner embedder.
// Cache hit: TotalTokens = 0 (no real tokens consumed).
// Cache miss: full EmbeddingResult from inner.
// Concurrent misses for the same text share one inner call; only the caller
// that actually reached the provider reports its token usage.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	src := "hit"
	var usage domain.EmbeddingResult

	// src and usage are written only by this call's own closure. Collapsed
	// callers never run theirs, so they report a hit with zero usage.
	vec, err := c.cache.GetOrCompute(ctx, c.model, text, func(ctx context.Context) ([]float32, error) {
		if cached, ok := c.l2Get(ctx, text); ok {
			src = "l2_hit"
			c.incCache("l2_hit")
			return cached, nil
		}

		src = "miss"
		c.incCache("miss")

		result, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		usage = result

		c.l2Put(ctx, text, result.Embedding)
		return result.Embedding, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}

	if src == "hit" {
		c.incCache("hit")
	}

	return domain.EmbeddingResult{
		Embedding:    vec,
		PromptTokens: usage.PromptTokens,
		TotalTokens:  usage.TotalTokens,
	}, nil
}

// BatchEmbed serves what it can from both cache tiers and sends only the
// misses to the inner embedder in a single call. Token usage covers the
// misses alone.
func (c *CachedEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	embeddings := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, text := range texts {
		if vec, ok := c.lookupTiers(ctx, text); ok {
			embeddings[i] = vec
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		// Все из кеша — 0 токенов.
		return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
	}

	result, err := c.embedMisses(ctx, missTexts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed with %s: %w", c.model, err)
	}
	if len(result.Embeddings) != len(missTexts) {
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"batch embed with %s: got %d embeddings for %d texts", c.model, len(result.Embeddings), len(missTexts))
	}

	for j, i := range missIdx {
		vec := result.Embeddings[j]
		embeddings[i] = vec
		c.cache.Add(c.model, missTexts[j], vec)
		c.l2Put(ctx, missTexts[j], vec)
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: result.PromptTokens,
		TotalTokens:  result.TotalTokens,
	}, nil
}

func (c *CachedEmbedder) embedMisses(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if batch, ok := c.inner.(domain.BatchEmbedder); ok {
		return batch.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, c.inner, texts)
}

// lookupTiers checks L1 then the shared tier, promoting shared-tier hits
// into L1.
func (c *CachedEmbedder) lookupTiers(ctx context.Context, text string) ([]float32, bool) {
	if vec, ok := c.cache.Get(c.model, text); ok {
		c.incCache("hit")
		return vec, true
	}
	if vec, ok := c.l2Get(ctx, text); ok {
		c.incCache("l2_hit")
		c.cache.Add(c.model, text, vec)
		return vec, true
	}
	return nil, false
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) l2Key(text string) string {
	return l2KeyPrefix + c.model + ":" + Key(c.model, text)
}

func (c *CachedEmbedder) l2Get(ctx context.Context, text string) ([]float32, bool) {
	if c.store == nil {
		return nil, false
	}

	key := c.l2Key(text)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToCacheVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedEmbedder) l2Put(ctx context.Context, text string, vec []float32) {
	if c.store == nil {
		return
	}

	key := c.l2Key(text)
	data := vectorToCacheBytes(vec)

	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToCacheVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
