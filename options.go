package rankdex

import (
	"time"

	"go.uber.org/zap"
)

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver   string // "memory" or "redis"
	addrs    []string
	username string
	password string

	hnswM           int
	hnswEFConstruct int

	embedder      Embedder
	openaiKey     string
	openaiBaseURL string
	openaiModel   string
	openaiDims    int
	instruction   string

	cacheSize int
	cacheTTL  time.Duration

	recencyField    string
	recencyHalfLife time.Duration

	maxBatchSize int

	logger *zap.Logger
}

// WithRedis configures the client to connect to a Redis instance with
// RediSearch. Without it the client runs on the in-process store.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithRedisUsername sets the ACL username for the Redis connection.
func WithRedisUsername(username string) Option {
	return func(c *clientConfig) {
		c.username = username
	}
}

// WithHNSW switches namespace indexes from exact FLAT search to HNSW with
// the given construction parameters. Redis driver only.
func WithHNSW(m, efConstruct int) Option {
	return func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	}
}

// WithEmbedder sets a custom text embedding provider. It is wrapped in the
// embedding cache automatically.
func WithEmbedder(e Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithOpenAI wires the built-in OpenAI-compatible embedding provider.
// Empty model defaults to text-embedding-3-small; dimensions 0 keeps the
// model default.
func WithOpenAI(apiKey, model string, dimensions int) Option {
	return func(c *clientConfig) {
		c.openaiKey = apiKey
		c.openaiModel = model
		c.openaiDims = dimensions
	}
}

// WithOpenAIBaseURL points the built-in provider at a non-OpenAI endpoint
// speaking the same API.
func WithOpenAIBaseURL(base string) Option {
	return func(c *clientConfig) {
		c.openaiBaseURL = base
	}
}

// WithInstruction prepends a task instruction to every embedded text.
// Asymmetric models (the e5 family and similar) expect such prefixes. The
// prefix participates in the cache key.
func WithInstruction(instruction string) Option {
	return func(c *clientConfig) {
		c.instruction = instruction
	}
}

// WithCacheSize bounds the in-process embedding LRU. Default: 4096 entries.
func WithCacheSize(entries int) Option {
	return func(c *clientConfig) {
		c.cacheSize = entries
	}
}

// WithCacheTTL sets the shared cache tier TTL (redis driver only; 0 keeps
// entries forever).
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *clientConfig) {
		c.cacheTTL = ttl
	}
}

// WithRecencyField names the numeric field holding the unix timestamp the
// recency factor decays. Default: updated_at.
func WithRecencyField(name string) Option {
	return func(c *clientConfig) {
		c.recencyField = name
	}
}

// WithRecencyHalfLife sets the recency decay half-life. Default: 168h.
func WithRecencyHalfLife(d time.Duration) Option {
	return func(c *clientConfig) {
		c.recencyHalfLife = d
	}
}

// WithMaxBatchSize sets the maximum number of items per batch upsert.
// Default: 100.
func WithMaxBatchSize(size int) Option {
	return func(c *clientConfig) {
		c.maxBatchSize = size
	}
}

// WithLogger enables structured logging for client internals.
// Default: no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
