package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rankdex/internal/config"
	"github.com/kailas-cloud/rankdex/internal/version"
	"github.com/kailas-cloud/rankdex/internal/db"
	dbMemory "github.com/kailas-cloud/rankdex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/rankdex/internal/db/redis"
	"github.com/kailas-cloud/rankdex/internal/domain"
	logpkg "github.com/kailas-cloud/rankdex/internal/logger"
	"github.com/kailas-cloud/rankdex/internal/metrics"
	"github.com/kailas-cloud/rankdex/internal/repository/embcache"
	"github.com/kailas-cloud/rankdex/internal/repository/index"
	chiTransport "github.com/kailas-cloud/rankdex/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/rankdex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/rankdex/internal/usecase/health"
	rankinguc "github.com/kailas-cloud/rankdex/internal/usecase/ranking"
	recorduc "github.com/kailas-cloud/rankdex/internal/usecase/record"
	searchuc "github.com/kailas-cloud/rankdex/internal/usecase/search"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting rankdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create vector store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "memory":
		store = dbMemory.New()
	case "redis":
		algo := db.VectorFlat
		if cfg.Index.Algorithm == "hnsw" {
			algo = db.VectorHNSW
		}
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:       cfg.Database.Addrs,
			Username:    cfg.Database.Username,
			Password:    cfg.Database.Password,
			DB:          cfg.Database.DB,
			Algo:        algo,
			M:           cfg.Index.HNSWM,
			EFConstruct: cfg.Index.HNSWEFConstruct,
		})
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the store to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	// Register Prometheus metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// The LRU always exists so cache stats stay meaningful even without an
	// embedding provider.
	cache := embcache.NewCache(cfg.Cache.MaxEntries)
	metrics.RegisterCacheGauges(
		func() int { return cache.Stats().Entries },
		func() int64 { return cache.Stats().Bytes },
	)

	// Build embedder chain when a provider is configured — composition root.
	// Without an API key text queries fail with not_supported; vector
	// operations keep working.
	var embedder domain.Embedder
	var checker healthuc.EmbeddingChecker
	if cfg.Embedding.APIKey != "" {
		base := openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
		embedder = embcache.New(
			base, cfg.Embedding.Model, cache, store,
			time.Duration(cfg.Cache.SharedTTLSec)*time.Second,
			metrics.EmbeddingCacheTotal, logger,
		)
		// Instruction prefix sits outermost so the cache keys on the
		// prefixed text.
		if cfg.Embedding.Instruction != "" {
			embedder = domain.NewInstructionEmbedder(embedder, cfg.Embedding.Instruction)
		}
		checker = base
		logger.Info("Embedder created",
			zap.String("model", cfg.Embedding.Model),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Info("No embedding API key configured; text queries disabled")
	}

	// Repository and use case services
	repo := index.New(store)

	rankSvc := rankinguc.New(rankinguc.Config{
		RecencyField:    cfg.Ranking.RecencyField,
		RecencyHalfLife: time.Duration(cfg.Ranking.RecencyHalfLifeHours) * time.Hour,
	})
	recordSvc := recorduc.New(repo, embedder).
		WithMaxBatchSize(cfg.Index.MaxBatchSize).
		WithPagination(cfg.Index.DefaultPageSize, cfg.Index.MaxPageSize)
	searchSvc := searchuc.New(repo, embedder, rankSvc)
	healthSvc := healthuc.New(store, checker)

	// Create chi server
	server := chiTransport.NewServer(recordSvc, searchSvc, rankSvc, healthSvc, cache, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
