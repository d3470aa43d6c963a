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

	"github.com/kailas-cloud/findex/internal/config"
	dbRedis "github.com/kailas-cloud/findex/internal/db/redis"
	"github.com/kailas-cloud/findex/internal/db/sqlite"
	logpkg "github.com/kailas-cloud/findex/internal/logger"
	"github.com/kailas-cloud/findex/internal/metrics"
	documentrepo "github.com/kailas-cloud/findex/internal/repository/document"
	"github.com/kailas-cloud/findex/internal/repository/embcache"
	querylogrepo "github.com/kailas-cloud/findex/internal/repository/querylog"
	searchrepo "github.com/kailas-cloud/findex/internal/repository/search"
	chiTransport "github.com/kailas-cloud/findex/internal/transport/chi"
	"github.com/kailas-cloud/findex/internal/transport/openai"
	analyticsuc "github.com/kailas-cloud/findex/internal/usecase/analytics"
	healthuc "github.com/kailas-cloud/findex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/findex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/findex/internal/usecase/search"
	suggestuc "github.com/kailas-cloud/findex/internal/usecase/suggest"
	"github.com/kailas-cloud/findex/internal/version"
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

	logger.Info("Starting findex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_path", cfg.Database.Path),
	)

	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open document store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		logger.Fatal("Document store not ready", zap.Error(err))
	}
	logger.Info("Connected to document store")

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	// Optional embedding cache
	var cache *dbRedis.Cache
	if len(cfg.Cache.Addrs) > 0 {
		cache, err = dbRedis.NewCache(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to connect embedding cache", zap.Error(err))
		}
		defer cache.Close()
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Optional embedding/completion provider
	var provider *openai.Provider
	if cfg.Embedding.APIKey != "" {
		provider = openai.NewProvider(&openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			EmbedModel: cfg.Embedding.Model,
			ChatModel:  cfg.Embedding.ChatModel,
			Dimensions: cfg.Embedding.Dimensions,
			Logger:     logger,
		})
		logger.Info("Embedding provider configured",
			zap.String("model", cfg.Embedding.Model),
			zap.String("chat_model", cfg.Embedding.ChatModel),
			zap.Int("dimensions", cfg.Embedding.Dimensions),
		)
	} else {
		logger.Warn("No embedding provider configured, semantic search will use substring fallback")
	}

	// Create repositories
	docRepo := documentrepo.New(store.DB())
	searchRepo := searchrepo.New(store.DB())
	logRepo := querylogrepo.New(store.DB())

	// Embedder chain: provider -> cache decorator
	embedder := buildEmbedder(provider, cache, cfg.Cache.TTLHours, logger)

	// Create use case services
	suggestSvc := suggestuc.New(searchRepo, logger)
	if provider != nil {
		suggestSvc.WithProvider(provider)
	}

	searchSvc := searchuc.New(searchRepo, logRepo, suggestSvc, logger).
		WithLimits(cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	if embedder != nil {
		searchSvc.WithEmbedder(embedder)
	}
	if provider != nil && cfg.Search.EnhanceQueries {
		searchSvc.WithRewriter(provider)
	}

	indexSvc := indexuc.New(docRepo, logger)
	if embedder != nil {
		indexSvc.WithEmbedder(embedder)
	}

	analyticsSvc := analyticsuc.New(logRepo, docRepo, logger).
		WithWindow(cfg.Analytics.DefaultWindowDays, cfg.Analytics.MaxWindowDays)

	var cachePinger healthuc.CachePinger
	if cache != nil {
		cachePinger = cache
	}
	var providerChecker healthuc.ProviderChecker
	if provider != nil {
		providerChecker = provider
	}
	healthSvc := healthuc.New(store, cachePinger, providerChecker)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, indexSvc, suggestSvc, analyticsSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

// buildEmbedder wraps the provider in the cache decorator when a cache is
// configured. Returns nil when no provider is configured.
func buildEmbedder(
	provider *openai.Provider,
	cache *dbRedis.Cache,
	ttlHours int,
	logger *zap.Logger,
) interface {
	Embed(ctx context.Context, text string) ([]float32, error)
} {
	if provider == nil {
		return nil
	}
	if cache == nil {
		return provider
	}
	return embcache.New(
		provider, cache,
		time.Duration(ttlHours)*time.Hour,
		metrics.EmbeddingCacheTotal, logger,
	)
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request
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
