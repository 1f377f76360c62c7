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

	"github.com/localaid/localaid/internal/config"
	dbRedis "github.com/localaid/localaid/internal/db/redis"
	"github.com/localaid/localaid/internal/extract"
	logpkg "github.com/localaid/localaid/internal/logger"
	"github.com/localaid/localaid/internal/metrics"
	"github.com/localaid/localaid/internal/repository/answercache"
	"github.com/localaid/localaid/internal/repository/spotlight"
	"github.com/localaid/localaid/internal/repository/walker"
	chiTransport "github.com/localaid/localaid/internal/transport/chi"
	openaiTransport "github.com/localaid/localaid/internal/transport/openai"
	browseuc "github.com/localaid/localaid/internal/usecase/browse"
	chatuc "github.com/localaid/localaid/internal/usecase/chat"
	healthuc "github.com/localaid/localaid/internal/usecase/health"
	searchuc "github.com/localaid/localaid/internal/usecase/search"
	"github.com/localaid/localaid/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, "localaid")
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting localaid server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("search_root", cfg.Search.Root),
		zap.String("model", cfg.Inference.Model),
		zap.Bool("answer_cache", cfg.Cache.Enabled()),
	)

	// Register service metrics explicitly (no init())
	metrics.RegisterServiceMetrics()

	extractor := extract.New(extract.Config{
		AttachmentLimit:   cfg.Extract.AttachmentLimit,
		PreviewReadLimit:  cfg.Extract.PreviewReadLimit,
		PreviewLimit:      cfg.Extract.PreviewLimit,
		ContentMatchLimit: cfg.Extract.ContentMatchLimit,
	}, logger)

	// Search tiers
	index := spotlight.New(spotlight.ExecRunner{}, spotlight.Config{
		Tool:       cfg.Search.IndexTool,
		Root:       cfg.Search.Root,
		Timeout:    cfg.Search.IndexTimeout(),
		MaxResults: cfg.Search.MaxResults,
	})
	walk := walker.New(walker.Config{
		Root:       cfg.Search.Root,
		SkipDirs:   cfg.Search.SkipDirs,
		MaxResults: cfg.Search.MaxResults,
	}, extractor)

	// Inference chain: OpenAI-compatible client -> optional answer cache
	completer := openaiTransport.NewCompleter(&openaiTransport.Config{
		APIKey:  cfg.Inference.APIKey,
		BaseURL: cfg.Inference.BaseURL,
		Model:   cfg.Inference.Model,
		Timeout: cfg.Inference.Timeout(),
		Logger:  logger,
	})

	var chatCompleter chatuc.Completer = completer

	// Pass nil interface (not typed nil pointer!) when the cache is off.
	var cachePinger healthuc.CachePinger
	if cfg.Cache.Enabled() {
		store, err := connectCache(cfg.Cache, logger)
		if err != nil {
			logger.Warn("Answer cache disabled", zap.Error(err))
		} else {
			defer store.Close()
			cachePinger = store
			chatCompleter = answercache.New(
				completer, store, cfg.Inference.Model, cfg.Cache.TTL(), metrics.AnswerCacheTotal, logger,
			)
		}
	}

	// Use case services
	searchSvc := searchuc.New(index, walk, cfg.Search.MaxResults)
	browseSvc := browseuc.New(extractor)
	chatSvc := chatuc.New(extractor, chatCompleter)
	healthSvc := healthuc.New(cachePinger, completer, index)

	// Create chi server
	server := chiTransport.NewServer(searchSvc, browseSvc, chatSvc, healthSvc, logger).
		WithMaxUploadBytes(int64(cfg.HTTP.MaxUploadMB) << 20)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.APIKeyAuth(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.BindAddress, cfg.HTTP.Port)
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

// connectCache opens the answer cache store and waits until it answers.
func connectCache(cfg config.CacheConfig, logger *zap.Logger) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:       cfg.Addrs,
		Password:    cfg.Password,
		Prefix:      cfg.KeyPrefix,
		DialTimeout: time.Duration(cfg.ReadinessTimeout) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create cache store: %w", err)
	}

	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(context.Background(), timeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("cache not ready: %w", err)
	}

	logger.Info("Connected to answer cache", zap.Strings("addrs", cfg.Addrs))
	return store, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Error: "internal error",
						Code:  chiTransport.CodeInternalError,
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
