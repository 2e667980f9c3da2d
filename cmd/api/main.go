package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"libraryapi/internal/apperr"
	"libraryapi/internal/book"
	"libraryapi/internal/config"
	apphttp "libraryapi/internal/http"
	"libraryapi/internal/httpx"
	"libraryapi/internal/platform/logging"
	"libraryapi/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	dbPool, err := store.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer dbPool.Close()
	logger.Info("database connection OK", slog.String("dsn", store.RedactDSN(cfg.Database.ConnString())))

	bookRepository := book.NewPostgresRepo(dbPool, book.RepoOptions{
		QueryTimeout:     cfg.Database.QueryTimeout,
		StatsConcurrency: cfg.Database.StatsConcurrency,
	})
	catalog := book.NewService(bookRepository, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      newHandler(ctx, cfg, catalog, dbPool, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("addr", cfg.Server.Addr),
			slog.String("base_path", cfg.API.BasePath),
			slog.String("environment", cfg.API.Environment),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// newHandler mounts the catalog under the base path next to the operational
// endpoints and wraps everything in the middleware chain.
func newHandler(ctx context.Context, cfg *config.Config, catalog apphttp.Catalog, db httpx.Pinger, logger *slog.Logger) http.Handler {
	rs := httpx.NewResponder(cfg.API.Debug, logger)
	router := apphttp.NewRouter(catalog, rs, apphttp.RouterOptions{
		BasePath:     cfg.API.BasePath,
		APIName:      cfg.API.Name,
		Environment:  cfg.API.Environment,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	health := httpx.NewHealth(db, 0)
	metrics := httpx.NewMetrics("library")

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", health.Live)
	mux.HandleFunc("/readyz", health.Ready)
	mux.Handle("/metrics", metrics.Handler())

	base := strings.TrimRight(cfg.API.BasePath, "/")
	if base == "" {
		mux.Handle("/", router)
	} else {
		mux.Handle(base, router)
		mux.Handle(base+"/", router)
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			rs.Error(w, r, apperr.EndpointNotFound("The requested endpoint does not exist", r.URL.Path))
		})
	}

	mws := []func(http.Handler) http.Handler{
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(logger),
		httpx.RecoveryMiddleware(rs),
		metrics.Middleware,
		httpx.SecurityHeadersMiddleware(cfg.Server.EnableHSTS),
		httpx.CORSMiddleware(httpx.CORSConfig{
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			AllowedMethods: cfg.CORS.AllowedMethods,
			AllowedHeaders: cfg.CORS.AllowedHeaders,
		}),
	}
	if cfg.RateLimit.Enabled {
		limiter := httpx.NewRateLimitMiddleware(ctx, rs, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		mws = append(mws, limiter.Middleware)
	}
	mws = append(mws, httpx.RequestSizeLimitMiddleware(rs, cfg.Server.MaxBodyBytes))

	return httpx.Chain(mux, mws...)
}
