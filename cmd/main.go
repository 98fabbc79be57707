package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/http/api"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/http/swagger"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/adapters/repository"
	app "github.com/Ayush-Panwar/dsa-tracker-sub001/internal/app"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/internal/config"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/logger"
	"github.com/Ayush-Panwar/dsa-tracker-sub001/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	metricsInterval   = 10 * time.Second
)

func main() {
	// A local .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := selectStore(cfg)
	if err != nil {
		log.Error(ctx, "failed to open store", logger.Error(err))
		return
	}

	svc := app.New(
		app.WithStore(store),
		app.WithLogger(log),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithRetry(cfg.TxRetryAttempts, time.Duration(cfg.TxRetryBaseMS)*time.Millisecond),
		app.WithTxTimeout(time.Duration(cfg.TxTimeoutMS)*time.Millisecond),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()

	// API docs under /api-docs.
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, api.NewJWTValidator(cfg.JWTSecret), cfg.AllowedOrigin)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// startMetricsUpdater periodically publishes process and service gauges.
func startMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateMemoryUsage(m.Alloc)
			metrics.UpdateGoroutineCount(runtime.NumGoroutine())

			if entries, ok := svc.GetStats()["dedupeEntries"].(int64); ok {
				metrics.UpdateDedupeEntries(int(entries))
			}
		}
	}
}

// selectStore picks the backing store: Postgres when a database URL is
// configured, in-memory otherwise.
func selectStore(cfg *config.Config) (repository.Store, error) {
	if cfg.DatabaseURL == "" {
		return repository.NewMemStore(), nil
	}
	return repository.NewGormStore(cfg.DatabaseURL)
}
