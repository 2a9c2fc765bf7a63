package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/hretheum/vectorwave.io-sub009/internal/config"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/adapter/persistence/memory"
	pgRepo "github.com/hretheum/vectorwave.io-sub009/internal/infra/adapter/persistence/postgres"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/db"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/embedder"
	"github.com/hretheum/vectorwave.io-sub009/internal/infra/idempotency"
	"github.com/hretheum/vectorwave.io-sub009/internal/observability/logging"
	"github.com/hretheum/vectorwave.io-sub009/internal/repository"
	"github.com/hretheum/vectorwave.io-sub009/internal/upstream"
	"github.com/hretheum/vectorwave.io-sub009/internal/usecase/gate"
	pkgconfig "github.com/hretheum/vectorwave.io-sub009/pkg/config"

	hhttp "github.com/hretheum/vectorwave.io-sub009/internal/handler/http"
	hgenerate "github.com/hretheum/vectorwave.io-sub009/internal/handler/http/generate"
	"github.com/hretheum/vectorwave.io-sub009/internal/handler/http/requestid"
	htopic "github.com/hretheum/vectorwave.io-sub009/internal/handler/http/topic"
	"github.com/hretheum/vectorwave.io-sub009/internal/resilience/retry"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	gateCfg, err := config.LoadGateConfig()
	if err != nil {
		logger.Error("failed to load gate configuration", slog.Any("error", err))
		os.Exit(1)
	}

	upstreamCfg, err := config.LoadUpstreamConfig()
	if err != nil {
		logger.Error("failed to load upstream configuration", slog.Any("error", err))
		os.Exit(1)
	}

	embedderCfg, err := embedder.LoadConfig()
	if err != nil {
		logger.Error("failed to load embedder configuration", slog.Any("error", err))
		os.Exit(1)
	}

	database, index := initIndex(logger, gateCfg, embedderCfg)
	if database != nil {
		defer func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", slog.Any("error", err))
			}
		}()
	}

	emb := initEmbedder(logger, embedderCfg)
	store := idempotency.NewStore(idempotency.Config{TTL: gateCfg.IdempotencyTTL})
	gateSvc := gate.NewService(emb, index, store, gate.Config{
		NoveltyThreshold: gateCfg.NoveltyThreshold,
		NeighborLimit:    gateCfg.NeighborLimit,
	})

	upstreamClient := upstream.New(upstream.Config{
		Name:             "generation",
		BaseURL:          upstreamCfg.BaseURL,
		FailureThreshold: upstreamCfg.FailureThreshold,
		RecoveryTimeout:  upstreamCfg.RecoveryTimeout,
		RequestTimeout:   upstreamCfg.RequestTimeout,
		Retry: retry.Policy{
			MaxAttempts:    upstreamCfg.MaxRetryAttempts,
			BaseDelay:      upstreamCfg.RetryBaseDelay,
			MaxDelay:       30 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
		},
		Logger: logger,
	})

	handler := buildHandler(logger, database, gateSvc, upstreamClient)
	runServer(logger, handler, gateSvc, store, gateCfg)
}

// initIndex selects the similarity index backend. The postgres backend
// opens the database and runs migrations; the memory backend needs
// neither.
func initIndex(logger *slog.Logger, gateCfg *config.GateConfig, embedderCfg *embedder.Config) (*sql.DB, repository.TopicIndexRepository) {
	if gateCfg.IndexBackend == config.IndexBackendMemory {
		logger.Info("using in-memory topic index")
		return nil, memory.NewTopicIndexRepo()
	}

	database, err := db.Open()
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database, embeddingDimension(embedderCfg)); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("using postgres topic index")
	return database, pgRepo.NewTopicIndexRepo(database)
}

// embeddingDimension returns the vector dimension the schema must hold.
func embeddingDimension(cfg *embedder.Config) int {
	if cfg.Provider == embedder.ProviderOpenAI {
		// text-embedding-3-small and -large are 1536-dimensional by default.
		return 1536
	}
	return cfg.Dimension
}

// initEmbedder selects the embedding backend from configuration.
func initEmbedder(logger *slog.Logger, cfg *embedder.Config) gate.Embedder {
	if cfg.Provider == embedder.ProviderOpenAI {
		apiKey := os.Getenv("OPENAI_API_KEY")
		e, err := embedder.NewOpenAI(apiKey, cfg)
		if err != nil {
			logger.Error("failed to create openai embedder", slog.Any("error", err))
			os.Exit(1)
		}
		return e
	}
	logger.Info("using deterministic embedder", slog.Int("dimension", cfg.Dimension))
	return embedder.NewDeterministic(cfg.Dimension)
}

// buildHandler assembles routes and the middleware chain.
// Middleware order: Request ID → Rate Limit → Recovery → Logging → Body Limit → Metrics
func buildHandler(logger *slog.Logger, database *sql.DB, gateSvc *gate.Service, upstreamClient *upstream.Client) http.Handler {
	mux := http.NewServeMux()
	htopic.Register(mux, gateSvc)
	mux.Handle("POST /generate", hgenerate.ProxyHandler{Client: upstreamClient})
	mux.Handle("GET /healthz", &hhttp.HealthHandler{
		DB:       database,
		Gate:     gateSvc,
		Upstream: upstreamClient,
		Version:  getVersion(),
	})

	var chain http.Handler = mux
	chain = hhttp.MetricsMiddleware(chain)
	chain = hhttp.LimitRequestBody(1 << 20)(chain) // 1MB limit
	chain = hhttp.Logging(logger)(chain)
	chain = hhttp.Recover(logger)(chain)
	if pkgconfig.GetEnvBool("RATE_LIMIT_ENABLED", true) {
		rateLimiter := hhttp.NewRateLimiter(
			pkgconfig.GetEnvInt("RATE_LIMIT_PER_MINUTE", 120),
			time.Minute,
		)
		chain = rateLimiter.Limit(chain)
	}
	chain = requestid.Middleware(chain)
	return chain
}

// getVersion returns the application version from environment or default.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// runServer starts the API and metrics servers and handles graceful
// shutdown. Expired idempotency records are swept on a schedule;
// correctness does not depend on the sweep, it only reclaims memory.
func runServer(logger *slog.Logger, handler http.Handler, gateSvc *gate.Service, store *idempotency.Store, gateCfg *config.GateConfig) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := cron.New()
	_, err := sweeper.AddFunc("@every "+gateCfg.SweepInterval.String(), func() {
		removed := store.Sweep()
		if removed > 0 {
			logger.Info("idempotency records swept", slog.Int("removed", removed))
		}
	})
	if err != nil {
		logger.Error("failed to schedule idempotency sweep", slog.Any("error", err))
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	apiAddr := pkgconfig.GetEnvString("API_ADDR", ":8080")
	metricsAddr := pkgconfig.GetEnvString("METRICS_ADDR", ":9090")

	apiSrv := &http.Server{
		Addr:              apiAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", hhttp.MetricsHandler())
	metricsSrv := &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api server starting",
			slog.String("addr", apiAddr),
			slog.String("version", getVersion()))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("metrics server starting", slog.String("addr", metricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("shutting down server...")
	case <-gctx.Done():
		logger.Error("server failed, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown failed", slog.Any("error", err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", slog.Any("error", err))
	}
	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("server stopped")
}
