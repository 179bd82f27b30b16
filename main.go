package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/a2a"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/activities"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/aggregator"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/cache"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/config"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/health"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/llm"
	_ "github.com/vn6295337/strategy-agent/go/orchestrator/internal/metrics" // register collectors
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/progress"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/scoring"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/sources"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/workflows"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Observability.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// The completion backend is the one hard startup requirement: without
	// it no run can produce or score a draft (reported once, not per run).
	llmClient, err := llm.NewChainClient(loadProviders(cfg), logger)
	if err != nil {
		logger.Fatal("No completion backend configured",
			zap.Error(err),
			zap.String("hint", "set GROQ_API_KEY, GEMINI_API_KEY or OPENROUTER_API_KEY"),
		)
	}
	logger.Info("Completion providers ready", zap.Strings("providers", llmClient.Providers()))

	cacheStore, err := cache.Open(cfg.Cache.Path, logger)
	if err != nil {
		logger.Fatal("Failed to open research cache", zap.Error(err))
	}
	defer cacheStore.Close()

	// Progress tracking is best-effort; the worker runs without it.
	progressStore, err := progress.NewStore(cfg.Redis.Addr, cfg.Redis.Password, logger)
	if err != nil {
		logger.Warn("Progress store unavailable, running without progress tracking",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
		progressStore = nil
	} else {
		defer progressStore.Close()
	}

	registry := buildSourceRegistry(cfg, logger)
	agg := aggregator.New(registry, cacheStore, cfg.Cache.TTL(), logger)

	var remote *a2a.Client
	if cfg.A2A.Enabled {
		remote = a2a.NewClient(cfg.A2A.URL, logger,
			a2a.WithTaskTimeout(cfg.A2A.Timeout()),
			a2a.WithPollInterval(cfg.A2A.PollInterval()),
		)
		if card, err := remote.FetchAgentCard(ctx); err != nil {
			logger.Warn("A2A agent card unavailable", zap.Error(err))
		} else {
			logger.Info("Research delegated to A2A worker",
				zap.String("agent", card.Name),
				zap.String("version", card.Version),
			)
		}
	}

	scorer := scoring.NewEngine(llmClient, logger)
	acts := activities.NewActivities(agg, remote, llmClient, scorer, progressStore, logger)

	// Health + metrics on the admin mux, up before the Temporal worker so
	// probes answer while the worker is still connecting.
	hm := health.NewManager(logger)
	hm.RegisterChecker(health.NewCacheChecker(cacheStore.DB()))
	if progressStore != nil {
		hm.RegisterChecker(health.NewRedisChecker(progressStore.Client()))
	}
	if remote != nil {
		hm.RegisterChecker(health.NewA2AChecker(remote, true))
	}
	go hm.Start(ctx)

	httpMux := http.NewServeMux()
	health.NewHTTPHandler(hm, logger).RegisterRoutes(httpMux)
	httpMux.Handle("/metrics", promhttp.Handler())
	adminAddr := ":" + strconv.Itoa(cfg.Observability.HealthPort)
	go func() {
		srv := &http.Server{
			Addr:         adminAddr,
			Handler:      httpMux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		logger.Info("Admin HTTP server listening", zap.String("addr", adminAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Admin HTTP server failed", zap.Error(err))
		}
	}()

	tClient, err := dialTemporal(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to Temporal", zap.Error(err))
	}
	defer tClient.Close()

	wk := worker.New(tClient, cfg.Temporal.TaskQueue, worker.Options{})
	wk.RegisterWorkflow(workflows.AnalysisWorkflow)
	wk.RegisterActivity(acts)

	logger.Info("Worker starting",
		zap.String("task_queue", cfg.Temporal.TaskQueue),
		zap.String("temporal", cfg.Temporal.HostPort),
		zap.Bool("a2a_enabled", cfg.A2A.Enabled),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- wk.Run(worker.InterruptCh())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Worker stopped with error", zap.Error(err))
		}
	case sig := <-sigCh:
		logger.Info("Shutting down", zap.String("signal", sig.String()))
		wk.Stop()
	}
	hm.Stop()
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func loadProviders(cfg *config.Config) []llm.Provider {
	providers := make([]llm.Provider, 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers = append(providers, llm.Provider{
			Name:    p.Name,
			BaseURL: p.BaseURL,
			Model:   p.Model,
			APIKey:  os.Getenv(p.APIKeyEnv),
		})
	}
	return providers
}

func buildSourceRegistry(cfg *config.Config, logger *zap.Logger) *sources.Registry {
	registry := sources.NewRegistry(logger)
	httpClient := &http.Client{Timeout: cfg.Sources.Timeout()}
	for _, name := range sources.Names() {
		endpoint, ok := cfg.Sources.Endpoints[name]
		if !ok || endpoint == "" {
			logger.Warn("No endpoint configured for source, skipping",
				zap.String("source", name),
			)
			continue
		}
		registry.Register(name,
			sources.NewHTTPFetcher(name, endpoint, httpClient, logger),
			sources.WithTimeout(cfg.Sources.Timeout()),
			sources.WithRateLimit(rate.Limit(cfg.Sources.RatePerSecond), cfg.Sources.RateBurst),
		)
	}
	return registry
}

func dialTemporal(cfg *config.Config, logger *zap.Logger) (client.Client, error) {
	var tClient client.Client
	var err error
	for attempt := 1; attempt <= 10; attempt++ {
		tClient, err = client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err == nil {
			return tClient, nil
		}
		delay := time.Duration(attempt) * time.Second
		if delay > 5*time.Second {
			delay = 5 * time.Second
		}
		logger.Warn("Temporal not ready, retrying",
			zap.Int("attempt", attempt),
			zap.String("host", cfg.Temporal.HostPort),
			zap.Error(err),
		)
		time.Sleep(delay)
	}
	return nil, fmt.Errorf("temporal dial failed after retries: %w", err)
}
