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

	"github.com/steamcompass/compass/internal/adapters/http/api"
	"github.com/steamcompass/compass/internal/adapters/http/swagger"
	"github.com/steamcompass/compass/internal/adapters/sources"
	app "github.com/steamcompass/compass/internal/app"
	"github.com/steamcompass/compass/internal/config"
	"github.com/steamcompass/compass/internal/domain/aggregate"
	"github.com/steamcompass/compass/internal/domain/batch"
	"github.com/steamcompass/compass/internal/domain/resolver"
	"github.com/steamcompass/compass/internal/supervisor"
	"github.com/steamcompass/compass/pkg/logger"
	"github.com/steamcompass/compass/pkg/metrics"
)

// HTTP server timeout constants. Batches answer synchronously, so writes get
// far more room than reads.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Minute
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := setupLogging(cfg); err != nil {
		os.Stderr.WriteString("failed to configure logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	loggerInstance := logger.Get()

	// Start the service before the tree so a broken store fails the process.
	svc := newService(cfg)
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	router := api.NewServer(svc, svc).Router()
	swagger.Register(router)
	srv := newHTTPServer(cfg.Addr, router)

	tree := newTree(cfg, svc, srv)
	loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		loggerInstance.Error(ctx, "supervisor stopped", logger.Error(err))
	}

	// The tree stops the service through Serve; Stop is a no-op then.
	svc.Stop()
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		loggerInstance.Warn(ctx, "services did not stop in time", logger.Int("count", len(report)))
	}
	loggerInstance.Info(ctx, "server stopped")
}

// setupLogging applies the configured format and level.
func setupLogging(cfg *config.Config) error {
	if cfg.LogFormat != logger.FormatText {
		if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
			return err
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// newAggregator wires the three signal sources behind one aggregator.
func newAggregator(cfg *config.Config) *aggregate.Aggregator {
	opts := sourceOptions(cfg)
	return aggregate.New(
		sources.NewMetacritic(cfg.MetacriticURL, opts...),
		sources.NewSteamReviews(cfg.SteamStoreURL, opts...),
		sources.NewHLTB(cfg.HLTBURL, opts...),
		aggregate.WithResolver(newResolver(cfg)),
		aggregate.WithFetchTimeout(cfg.FetchTimeout()),
		aggregate.WithSignalTimeout(cfg.SignalTimeout()),
	)
}

// newResolver paces name candidates and bounds each attempt by the fetch timeout.
func newResolver(cfg *config.Config) *resolver.Resolver {
	return resolver.New(
		resolver.WithDelay(cfg.ResolverDelay()),
		resolver.WithAttemptTimeout(cfg.FetchTimeout()),
	)
}

func sourceOptions(cfg *config.Config) []sources.Option {
	return []sources.Option{
		sources.WithRateLimit(cfg.SourceRatePerSec, cfg.SourceBurst),
		sources.WithBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenTimeout()),
	}
}

// newService creates the application service from configuration.
func newService(cfg *config.Config) *app.Service {
	policy := batch.OmitFailed
	if cfg.IncludeDegraded {
		policy = batch.IncludeDegraded
	}
	return app.New(
		app.WithLogger(logger.Get().Named("service")),
		app.WithAggregator(newAggregator(cfg)),
		app.WithLibrary(sources.NewSteamLibrary(cfg.SteamAPIURL, cfg.SteamAPIKey, sourceOptions(cfg)...)),
		app.WithDataDir(cfg.DataDir),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithBatchDefaults(cfg.BatchSize, cfg.BatchDelay()),
		app.WithFailurePolicy(policy),
	)
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// newTree puts the service and the refresher in the engine layer and the
// HTTP server in the API layer.
func newTree(cfg *config.Config, svc *app.Service, srv *http.Server) *supervisor.Tree {
	tree := supervisor.NewTree(logger.Slog(), supervisor.DefaultTreeConfig())
	tree.AddEngineService(svc)
	tree.AddEngineService(supervisor.NewRefreshService(svc, cfg.RefreshUsers, cfg.RefreshInterval()))
	tree.AddAPIService(supervisor.NewHTTPServerService(srv, shutdownTimeout))
	return tree
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that refreshes service gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the queue and store gauges.
func updateServiceMetrics(svc *app.Service) {
	// GetStats updates the queue and store gauges itself.
	stats := svc.GetStats()

	if workerCount, ok := stats["workerCount"].(int); ok && stats["started"] == true {
		metrics.UpdateWorkerActiveCount(workerCount)
	}
}
