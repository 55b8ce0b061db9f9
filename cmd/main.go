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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tonuslab/tonus/internal/adapters/http/api"
	"github.com/tonuslab/tonus/internal/adapters/http/site"
	"github.com/tonuslab/tonus/internal/adapters/http/swagger"
	service "github.com/tonuslab/tonus/internal/app"
	"github.com/tonuslab/tonus/internal/config"
	"github.com/tonuslab/tonus/internal/domain/presets"
	"github.com/tonuslab/tonus/internal/domain/session"
	"github.com/tonuslab/tonus/internal/domain/thresholds"
	"github.com/tonuslab/tonus/pkg/logger"
	"github.com/tonuslab/tonus/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics.
	// We collect our own custom system metrics instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Error(ctx, "failed to load config", logger.Err(err))
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Err(err))
		_ = logger.SetLevelString("info")
	}

	// Preset catalog: builtins plus any clinic-specific TOML entries.
	library, err := presets.Load(cfg.PresetsPath)
	if err != nil {
		log.Error(ctx, "failed to load preset catalog", logger.String("path", cfg.PresetsPath), logger.Err(err))
		return
	}

	// Seed configuration every new session starts from.
	sessionDefaults := []session.Option{
		session.WithThresholdDefault(thresholds.Threshold{
			MVCPercent:      cfg.DefaultMVCThresholdPct,
			DurationSeconds: cfg.DefaultDurationThresholdSec,
		}),
		session.WithBFRRange(cfg.BFRRangeMin, cfg.BFRRangeMax),
		session.WithGameBounds(cfg.GameMinScore, cfg.GameMaxScore),
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithStorePath(cfg.DBPath),
		service.WithWorkerCount(cfg.SaveWorkerCount),
		service.WithQueueSize(cfg.SaveQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithMaxSessions(cfg.MaxSessions),
		service.WithPresets(library),
		service.WithSessionDefaults(sessionDefaults...),
	)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Err(err))
		return
	}
	defer svc.Stop()

	// Start background metrics updaters
	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	// Hot-reload the log level when the config file changes. Address, store
	// and worker settings still require a restart.
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		go func() {
			err := config.Watch(ctx, path, func(next *config.Config) {
				if err := logger.SetLevelString(next.LogLevel); err != nil {
					log.Warn(ctx, "reloaded log_level invalid", logger.String("log_level", next.LogLevel), logger.Err(err))
				}
			})
			if err != nil {
				log.Warn(ctx, "config watcher stopped", logger.Err(err))
			}
		}()
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// ReDoc API reference under /api-docs
	swagger.Register(ctx, mux)

	// Operator documentation under /docs
	site.Register(ctx, mux)

	// Business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxListLimit)
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
			log.Error(ctx, "http server failed", logger.Err(api.WrapKind("listen and serve", api.ErrServe, err)))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Err(err))
	}

	log.Info(ctx, "server stopped")
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

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
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
		// Average GC pause across the process lifetime.
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics updates service-level metrics. GetStats refreshes the
// session gauges itself; the queue and worker gauges are derived here.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	queueLen, okLen := stats["queueLength"].(int)
	capacity, okCap := stats["queueSize"].(int)

	if okLen {
		metrics.UpdateSaveQueueSize(queueLen)
	}
	if okCap {
		metrics.UpdateSaveQueueCapacity(capacity)
	}
	if okLen && okCap && capacity > 0 {
		metrics.UpdateSaveQueueUtilization(float64(queueLen) / float64(capacity) * 100)
	}

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerActiveCount(workerCount)
	}
}
