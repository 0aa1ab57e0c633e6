package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/paddock/internal/adapters/http/api"
	"github.com/okian/paddock/internal/adapters/http/site"
	"github.com/okian/paddock/internal/adapters/http/swagger"
	"github.com/okian/paddock/internal/adapters/llm"
	"github.com/okian/paddock/internal/adapters/predictapi"
	app "github.com/okian/paddock/internal/app"
	"github.com/okian/paddock/internal/chat"
	"github.com/okian/paddock/internal/config"
	"github.com/okian/paddock/pkg/logger"
	"github.com/okian/paddock/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second // chat completions are slow
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Custom system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to sync logger: " + err.Error() + "\n")
		}
	}()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, loggerInstance),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("prediction_api_url", cfg.PredictionAPIURL),
			logger.String("chat_api_url", cfg.ChatAPIURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// newService wires the upstream clients into the application service.
func newService(cfg *config.Config, log logger.Logger) (*app.Service, error) {
	predictions, err := predictapi.NewClient(cfg.PredictionAPIURL,
		predictapi.WithTimeout(cfg.HTTPClientTimeout()),
		predictapi.WithLogger(log.Named("predictapi")),
	)
	if err != nil {
		return nil, err
	}

	completions := llm.NewClient(cfg.ChatAPIURL,
		llm.WithTimeout(cfg.HTTPClientTimeout()),
		llm.WithLogger(log.Named("llm")),
	)
	relay := chat.NewRelay(completions,
		chat.WithModel(cfg.ChatModel),
		chat.WithTemperature(cfg.ChatTemperature),
		chat.WithSystemPrompt(cfg.ChatSystemPrompt),
		chat.WithLogger(log.Named("chat")),
	)

	return app.New(predictions, relay,
		app.WithLogger(log),
		app.WithWorkerCount(cfg.FetchWorkers),
		app.WithQueueSize(cfg.FetchQueueSize),
		app.WithRefreshInterval(cfg.RefreshInterval()),
		app.WithAutoRefresh(cfg.AutoRefresh),
		app.WithMaxSessions(cfg.MaxSessions),
		app.WithSessionIdle(cfg.SessionIdle()),
		app.WithChampionshipYears(cfg.ChampionshipYears, cfg.ChampionshipYear),
	), nil
}

// newHandler registers docs, API and site routes and wraps them in the
// request id and CORS middleware.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithCORSOrigins(cfg.CORSAllowedOrigins),
		api.WithLogger(log.Named("http")),
	)
	apiServer.Register(ctx, mux)

	// Registered last at "/" so every more specific pattern wins.
	site.Register(ctx, mux)

	return apiServer.Handler(mux)
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

// updateServiceMetrics updates service-level metrics.
func updateServiceMetrics(svc *app.Service) {
	// GetStats refreshes queue length and worker gauges while started.
	stats := svc.GetStats()

	if queueSize, ok := stats["queueSize"].(int); ok {
		metrics.UpdateQueueCapacity(queueSize)
	}
}
