package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/airmap-service/internal/circuitbreaker"
	"github.com/kjstillabower/airmap-service/internal/config"
	"github.com/kjstillabower/airmap-service/internal/dataset"
	httphandler "github.com/kjstillabower/airmap-service/internal/http"
	"github.com/kjstillabower/airmap-service/internal/interpolation"
	"github.com/kjstillabower/airmap-service/internal/observability"
	"github.com/kjstillabower/airmap-service/internal/service"
	"github.com/kjstillabower/airmap-service/internal/traffic"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = observability.FlushLogs(logger) }()

	clock := clockwork.NewRealClock()

	source, closeSource, err := newSource(context.Background(), cfg, clock, logger)
	if err != nil {
		logger.Fatal("data source", zap.Error(err))
	}
	defer closeSource()

	registry, err := dataset.NewRegistry(cfg.Variables)
	if err != nil {
		logger.Fatal("variables", zap.Error(err))
	}
	builder := dataset.NewBuilder(source, registry, cfg.Columns, logger)

	engine, err := interpolation.NewEngine(cfg.Interpolation, logger)
	if err != nil {
		logger.Fatal("interpolation engine", zap.Error(err))
	}
	mapService := service.NewMapService(builder, registry, engine, clock, logger)

	tracker := traffic.New(clock)
	healthConfig := &httphandler.HealthConfig{
		Traffic: traffic.Thresholds{
			OverloadWindow:       cfg.OverloadWindow,
			OverloadDenials:      cfg.OverloadDenials,
			DegradedWindow:       cfg.DegradedWindow,
			DegradedErrorPercent: cfg.DegradedErrorPct,
			DegradedMinRequests:  cfg.DegradedMinRequests,
			IdleWindow:           cfg.IdleWindow,
		},
		MinimumLifespan: cfg.MinimumLifespan,
	}
	if g, ok := source.(*dataset.GuardedSource); ok {
		healthConfig.BreakerState = func() string { return g.BreakerState().String() }
	}
	handler := httphandler.NewHandler(mapService, tracker, healthConfig, clock, logger)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	inFlight := httphandler.NewInFlightTracker(clock)
	router := httphandler.NewRouter(handler, httphandler.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
		InFlight:       inFlight,
		Tracker:        tracker,
	}, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("backend", cfg.DataBackend),
			zap.Strings("variables", registry.Keys()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	handler.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight.Count()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := inFlight.WaitForZero(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", inFlight.Count()))
	}
	logger.Info("shutdown complete")
}

// newSource builds the configured measurement source. Remote backends are
// wrapped in a circuit breaker when enabled. The returned func releases any
// held connections.
func newSource(ctx context.Context, cfg *config.Config, clock clockwork.Clock, logger *zap.Logger) (dataset.Source, func(), error) {
	noop := func() {}

	var src dataset.Source
	closeFn := noop
	switch cfg.DataBackend {
	case config.BackendCSV:
		logger.Info("data backend: csv", zap.String("path", cfg.CSVPath))
		return dataset.NewCSVSource(cfg.CSVPath), noop, nil
	case config.BackendHTTP:
		s, err := dataset.NewHTTPSource(cfg.HTTPURL, cfg.HTTPTimeout, cfg.RetryAttempts, cfg.RetryBaseDelay, cfg.RetryMaxDelay)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("data backend: http", zap.String("url", cfg.HTTPURL))
		src = s
	case config.BackendPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := dataset.ConnectPostgres(connectCtx, cfg.DatabaseURL, cfg.PostgresMaxConns)
		if err != nil {
			return nil, nil, err
		}
		s, err := dataset.NewPostgresSource(pool, cfg.PostgresTable)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("data backend: postgres", zap.String("table", cfg.PostgresTable))
		src = s
		closeFn = pool.Close
	default:
		return nil, nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}

	if !cfg.CircuitBreakerEnabled {
		return src, closeFn, nil
	}
	cb := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
		Timeout:          cfg.CircuitBreakerTimeout,
		Component:        src.Name(),
		Clock:            clock,
		OnStateChange: func(component string, from, to circuitbreaker.State) {
			observability.RecordBreakerTransition(component, from.String(), to.String(), int(to))
			logger.Warn("circuit breaker state change",
				zap.String("component", component),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	logger.Info("circuit breaker enabled",
		zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
		zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	return dataset.NewGuardedSource(src, cb), closeFn, nil
}
