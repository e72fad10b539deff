// Package app initializes and holds the long-lived services of the crawler,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/catalog"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/collector"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/config"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/fetcher"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/logging"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/metrics"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/pipeline"
	"github.com/lvmai1801it-dev/Full-WEB-Audio/internal/queue"
)

// App owns every long-lived resource: the logger, the connection pool, the
// headless browser session and the optional metrics listener. It is built
// once at startup and torn down by Close in reverse order.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Catalog  *catalog.Store
	Queue    *queue.Store
	Pipeline *pipeline.Pipeline

	pool          *pgxpool.Pool
	fetcher       *fetcher.Chromedp
	metricsServer *http.Server
}

// New builds the full service graph from configuration, failing fast when
// the database is unreachable.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse db dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.DB.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	logger.Info("database connected", zap.Int("max_conns", cfg.DB.MaxConns))

	f := fetcher.NewChromedp(fetcher.Config{
		UserAgent:   cfg.Crawler.UserAgent,
		Delay:       cfg.Crawler.Delay(),
		NavTimeout:  cfg.Crawler.NavTimeout(),
		SettleDelay: cfg.Crawler.SettleDelay(),
	}, logger)

	catalogStore := catalog.NewStore(pool, logger)
	queueStore := queue.NewStore(pool, logger)
	links := collector.New(f, logger)
	pipe := pipeline.New(f, catalogStore, links, cfg.Crawler.BaseURL, logger)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Catalog:  catalogStore,
		Queue:    queueStore,
		Pipeline: pipe,
		pool:     pool,
		fetcher:  f,
	}

	if cfg.Metrics.Enabled {
		a.metricsServer = startMetricsServer(cfg.Metrics.Port, logger)
	}

	return a, nil
}

func startMetricsServer(port int, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              net.JoinHostPort("", fmt.Sprintf("%d", port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

// Close tears the container down: metrics listener first, then the browser
// session, then the pool, and finally flushes the logger.
func (a *App) Close() {
	a.Logger.Info("shutting down")

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.Logger.Warn("metrics server shutdown", zap.Error(err))
		}
		cancel()
	}
	if a.fetcher != nil {
		a.fetcher.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
	_ = a.Logger.Sync()
}
