package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lalith-99/visaflow/internal/api"
	"github.com/lalith-99/visaflow/internal/config"
	"github.com/lalith-99/visaflow/internal/db"
	"github.com/lalith-99/visaflow/internal/events"
	"github.com/lalith-99/visaflow/internal/middleware"
	"github.com/lalith-99/visaflow/internal/observ"
	"github.com/lalith-99/visaflow/internal/portal"
	"github.com/lalith-99/visaflow/internal/repository/memory"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 1. Load config
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ---------------------------------------------------------------
	// 2. Create logger
	// ---------------------------------------------------------------
	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// ---------------------------------------------------------------
	// 3. Load seed data
	//
	// The stores live in memory only. Every start begins from the
	// fixtures and nothing survives a restart.
	// ---------------------------------------------------------------
	fixtures, err := db.Load(ctx, cfg.FixturesDir, logger)
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	// ---------------------------------------------------------------
	// 4. Metrics
	// ---------------------------------------------------------------
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observ.NewMetrics(registry)

	// ---------------------------------------------------------------
	// 5. Create stores
	//
	// One instance of each, shared by every handler. The application
	// store tells the client store which application is active.
	// ---------------------------------------------------------------
	storeOpts := []memory.Option{
		memory.WithLatency(memory.Latency{Scale: cfg.LatencyScale}),
		memory.WithMetrics(metrics),
	}
	clientRepo := memory.NewClientStore(fixtures.Clients, storeOpts...)
	applicationRepo := memory.NewApplicationStore(fixtures.Applications, clientRepo, storeOpts...)

	resolver := portal.NewResolver(clientRepo, applicationRepo, cfg.PortalMatch, logger)

	// ---------------------------------------------------------------
	// 6. Change events
	//
	// Without REDIS_URL events only reach websocket clients connected
	// to this process.
	// ---------------------------------------------------------------
	hub := events.NewHub(logger, metrics)
	var publisher events.Publisher = hub
	if cfg.RedisURL != "" {
		rdb, err := events.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer rdb.Close()

		bus := events.NewRedisBus(rdb, events.DefaultChannel, hub, logger)
		stopRelay, err := bus.Start(ctx)
		if err != nil {
			return fmt.Errorf("start event relay: %w", err)
		}
		defer stopRelay()
		publisher = bus
	}

	// ---------------------------------------------------------------
	// 7. Set up HTTP server
	// ---------------------------------------------------------------
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(metrics),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	api.RegisterRoutes(router, api.Deps{
		Clients:      clientRepo,
		Applications: applicationRepo,
		Portal:       resolver,
		Events:       publisher,
		Stream:       hub,
		Metrics:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting VisaFlow",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.Float64("latency_scale", cfg.LatencyScale),
		zap.String("portal_match", cfg.PortalMatch),
		zap.Bool("redis_events", cfg.RedisURL != ""),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept", "Content-Type", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
