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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/contact-intake/internal/api/router"
	"github.com/wolfman30/contact-intake/internal/app/bootstrap"
	appconfig "github.com/wolfman30/contact-intake/internal/config"
	"github.com/wolfman30/contact-intake/internal/contacts"
	"github.com/wolfman30/contact-intake/internal/http/handlers"
	"github.com/wolfman30/contact-intake/internal/observability/metrics"
	"github.com/wolfman30/contact-intake/pkg/logging"
)

func main() {
	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting contact intake API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	registry, metricsHandler, contactMetrics := setupMetrics()

	store, err := bootstrap.BuildStore(ctx, cfg, contactMetrics, logger)
	if err != nil {
		logger.Error("failed to configure contact store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	// Initialize handlers
	contactsHandler := contacts.NewHandler(store.Repository, logger).
		WithMetrics(contactMetrics).
		WithNotifier(bootstrap.BuildNotifier(cfg, logger))

	contactLimiter := bootstrap.BuildContactLimiter(cfg, redisClient, logger)
	if stopper, ok := contactLimiter.(interface{ Stop() }); ok {
		defer stopper.Stop()
	}

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		ContactsHandler:    contactsHandler,
		HealthHandler:      handlers.NewHealthHandler(registry),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Production:         cfg.Env == "production",
		AdminAuthSecret:    cfg.AdminJWTSecret,
		ContactLimiter:     contactLimiter,
		StaticDir:          cfg.StaticDir,
	})
	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; contact administration routes are unauthenticated")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (*prometheus.Registry, http.Handler, *metrics.ContactMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	contactMetrics := metrics.NewContactMetrics(registry)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return registry, handler, contactMetrics
}
