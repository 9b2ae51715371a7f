package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/the2dl/friendly-ad/internal/api"
	"github.com/the2dl/friendly-ad/internal/config"
	"github.com/the2dl/friendly-ad/internal/crypto"
	"github.com/the2dl/friendly-ad/internal/directory"
	"github.com/the2dl/friendly-ad/internal/prometheus"
	"github.com/the2dl/friendly-ad/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := setupLogger(cfg)
	logger.Info("Starting directory search service")

	prometheus.Init()

	// The cipher key gates everything: without it, rows already encrypted
	// in the registry would be unreadable, so refuse to start.
	cipher, err := crypto.NewCipherFromHex(cfg.EncryptionKey)
	if err != nil {
		logger.WithError(err).Fatal("Invalid or missing encryption key")
	}

	st, err := store.Open(cfg.DatabasePath, cipher, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open domain registry")
	}
	defer st.Close()
	logger.WithField("path", cfg.DatabasePath).Info("Domain registry opened")

	searcher := directory.NewService(st, cipher, cfg, logger)
	server := api.NewServer(cfg, searcher, st, logger)

	if cfg.NoCache {
		logger.Info("Response caching disabled")
	} else {
		logger.WithField("ttl", cfg.CacheTTL.String()).Info("Response caching enabled")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      server.Handler(cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go startMetricsServer(cfg, logger)

	go func() {
		logger.WithField("port", cfg.Port).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	waitForShutdown(srv, st, cfg, logger)
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetOutput(os.Stdout)

	if cfg.LogLevel == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger
}

func startMetricsServer(cfg *config.Config, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: mux,
	}

	logger.WithField("port", cfg.MetricsPort).Info("Starting metrics server")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Error("Metrics server failed")
	}
}

func waitForShutdown(srv *http.Server, st *store.Store, cfg *config.Config, logger *logrus.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	logger.WithField("signal", sig.String()).Info("Shutdown signal received")

	timeout := 30 * time.Second
	if cfg.ShutdownTimeout > 0 {
		timeout = time.Duration(cfg.ShutdownTimeout) * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("Shutting down HTTP server...")
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}

	logger.Info("Closing domain registry...")
	if err := st.Close(); err != nil {
		logger.WithError(err).Error("Registry close failed")
	}

	logger.Info("Shutdown complete")
}
