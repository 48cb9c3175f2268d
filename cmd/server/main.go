package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"retail-cockpit-api/internal/config"
	"retail-cockpit-api/pkg/server"
)

// @title Retail Cockpit API
// @version 1.0
// @description Sales KPI dashboard, team tasks and data import for retail stores

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8081
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	logger := cfg.Logging.NewLogger()

	ctx, cancel := context.WithCancel(context.Background())

	container, err := server.NewContainer(ctx, cfg, logger)
	if err != nil {
		cancel()
		logger.WithError(err).Fatal("Failed to initialize container")
	}
	container.Start(ctx)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      container.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithFields(logrus.Fields{
		"addr":        srv.Addr,
		"environment": cfg.Environment,
		"source":      cfg.RecordStore.Source,
		"version":     server.Version,
	}).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	cancel()
	container.Wait()
	if err := container.Close(); err != nil {
		logger.WithError(err).Error("Failed to close container")
	}

	logger.Info("Server exited")
}
