package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stagepass/internal/api"
	"stagepass/internal/cache"
	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/handlers"
	"stagepass/internal/logger"
	"stagepass/internal/messaging"
	"stagepass/internal/repository"
	"stagepass/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Redis and NATS are soft dependencies: without them the API still works,
	// it just skips caching and event publishing.
	cacheClient, err := cache.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("Redis unavailable, running without cache", "error", err)
		cacheClient = nil
	} else {
		defer cacheClient.Close()
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		slog.Warn("NATS unavailable, running without event publishing", "error", err)
		natsClient = nil
	} else {
		defer natsClient.Close()
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, cacheClient)
	h := handlers.New(services)

	server := api.NewServer(cfg, h, repos, cacheClient, db)

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped")
}
