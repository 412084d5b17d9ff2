package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/logger"
	"stagepass/internal/repository"
	"stagepass/internal/service"
)

func main() {
	var eventID int64
	flag.Int64Var(&eventID, "event-id", 0, "Event ID to rebuild seats for (0 = all events)")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	slog.Info("Starting seat synchronization", "event_id", eventID)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, nil, nil)

	ctx := context.Background()
	start := time.Now()

	var ids []int64
	if eventID > 0 {
		ids = []int64{eventID}
	} else {
		ids, err = repos.Events.ListIDs(ctx)
		if err != nil {
			logger.Fatal("Failed to list events", "error", err)
		}
	}

	for _, id := range ids {
		if err := services.Events.OnEventSaved(ctx, id); err != nil {
			logger.Fatal("Seat synchronization failed", "event_id", id, "error", err)
		}
	}

	slog.Info("Seat synchronization completed",
		"events_processed", len(ids),
		"duration", time.Since(start).String())
}
