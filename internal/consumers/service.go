package consumers

import (
	"context"
	"log/slog"

	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/messaging"
	"stagepass/internal/models"
	"stagepass/internal/repository"
	"stagepass/internal/service"
)

// ConsumerService runs the NATS subscribers for domain events.
type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	services *service.Services
	handlers *Handlers
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		return nil, err
	}

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, nil)
	handlers := NewHandlers(services)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		services: services,
		handlers: handlers,
	}, nil
}

// Services exposes the wired services so the binary can share them with
// background jobs.
func (cs *ConsumerService) Services() *service.Services {
	return cs.services
}

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	// Saved events trigger seat regeneration.
	_, err := cs.nats.SubscribeQueue(models.EventSaved, "consumers", cs.handlers.HandleEventSaved)
	if err != nil {
		return err
	}

	// The rest are observational.
	_, err = cs.nats.SubscribeQueue(models.EventOrderPurchased, "consumers", cs.handlers.HandleOrderPurchased)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue(models.EventTicketScanned, "consumers", cs.handlers.HandleTicketScanned)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue(models.EventSeatReserved, "consumers", cs.handlers.HandleSeatReserved)
	if err != nil {
		return err
	}

	_, err = cs.nats.SubscribeQueue(models.EventSeatReleased, "consumers", cs.handlers.HandleSeatReleased)
	if err != nil {
		return err
	}

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	if cs.nats != nil {
		if err := cs.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
