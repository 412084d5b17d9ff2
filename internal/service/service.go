package service

import (
	"stagepass/internal/cache"
	"stagepass/internal/messaging"
	"stagepass/internal/models"
	"stagepass/internal/repository"
)

// Services aggregates the business-logic services.
type Services struct {
	Events       *EventService
	Pricing      *PricingService
	Reservations *ReservationService
	Purchases    *PurchaseService
}

// NewServices wires all services to the shared repositories, message bus and
// cache. natsClient and cacheClient may be nil; publishing and caching are
// then skipped.
func NewServices(repos *repository.Repositories, natsClient *messaging.NATSClient, cacheClient *cache.Client) *Services {
	pricing := NewPricingService(repos, cacheClient)
	return &Services{
		Events:       NewEventService(repos, natsClient),
		Pricing:      pricing,
		Reservations: NewReservationService(repos, natsClient),
		Purchases:    NewPurchaseService(repos, natsClient, pricing),
	}
}

// canManage reports whether the principal may administer the event.
func canManage(p models.Principal, e *models.Event) bool {
	return p.IsStaff || p.UserID == e.OrganizerID
}
