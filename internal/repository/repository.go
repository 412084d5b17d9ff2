package repository

import (
	"stagepass/internal/database"
)

// Repositories aggregates all data-access repositories.
type Repositories struct {
	Users     *UserRepository
	Venues    *VenueRepository
	Events    *EventRepository
	Seats     *SeatRepository
	Tiers     *PricingTierRepository
	Orders    *OrderRepository
	Tickets   *TicketRepository
	Purchases *PurchaseRepository
}

// NewRepositories creates all repositories sharing one database handle.
func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Users:     NewUserRepository(db),
		Venues:    NewVenueRepository(db),
		Events:    NewEventRepository(db),
		Seats:     NewSeatRepository(db),
		Tiers:     NewPricingTierRepository(db),
		Orders:    NewOrderRepository(db),
		Tickets:   NewTicketRepository(db),
		Purchases: NewPurchaseRepository(db),
	}
}
