package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NATS subjects for domain events
const (
	EventSeatReserved     = "seat.reserved"
	EventSeatUnreserved   = "seat.unreserved"
	EventSeatReleased     = "seat.released"
	EventOrderPurchased   = "order.purchased"
	EventTicketScanned    = "ticket.scanned"
	EventSeatsRegenerated = "event.seats_regenerated"
	EventSaved            = "event.saved"
)

// SeatReservedEvent is published when a buyer places a hold on a seat
type SeatReservedEvent struct {
	SeatID    int64     `json:"seat_id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatUnreservedEvent is published when a hold is released before expiry
type SeatUnreservedEvent struct {
	SeatID    int64     `json:"seat_id"`
	EventID   int64     `json:"event_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// SeatReleasedEvent is published when a sold seat is refunded back to available
type SeatReleasedEvent struct {
	SeatID    int64     `json:"seat_id"`
	EventID   int64     `json:"event_id"`
	TicketID  *int64    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPurchasedEvent is published after a purchase transaction commits
type OrderPurchasedEvent struct {
	OrderID     int64           `json:"order_id"`
	EventID     int64           `json:"event_id"`
	BuyerID     int64           `json:"buyer_id"`
	Quantity    int             `json:"quantity"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TierName    *string         `json:"tier_name"`
	Timestamp   time.Time       `json:"timestamp"`
}

// TicketScannedEvent is published when a ticket is consumed at entry
type TicketScannedEvent struct {
	TicketID   int64     `json:"ticket_id"`
	TicketCode string    `json:"ticket_code"`
	EventID    int64     `json:"event_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// SeatsRegeneratedEvent is published after seats are rebuilt from a layout
type SeatsRegeneratedEvent struct {
	EventID      int64     `json:"event_id"`
	SeatsCreated int       `json:"seats_created"`
	Timestamp    time.Time `json:"timestamp"`
}

// EventSavedEvent is emitted by the event CRUD surface after persisting an
// event; the consumer regenerates seats when a venue layout is attached.
type EventSavedEvent struct {
	EventID   int64     `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}
