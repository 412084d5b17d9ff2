package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateEventRequest - payload for creating an event
type CreateEventRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description *string         `json:"description"`
	StartDate   time.Time       `json:"start_date" binding:"required"`
	EndDate     *time.Time      `json:"end_date"`
	VenueID     *int64          `json:"venue_id"`
	Price       decimal.Decimal `json:"price"`
}

// CreateEventResponse - response after creating an event
type CreateEventResponse struct {
	ID           int64 `json:"id"`
	SeatsCreated int   `json:"seats_created"`
}

// EventResponse - event with its derived seat availability. AvailableSeats
// is recomputed from seat rows on every read and only present for events
// whose venue has a seating layout.
type EventResponse struct {
	Event
	AvailableSeats *int `json:"available_seats,omitempty"`
}

// CurrentPriceResponse - response of the public current-price endpoint
type CurrentPriceResponse struct {
	Price          decimal.Decimal `json:"price"`
	TierName       *string         `json:"tier_name"`
	IsDynamicPrice bool            `json:"is_dynamic_price"`
}

// PricingTierRequest - payload for creating or replacing a pricing tier
type PricingTierRequest struct {
	Name              string          `json:"name" binding:"required"`
	Price             decimal.Decimal `json:"price"`
	StartDate         *time.Time      `json:"start_date"`
	EndDate           *time.Time      `json:"end_date"`
	QuantityThreshold int             `json:"quantity_threshold"`
}

// ListSeatsResponseItem - one seat in the seat listing
type ListSeatsResponseItem struct {
	ID                int64      `json:"id"`
	Section           string     `json:"section"`
	Row               string     `json:"row"`
	Number            string     `json:"number"`
	Status            string     `json:"status"`
	ReservationExpiry *time.Time `json:"reservation_expiry,omitempty"`
}

// ListSeatsResponse - seat listing for an event
type ListSeatsResponse []ListSeatsResponseItem

// SeatResponse - full seat state returned by seat state transitions
type SeatResponse struct {
	ID                int64      `json:"id"`
	EventID           int64      `json:"event_id"`
	Section           string     `json:"section"`
	Row               string     `json:"row"`
	Number            string     `json:"number"`
	Status            string     `json:"status"`
	ReservedBy        *int64     `json:"reserved_by"`
	ReservationExpiry *time.Time `json:"reservation_expiry"`
}

// SeatToResponse converts a seat entity to its API shape.
func SeatToResponse(s *Seat) SeatResponse {
	return SeatResponse{
		ID:                s.ID,
		EventID:           s.EventID,
		Section:           s.Section,
		Row:               s.RowLabel,
		Number:            s.SeatNumber,
		Status:            s.Status,
		ReservedBy:        s.ReservedBy,
		ReservationExpiry: s.ReservationExpiry,
	}
}

// PurchaseTicketsRequest - payload of the batch purchase endpoint.
// SelectedSeats is required for events with a seating layout and must be
// empty for general-admission events.
type PurchaseTicketsRequest struct {
	EventID       int64   `json:"event_id" binding:"required"`
	Quantity      int     `json:"quantity" binding:"required,min=1"`
	SelectedSeats []int64 `json:"selected_seats"`
}

// TicketResponse - one ticket in an order response
type TicketResponse struct {
	ID         int64           `json:"id"`
	EventID    int64           `json:"event_id"`
	Price      decimal.Decimal `json:"price"`
	TierName   *string         `json:"tier_name,omitempty"`
	TicketCode string          `json:"ticket_code"`
	IsScanned  bool            `json:"is_scanned"`
	UsedAt     *time.Time      `json:"used_at"`
	SeatID     *int64          `json:"seat_id"`
}

// OrderResponse - order with its tickets and ledger fields
type OrderResponse struct {
	ID          int64            `json:"id"`
	BuyerID     int64            `json:"buyer_id"`
	OrderedAt   time.Time        `json:"ordered_at"`
	TotalAmount decimal.Decimal  `json:"total_amount"`
	Quantity    int              `json:"quantity"`
	Tickets     []TicketResponse `json:"tickets"`
}

// TicketToResponse converts a ticket entity to its API shape.
func TicketToResponse(t *Ticket) TicketResponse {
	return TicketResponse{
		ID:         t.ID,
		EventID:    t.EventID,
		Price:      t.Price,
		TierName:   t.TierName,
		TicketCode: t.TicketCode,
		IsScanned:  t.IsScanned,
		UsedAt:     t.UsedAt,
		SeatID:     t.SeatID,
	}
}

// OrderToResponse converts an order entity (with tickets attached) to its
// API shape.
func OrderToResponse(o *Order) OrderResponse {
	tickets := make([]TicketResponse, len(o.Tickets))
	for i := range o.Tickets {
		tickets[i] = TicketToResponse(&o.Tickets[i])
	}
	return OrderResponse{
		ID:          o.ID,
		BuyerID:     o.BuyerID,
		OrderedAt:   o.OrderedAt,
		TotalAmount: o.TotalAmount,
		Quantity:    o.Quantity,
		Tickets:     tickets,
	}
}

// ScanTicketRequest - payload of the ticket scan endpoint
type ScanTicketRequest struct {
	TicketCode string `json:"ticket_code" binding:"required"`
}

// RegenerateSeatsResponse - result of a seat regeneration run
type RegenerateSeatsResponse struct {
	EventID      int64 `json:"event_id"`
	SeatsCreated int   `json:"seats_created"`
}
