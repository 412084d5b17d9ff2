package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seat lifecycle states.
const (
	SeatAvailable = "available"
	SeatReserved  = "reserved"
	SeatSold      = "sold"
)

// User represents a registered account in the system
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	Surname      string    `json:"surname" db:"surname"`
	IsStaff      bool      `json:"is_staff" db:"is_staff"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Principal is the identity attached to a request by the auth middleware.
type Principal struct {
	UserID  int64
	IsStaff bool
}

// Venue represents a physical location that can host events
type Venue struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	City      string    `json:"city" db:"city"`
	Capacity  *int      `json:"capacity" db:"capacity"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SeatingLayout is the optional seat map attached one-to-one to a venue.
type SeatingLayout struct {
	VenueID    int64      `json:"venue_id" db:"venue_id"`
	LayoutData LayoutData `json:"layout_data" db:"layout_data"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// Event represents an event in the system
type Event struct {
	ID          int64           `json:"id" db:"id"`
	OrganizerID int64           `json:"organizer_id" db:"organizer_id"`
	Title       string          `json:"title" db:"title"`
	Description *string         `json:"description" db:"description"`
	StartDate   time.Time       `json:"start_date" db:"start_date"`
	EndDate     *time.Time      `json:"end_date" db:"end_date"`
	VenueID     *int64          `json:"venue_id" db:"venue_id"`
	Price       decimal.Decimal `json:"price" db:"price"`
	IsCancelled bool            `json:"is_cancelled" db:"is_cancelled"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// HasStarted reports whether the event start time has passed.
func (e *Event) HasStarted(now time.Time) bool {
	return !e.StartDate.After(now)
}

// HasEnded reports whether the event end time is set and has passed.
func (e *Event) HasEnded(now time.Time) bool {
	return e.EndDate != nil && e.EndDate.Before(now)
}

// Seat represents one physical seat of an event, generated from the
// venue seating layout. Identified by (event, section, row, number).
type Seat struct {
	ID                int64      `json:"id" db:"id"`
	EventID           int64      `json:"event_id" db:"event_id"`
	VenueID           int64      `json:"venue_id" db:"venue_id"`
	Section           string     `json:"section" db:"section"`
	RowLabel          string     `json:"row" db:"row_label"`
	SeatNumber        string     `json:"number" db:"seat_number"`
	Status            string     `json:"status" db:"status"`
	ReservedBy        *int64     `json:"reserved_by" db:"reserved_by"`
	ReservationExpiry *time.Time `json:"reservation_expiry" db:"reservation_expiry"`
	TicketID          *int64     `json:"ticket_id" db:"ticket_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// Label returns the human-readable seat identifier used in error payloads.
func (s *Seat) Label() string {
	return s.Section + "-" + s.RowLabel + "-" + s.SeatNumber
}

// ActivelyReserved reports whether the seat holds a live reservation.
// A reserved seat whose expiry has passed is treated as available by
// every reader; the physical reset happens lazily on the next transition.
func (s *Seat) ActivelyReserved(now time.Time) bool {
	return s.Status == SeatReserved && s.ReservationExpiry != nil && s.ReservationExpiry.After(now)
}

// LogicallyAvailable reports whether the seat can be taken by anyone,
// counting expired reservations as free.
func (s *Seat) LogicallyAvailable(now time.Time) bool {
	if s.Status == SeatAvailable {
		return true
	}
	return s.Status == SeatReserved && !s.ActivelyReserved(now)
}

// PurchasableBy reports whether userID may buy this seat right now:
// either it is logically available, or the user holds a live hold on it.
func (s *Seat) PurchasableBy(userID int64, now time.Time) bool {
	if s.LogicallyAvailable(now) {
		return true
	}
	return s.ActivelyReserved(now) && s.ReservedBy != nil && *s.ReservedBy == userID
}

// PricingTier is a time-windowed, quantity-capped price override for an event.
type PricingTier struct {
	ID                int64           `json:"id" db:"id"`
	EventID           int64           `json:"event_id" db:"event_id"`
	Name              string          `json:"name" db:"name"`
	Price             decimal.Decimal `json:"price" db:"price"`
	StartDate         time.Time       `json:"start_date" db:"start_date"`
	EndDate           *time.Time      `json:"end_date" db:"end_date"`
	QuantityThreshold int             `json:"quantity_threshold" db:"quantity_threshold"`
}

// ActiveAt reports whether now falls inside the tier window.
func (t *PricingTier) ActiveAt(now time.Time) bool {
	if t.StartDate.After(now) {
		return false
	}
	return t.EndDate == nil || !t.EndDate.Before(now)
}

// Exhausted reports whether the tier quantity cap has been reached.
// A threshold of zero means unlimited.
func (t *PricingTier) Exhausted(sold int) bool {
	return t.QuantityThreshold > 0 && sold >= t.QuantityThreshold
}

// TierAvailability pairs a tier with its fresh sold-ticket count.
type TierAvailability struct {
	Tier PricingTier
	Sold int
}

// SelectTier walks tiers ordered by (price asc, start_date asc) and returns
// the first one that is active and not exhausted, or nil. Cheapest-first is
// deliberate: competing tiers in the same window model early-bird pricing,
// so the buyer gets the best price still open at purchase time.
func SelectTier(tiers []TierAvailability, now time.Time) *PricingTier {
	for i := range tiers {
		t := &tiers[i].Tier
		if !t.ActiveAt(now) {
			continue
		}
		if t.Exhausted(tiers[i].Sold) {
			continue
		}
		return t
	}
	return nil
}

// Order is the buyer-facing aggregate. TotalAmount and Quantity are a
// denormalized ledger recomputed from child tickets on every create/delete.
type Order struct {
	ID          int64           `json:"id" db:"id"`
	BuyerID     int64           `json:"buyer_id" db:"buyer_id"`
	OrderedAt   time.Time       `json:"ordered_at" db:"ordered_at"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Tickets     []Ticket        `json:"tickets,omitempty"` // Not from DB, filled separately
}

// Ticket represents an admission right. Price is a snapshot taken at
// purchase time and never changes afterwards. A nil PricingTierID means
// the event base price was used; a nil SeatID means general admission.
type Ticket struct {
	ID            int64           `json:"id" db:"id"`
	OrderID       int64           `json:"order_id" db:"order_id"`
	EventID       int64           `json:"event_id" db:"event_id"`
	OwnerID       int64           `json:"owner_id" db:"owner_id"`
	Price         decimal.Decimal `json:"price" db:"price"`
	PricingTierID *int64          `json:"pricing_tier_id" db:"pricing_tier_id"`
	TicketCode    string          `json:"ticket_code" db:"ticket_code"`
	IsScanned     bool            `json:"is_scanned" db:"is_scanned"`
	UsedAt        *time.Time      `json:"used_at" db:"used_at"`
	SeatID        *int64          `json:"seat_id" db:"seat_id"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	TierName      *string         `json:"tier_name,omitempty"` // Joined from pricing_tiers, not a column
}
