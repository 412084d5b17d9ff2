package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"stagepass/internal/apperrors"
	"stagepass/internal/database"
	"stagepass/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PurchaseRepository owns the multi-table transactions that move seats to
// sold and back. Everything here runs under row locks so the validation a
// caller did outside the transaction is repeated on locked state before any
// write happens.
type PurchaseRepository struct {
	db *database.DB
}

func NewPurchaseRepository(db *database.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// PurchaseInput carries the pre-validated purchase into the commit phase.
// SeatIDs empty means general admission; Capacity is the venue capacity for
// capacity-limited general admission, nil for unlimited.
type PurchaseInput struct {
	Event    *models.Event
	BuyerID  int64
	Quantity int
	SeatIDs  []int64
	Capacity *int
	Now      time.Time
}

// ExecutePurchase runs the entire commit phase in one transaction: lock the
// event row, lock and re-validate the selected seats, re-check availability,
// resolve the price from fresh tier state, create the order and its tickets,
// flip seats to sold, and recompute the order ledger. Any failed re-check
// rolls everything back and surfaces as a conflict.
func (r *PurchaseRepository) ExecutePurchase(ctx context.Context, in PurchaseInput) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin purchase transaction: %w", err)
	}
	defer tx.Rollback()

	// The event row lock serializes concurrent purchases for the same event,
	// which makes the capacity arithmetic below race-free.
	var lockedID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, in.Event.ID).Scan(&lockedID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock event: %w", err)
	}

	var seats []models.Seat
	if len(in.SeatIDs) > 0 {
		seats, err = r.lockSeats(ctx, tx, in)
		if err != nil {
			return nil, err
		}
	} else if err := r.checkGeneralAvailability(ctx, tx, in); err != nil {
		return nil, err
	}

	tiers, err := activeTiersWithSales(ctx, tx, in.Event.ID, in.Now)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing tiers: %w", err)
	}

	price := in.Event.Price
	var tierID *int64
	var tierName *string
	if tier := models.SelectTier(tiers, in.Now); tier != nil {
		price = tier.Price
		id := tier.ID
		tierID = &id
		name := tier.Name
		tierName = &name
	}

	order := &models.Order{BuyerID: in.BuyerID}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (buyer_id) VALUES ($1) RETURNING id, ordered_at`,
		in.BuyerID,
	).Scan(&order.ID, &order.OrderedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	insertTicket := `
		INSERT INTO tickets (order_id, event_id, owner_id, price, pricing_tier_id, ticket_code, seat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	markSold := `
		UPDATE seats
		SET status = 'sold', reserved_by = NULL, reservation_expiry = NULL,
		    ticket_id = $2, updated_at = NOW()
		WHERE id = $1`

	for i := 0; i < in.Quantity; i++ {
		ticket := models.Ticket{
			OrderID:       order.ID,
			EventID:       in.Event.ID,
			OwnerID:       in.BuyerID,
			Price:         price,
			PricingTierID: tierID,
			TicketCode:    uuid.New().String(),
			TierName:      tierName,
		}
		if i < len(seats) {
			seatID := seats[i].ID
			ticket.SeatID = &seatID
		}

		err = tx.QueryRowContext(ctx, insertTicket,
			ticket.OrderID,
			ticket.EventID,
			ticket.OwnerID,
			ticket.Price,
			ticket.PricingTierID,
			ticket.TicketCode,
			ticket.SeatID,
		).Scan(&ticket.ID, &ticket.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to create ticket: %w", err)
		}

		if ticket.SeatID != nil {
			if _, err := tx.ExecContext(ctx, markSold, *ticket.SeatID, ticket.ID); err != nil {
				return nil, fmt.Errorf("failed to mark seat sold: %w", err)
			}
		}

		order.Tickets = append(order.Tickets, ticket)
	}

	if err := RecomputeLedger(ctx, tx, order.ID); err != nil {
		return nil, fmt.Errorf("failed to update order ledger: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		`SELECT total_amount, quantity FROM orders WHERE id = $1`, order.ID,
	).Scan(&order.TotalAmount, &order.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to read order ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit purchase: %w", err)
	}

	return order, nil
}

// lockSeats takes FOR UPDATE locks on the selected seats and re-validates
// them against the locked state. Seats that stopped being purchasable since
// the caller's pre-check lost a race, so the failure is a conflict listing
// every problematic seat.
func (r *PurchaseRepository) lockSeats(ctx context.Context, tx querier, in PurchaseInput) ([]models.Seat, error) {
	query := `SELECT ` + seatColumns + `
		FROM seats
		WHERE event_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE`

	rows, err := tx.QueryContext(ctx, query, in.Event.ID, pq.Array(in.SeatIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to lock seats: %w", err)
	}
	defer rows.Close()

	seats, err := scanSeatRows(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*models.Seat, len(seats))
	for i := range seats {
		byID[seats[i].ID] = &seats[i]
	}

	var badLabels []string
	for _, id := range in.SeatIDs {
		seat, ok := byID[id]
		if !ok {
			badLabels = append(badLabels, fmt.Sprintf("seat %d", id))
			continue
		}
		if !seat.PurchasableBy(in.BuyerID, in.Now) {
			badLabels = append(badLabels, seat.Label())
		}
	}
	if len(badLabels) > 0 {
		sort.Strings(badLabels)
		return nil, apperrors.Conflict("selected seats are no longer available").WithField("seats", badLabels...)
	}

	ordered := make([]models.Seat, 0, len(in.SeatIDs))
	for _, id := range in.SeatIDs {
		ordered = append(ordered, *byID[id])
	}
	return ordered, nil
}

// checkGeneralAvailability re-checks remaining capacity for a general
// admission purchase under the event lock. A nil capacity means unlimited.
func (r *PurchaseRepository) checkGeneralAvailability(ctx context.Context, tx *sql.Tx, in PurchaseInput) error {
	if in.Capacity == nil {
		return nil
	}

	var sold int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE event_id = $1`, in.Event.ID,
	).Scan(&sold)
	if err != nil {
		return fmt.Errorf("failed to count sold tickets: %w", err)
	}
	if *in.Capacity-sold < in.Quantity {
		return apperrors.Conflict("not enough capacity remaining")
	}
	return nil
}

// ReleaseSoldSeat deletes the ticket occupying a sold seat and returns the
// seat to available, recomputing the owning order's ledger in the same
// transaction. Returns the deleted ticket.
func (r *PurchaseRepository) ReleaseSoldSeat(ctx context.Context, seatID int64) (*models.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin release transaction: %w", err)
	}
	defer tx.Rollback()

	var seat models.Seat
	err = tx.QueryRowContext(ctx, `
		SELECT id, status, ticket_id FROM seats WHERE id = $1 FOR UPDATE`, seatID,
	).Scan(&seat.ID, &seat.Status, &seat.TicketID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("seat")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock seat: %w", err)
	}

	if seat.Status != models.SeatSold || seat.TicketID == nil {
		return nil, apperrors.Validation("seat is not sold")
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+ticketColumns+ticketFrom+` WHERE t.id = $1`, *seat.TicketID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}
	tickets, err := scanTicketRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, apperrors.NotFound("ticket")
	}
	ticket := tickets[0]

	if _, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, ticket.ID); err != nil {
		return nil, fmt.Errorf("failed to delete ticket: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE seats
		SET status = 'available', reserved_by = NULL, reservation_expiry = NULL,
		    ticket_id = NULL, updated_at = NOW()
		WHERE id = $1`, seatID)
	if err != nil {
		return nil, fmt.Errorf("failed to reset seat: %w", err)
	}

	if err := RecomputeLedger(ctx, tx, ticket.OrderID); err != nil {
		return nil, fmt.Errorf("failed to update order ledger: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit release: %w", err)
	}

	return &ticket, nil
}
