package repository

import (
	"context"
	"database/sql"
	"time"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type TicketRepository struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

// ticketColumns joins the tier name in so responses can show which tier
// priced the ticket. A deleted tier leaves the name null while the snapshot
// price stays on the ticket row.
const ticketColumns = `t.id, t.order_id, t.event_id, t.owner_id, t.price, t.pricing_tier_id,
	       t.ticket_code, t.is_scanned, t.used_at, t.seat_id, t.created_at, pt.name`

const ticketFrom = ` FROM tickets t LEFT JOIN pricing_tiers pt ON pt.id = t.pricing_tier_id`

func scanTicketRows(rows *sql.Rows) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for rows.Next() {
		var ticket models.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.OrderID,
			&ticket.EventID,
			&ticket.OwnerID,
			&ticket.Price,
			&ticket.PricingTierID,
			&ticket.TicketCode,
			&ticket.IsScanned,
			&ticket.UsedAt,
			&ticket.SeatID,
			&ticket.CreatedAt,
			&ticket.TierName,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func (r *TicketRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets, err := scanTicketRows(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, nil
	}
	return &tickets[0], nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	return r.getOne(ctx, `SELECT `+ticketColumns+ticketFrom+` WHERE t.id = $1`, id)
}

func (r *TicketRepository) GetByCode(ctx context.Context, code string) (*models.Ticket, error) {
	return r.getOne(ctx, `SELECT `+ticketColumns+ticketFrom+` WHERE t.ticket_code = $1`, code)
}

func (r *TicketRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ticketFrom + ` WHERE t.owner_id = $1 ORDER BY t.id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTicketRows(rows)
}

// CountByEvent returns how many tickets exist for the event. Used for the
// capacity check of venues without a seating layout.
func (r *TicketRepository) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE event_id = $1`, eventID).Scan(&count)
	return count, err
}

// MarkScanned consumes the ticket via compare-and-swap on is_scanned so two
// concurrent scans cannot both succeed.
func (r *TicketRepository) MarkScanned(ctx context.Context, id int64, usedAt time.Time) (bool, error) {
	query := `
		UPDATE tickets
		SET is_scanned = TRUE, used_at = $2
		WHERE id = $1 AND is_scanned = FALSE`

	result, err := r.db.ExecContext(ctx, query, id, usedAt)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected == 1, err
}
