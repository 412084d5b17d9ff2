package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stagepass/internal/database"
	"stagepass/internal/models"

	"github.com/lib/pq"
)

type SeatRepository struct {
	db *database.DB
}

func NewSeatRepository(db *database.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

const seatColumns = `id, event_id, venue_id, section, row_label, seat_number, status,
	       reserved_by, reservation_expiry, ticket_id, created_at, updated_at`

func scanSeatRows(rows *sql.Rows) ([]models.Seat, error) {
	var seats []models.Seat
	for rows.Next() {
		var seat models.Seat
		err := rows.Scan(
			&seat.ID,
			&seat.EventID,
			&seat.VenueID,
			&seat.Section,
			&seat.RowLabel,
			&seat.SeatNumber,
			&seat.Status,
			&seat.ReservedBy,
			&seat.ReservationExpiry,
			&seat.TicketID,
			&seat.CreatedAt,
			&seat.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		seats = append(seats, seat)
	}
	return seats, rows.Err()
}

// ListByEvent returns the event's seats in stable section/row/number order,
// optionally filtered by status.
func (r *SeatRepository) ListByEvent(ctx context.Context, eventID int64, status *string) ([]models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE event_id = $1`
	args := []interface{}{eventID}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}

	query += ` ORDER BY section, row_label, seat_number`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeatRows(rows)
}

func (r *SeatRepository) GetByID(ctx context.Context, id int64) (*models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats, err := scanSeatRows(rows)
	if err != nil {
		return nil, err
	}
	if len(seats) == 0 {
		return nil, nil
	}
	return &seats[0], nil
}

// GetByIDsForEvent fetches the requested seats belonging to one event.
// Seats of other events are silently absent from the result; callers treat
// missing ids as invalid selections.
func (r *SeatRepository) GetByIDsForEvent(ctx context.Context, eventID int64, ids []int64) ([]models.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE event_id = $1 AND id = ANY($2)`

	rows, err := r.db.QueryContext(ctx, query, eventID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSeatRows(rows)
}

// CountAvailable recomputes the event's free-seat count from current seat
// rows, counting expired reservations as free. Never cached.
func (r *SeatRepository) CountAvailable(ctx context.Context, eventID int64, now time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM seats
		WHERE event_id = $1
		  AND (status = 'available'
		       OR (status = 'reserved' AND reservation_expiry < $2))`

	var count int
	err := r.db.QueryRowContext(ctx, query, eventID, now).Scan(&count)
	return count, err
}

// Reserve places a hold via compare-and-swap: the update only applies while
// the seat is still available (or carries an expired hold). Zero rows
// affected means another writer won the race.
func (r *SeatRepository) Reserve(ctx context.Context, seatID, userID int64, expiry time.Time) (bool, error) {
	query := `
		UPDATE seats
		SET status = 'reserved', reserved_by = $2, reservation_expiry = $3, updated_at = NOW()
		WHERE id = $1
		  AND (status = 'available'
		       OR (status = 'reserved' AND reservation_expiry < NOW()))`

	result, err := r.db.ExecContext(ctx, query, seatID, userID, expiry)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected == 1, err
}

// Unreserve clears a hold. Staff may clear anyone's hold; the update still
// requires reserved status so a concurrent purchase cannot be undone.
func (r *SeatRepository) Unreserve(ctx context.Context, seatID, userID int64, staff bool) (bool, error) {
	query := `
		UPDATE seats
		SET status = 'available', reserved_by = NULL, reservation_expiry = NULL, updated_at = NOW()
		WHERE id = $1 AND status = 'reserved' AND (reserved_by = $2 OR $3)`

	result, err := r.db.ExecContext(ctx, query, seatID, userID, staff)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	return affected == 1, err
}

// ResetExpiredHolds bulk-resets reserved seats whose expiry has passed.
// This is the optional active sweep; correctness never depends on it since
// every transition re-checks expiry itself.
func (r *SeatRepository) ResetExpiredHolds(ctx context.Context) (int64, error) {
	query := `
		UPDATE seats
		SET status = 'available', reserved_by = NULL, reservation_expiry = NULL, updated_at = NOW()
		WHERE status = 'reserved' AND reservation_expiry < NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RegenerateForEvent deletes the event's seats and recreates them from the
// venue layout in one transaction. Returns the number of seats created.
func (r *SeatRepository) RegenerateForEvent(ctx context.Context, eventID, venueID int64, layout *models.LayoutData) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE event_id = $1`, eventID); err != nil {
		return 0, fmt.Errorf("failed to clear existing seats: %w", err)
	}

	positions := layout.ExpandSeats()
	insertQuery := `
		INSERT INTO seats (event_id, venue_id, section, row_label, seat_number, status)
		VALUES ($1, $2, $3, $4, $5, 'available')`

	for _, pos := range positions {
		if _, err := tx.ExecContext(ctx, insertQuery, eventID, venueID, pos.Section, pos.RowLabel, pos.SeatNumber); err != nil {
			return 0, fmt.Errorf("failed to create seat %s-%s-%s: %w", pos.Section, pos.RowLabel, pos.SeatNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return len(positions), nil
}
