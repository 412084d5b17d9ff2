package repository

import (
	"context"
	"database/sql"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type EventRepository struct {
	db *database.DB
}

func NewEventRepository(db *database.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, organizer_id, title, description, start_date, end_date,
	       venue_id, price, is_cancelled, created_at, updated_at`

func scanEvent(row *sql.Row) (*models.Event, error) {
	event := &models.Event{}
	err := row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.StartDate,
		&event.EndDate,
		&event.VenueID,
		&event.Price,
		&event.IsCancelled,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return event, err
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	return scanEvent(r.db.QueryRowContext(ctx, query, id))
}

func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (organizer_id, title, description, start_date, end_date, venue_id, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_cancelled, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		event.OrganizerID,
		event.Title,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.VenueID,
		event.Price,
	).Scan(&event.ID, &event.IsCancelled, &event.CreatedAt, &event.UpdatedAt)
}

// Cancel marks the event cancelled; purchases and scans reject cancelled
// events on their own read paths.
func (r *EventRepository) Cancel(ctx context.Context, id int64) error {
	query := `UPDATE events SET is_cancelled = TRUE, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListIDs returns all event ids, used by the sync-seats CLI.
func (r *EventRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM events ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
