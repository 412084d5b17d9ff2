package repository

import (
	"context"
	"database/sql"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type VenueRepository struct {
	db *database.DB
}

func NewVenueRepository(db *database.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) GetByID(ctx context.Context, id int64) (*models.Venue, error) {
	venue := &models.Venue{}
	query := `
		SELECT id, name, address, city, capacity, created_at, updated_at
		FROM venues
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&venue.ID,
		&venue.Name,
		&venue.Address,
		&venue.City,
		&venue.Capacity,
		&venue.CreatedAt,
		&venue.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return venue, err
}

// GetLayout returns the seating layout attached to a venue, or nil when the
// venue has none (general-admission venue).
func (r *VenueRepository) GetLayout(ctx context.Context, venueID int64) (*models.SeatingLayout, error) {
	layout := &models.SeatingLayout{}
	query := `
		SELECT venue_id, layout_data, created_at, updated_at
		FROM seating_layouts
		WHERE venue_id = $1`

	err := r.db.QueryRowContext(ctx, query, venueID).Scan(
		&layout.VenueID,
		&layout.LayoutData,
		&layout.CreatedAt,
		&layout.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return layout, err
}

func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	query := `
		INSERT INTO venues (name, address, city, capacity)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		venue.Name,
		venue.Address,
		venue.City,
		venue.Capacity,
	).Scan(&venue.ID, &venue.CreatedAt, &venue.UpdatedAt)
}

// SaveLayout inserts or replaces the one-to-one seating layout of a venue.
func (r *VenueRepository) SaveLayout(ctx context.Context, layout *models.SeatingLayout) error {
	query := `
		INSERT INTO seating_layouts (venue_id, layout_data)
		VALUES ($1, $2)
		ON CONFLICT (venue_id) DO UPDATE SET layout_data = $2, updated_at = NOW()`

	_, err := r.db.ExecContext(ctx, query, layout.VenueID, layout.LayoutData)
	return err
}
