package repository

import (
	"context"
	"database/sql"
	"time"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type PricingTierRepository struct {
	db *database.DB
}

func NewPricingTierRepository(db *database.DB) *PricingTierRepository {
	return &PricingTierRepository{db: db}
}

const tierColumns = `id, event_id, name, price, start_date, end_date, quantity_threshold`

func scanTierRows(rows *sql.Rows) ([]models.PricingTier, error) {
	var tiers []models.PricingTier
	for rows.Next() {
		var tier models.PricingTier
		err := rows.Scan(
			&tier.ID,
			&tier.EventID,
			&tier.Name,
			&tier.Price,
			&tier.StartDate,
			&tier.EndDate,
			&tier.QuantityThreshold,
		)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	return tiers, rows.Err()
}

func (r *PricingTierRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.PricingTier, error) {
	query := `SELECT ` + tierColumns + ` FROM pricing_tiers WHERE event_id = $1 ORDER BY start_date, price`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTierRows(rows)
}

// querier is satisfied by both *database.DB and *sql.Tx, so tier candidates
// can be read inside the purchase transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// ActiveWithSales returns the tiers whose window contains now, ordered
// cheapest-first (start date breaking ties), each paired with a fresh count
// of tickets sold under it. Sold counts are re-derived on every call, so a
// deleted ticket can un-exhaust a tier.
func (r *PricingTierRepository) ActiveWithSales(ctx context.Context, eventID int64, now time.Time) ([]models.TierAvailability, error) {
	return activeTiersWithSales(ctx, r.db, eventID, now)
}

func activeTiersWithSales(ctx context.Context, q querier, eventID int64, now time.Time) ([]models.TierAvailability, error) {
	query := `
		SELECT t.id, t.event_id, t.name, t.price, t.start_date, t.end_date, t.quantity_threshold,
		       COUNT(tk.id) AS sold
		FROM pricing_tiers t
		LEFT JOIN tickets tk ON tk.pricing_tier_id = t.id
		WHERE t.event_id = $1
		  AND t.start_date <= $2
		  AND (t.end_date IS NULL OR t.end_date >= $2)
		GROUP BY t.id
		ORDER BY t.price ASC, t.start_date ASC`

	rows, err := q.QueryContext(ctx, query, eventID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.TierAvailability
	for rows.Next() {
		var ta models.TierAvailability
		err := rows.Scan(
			&ta.Tier.ID,
			&ta.Tier.EventID,
			&ta.Tier.Name,
			&ta.Tier.Price,
			&ta.Tier.StartDate,
			&ta.Tier.EndDate,
			&ta.Tier.QuantityThreshold,
			&ta.Sold,
		)
		if err != nil {
			return nil, err
		}
		result = append(result, ta)
	}
	return result, rows.Err()
}

func (r *PricingTierRepository) GetByID(ctx context.Context, eventID, tierID int64) (*models.PricingTier, error) {
	query := `SELECT ` + tierColumns + ` FROM pricing_tiers WHERE id = $1 AND event_id = $2`

	rows, err := r.db.QueryContext(ctx, query, tierID, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tiers, err := scanTierRows(rows)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, nil
	}
	return &tiers[0], nil
}

func (r *PricingTierRepository) Create(ctx context.Context, tier *models.PricingTier) error {
	query := `
		INSERT INTO pricing_tiers (event_id, name, price, start_date, end_date, quantity_threshold)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		tier.EventID,
		tier.Name,
		tier.Price,
		tier.StartDate,
		tier.EndDate,
		tier.QuantityThreshold,
	).Scan(&tier.ID)
}

func (r *PricingTierRepository) Update(ctx context.Context, tier *models.PricingTier) error {
	query := `
		UPDATE pricing_tiers
		SET name = $1, price = $2, start_date = $3, end_date = $4, quantity_threshold = $5
		WHERE id = $6 AND event_id = $7`

	result, err := r.db.ExecContext(ctx, query,
		tier.Name,
		tier.Price,
		tier.StartDate,
		tier.EndDate,
		tier.QuantityThreshold,
		tier.ID,
		tier.EventID,
	)
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

func (r *PricingTierRepository) Delete(ctx context.Context, eventID, tierID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pricing_tiers WHERE id = $1 AND event_id = $2`, tierID, eventID)
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
