package repository

import (
	"context"
	"database/sql"

	"stagepass/internal/database"
	"stagepass/internal/models"
)

type OrderRepository struct {
	db *database.DB
}

func NewOrderRepository(db *database.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// recomputeLedgerQuery keeps the order's cached quantity and total_amount in
// sync with its child tickets. Must run inside the same transaction as the
// ticket mutation that triggered it; an order with zero tickets ends at 0/0.
const recomputeLedgerQuery = `
	UPDATE orders
	SET quantity = (SELECT COUNT(*) FROM tickets WHERE order_id = orders.id),
	    total_amount = (SELECT COALESCE(SUM(price), 0) FROM tickets WHERE order_id = orders.id)
	WHERE id = $1`

// RecomputeLedger refreshes the derived ledger fields within tx.
func RecomputeLedger(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx, recomputeLedgerQuery, orderID)
	return err
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	query := `
		SELECT id, buyer_id, ordered_at, total_amount, quantity
		FROM orders
		WHERE id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.BuyerID,
		&order.OrderedAt,
		&order.TotalAmount,
		&order.Quantity,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	tickets, err := r.getTickets(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Tickets = tickets

	return order, nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]models.Order, error) {
	query := `
		SELECT id, buyer_id, ordered_at, total_amount, quantity
		FROM orders
		WHERE buyer_id = $1
		ORDER BY ordered_at DESC`

	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		err := rows.Scan(
			&order.ID,
			&order.BuyerID,
			&order.OrderedAt,
			&order.TotalAmount,
			&order.Quantity,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *OrderRepository) getTickets(ctx context.Context, orderID int64) ([]models.Ticket, error) {
	query := `SELECT ` + ticketColumns + ticketFrom + ` WHERE t.order_id = $1 ORDER BY t.id`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTicketRows(rows)
}
