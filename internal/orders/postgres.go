package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresReader reads orders from PostgreSQL.
type PostgresReader struct {
	db *pgxpool.Pool
}

// NewPostgresReader builds a Postgres-backed order reader.
func NewPostgresReader(db *pgxpool.Pool) *PostgresReader {
	return &PostgresReader{db: db}
}

// Get fetches one order by sale reference.
func (r *PostgresReader) Get(ctx context.Context, saleRef string) (Order, error) {
	row := r.db.QueryRow(ctx, `SELECT o.id, o.seller_id, o.quantity,
        COALESCE(o.product_category, ''), COALESCE(p.device_category, ''), o.commission_paid
        FROM orders o
        LEFT JOIN stock_pickups p ON p.id = o.pickup_id
        WHERE o.id = $1`, saleRef)
	var o Order
	if err := row.Scan(&o.ID, &o.SellerID, &o.Quantity, &o.ProductCategory, &o.PickupCategory, &o.CommissionPaid); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	return o, nil
}
