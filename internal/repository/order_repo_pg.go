package repository

import (
	"context"
	"encoding/json"

	"github.com/Domenick1991/flightshop/internal/domain"
	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var orderSchema = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		order_id TEXT PRIMARY KEY,
		booking_reference TEXT NOT NULL,
		session_id TEXT NOT NULL,
		offer_id TEXT NOT NULL,
		status TEXT NOT NULL,
		email TEXT NOT NULL,
		passengers JSONB NOT NULL,
		total_amount TEXT NOT NULL,
		total_currency TEXT NOT NULL,
		original_amount TEXT NOT NULL,
		commission TEXT NOT NULL,
		commission_currency TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_session_id_idx ON orders (session_id)`,
	`CREATE INDEX IF NOT EXISTS orders_created_at_idx ON orders (created_at)`,
}

const orderColumns = `order_id, booking_reference, session_id, offer_id, status, email, passengers,
	total_amount, total_currency, original_amount, commission, commission_currency, created_at`

type PGOrderRepository struct {
	db *pgxpool.Pool
}

func NewPGOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PGOrderRepository{db: db}
}

func (r *PGOrderRepository) EnsureIndexes(ctx context.Context) error {
	for _, stmt := range orderSchema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return storageErr(err, "create order schema")
		}
	}
	return nil
}

// Save is idempotent on order_id so a retried checkout does not fail on
// the ledger write.
func (r *PGOrderRepository) Save(ctx context.Context, b *domain.Booking) error {
	passengers, err := json.Marshal(b.Passengers)
	if err != nil {
		return errors.Wrap(err, "encode passengers")
	}
	_, err = r.db.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (order_id) DO NOTHING`,
		b.OrderID, b.BookingReference, b.SessionID, b.OfferID, string(b.Status), b.Email, passengers,
		b.TotalAmount, b.TotalCurrency, b.OriginalAmount, b.Commission, b.CommissionCurrency, b.CreatedAt)
	if err != nil {
		return storageErr(err, "insert order")
	}
	return nil
}

func (r *PGOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id=$1`, orderID)

	var (
		b          domain.Booking
		status     string
		passengers []byte
	)
	err := row.Scan(&b.OrderID, &b.BookingReference, &b.SessionID, &b.OfferID, &status, &b.Email, &passengers,
		&b.TotalAmount, &b.TotalCurrency, &b.OriginalAmount, &b.Commission, &b.CommissionCurrency, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, storageErr(err, "find order")
	}
	b.Status = domain.BookingStatus(status)
	if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
		return nil, errors.Wrap(err, "decode passengers")
	}
	return &b, nil
}

var _ OrderRepository = (*PGOrderRepository)(nil)
