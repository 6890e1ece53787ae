package order

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrOrderNotFound = errors.New("order not found")

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, buyerID, shopID int, totalCents int64, currency string) (*Order, error) {
	o := &Order{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO orders (buyer_id, shop_id, total_cents, currency)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, buyer_id, shop_id, total_cents, currency, status, payment_id, created_at, updated_at`,
		buyerID, shopID, totalCents, currency,
	).StructScan(o)
	if err != nil {
		return nil, err
	}

	return o, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Order, error) {
	o := &Order{}
	err := r.db.GetContext(ctx, o,
		`SELECT id, buyer_id, shop_id, total_cents, currency, status, payment_id, created_at, updated_at
		 FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int, status Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) SetPaymentRef(ctx context.Context, id int, paymentID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_id = $1, updated_at = NOW() WHERE id = $2`,
		paymentID, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
