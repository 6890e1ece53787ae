package shop

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrShopNotFound        = errors.New("shop not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, ownerID int, name, description string) (*Shop, error) {
	s := &Shop{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO shops (owner_id, name, description)
		 VALUES ($1, $2, $3)
		 RETURNING id, owner_id, name, description, approved, balance_cents, currency, created_at, updated_at`,
		ownerID, name, description,
	).StructScan(s)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Shop, error) {
	s := &Shop{}
	err := r.db.GetContext(ctx, s,
		`SELECT id, owner_id, name, description, approved, balance_cents, currency, created_at, updated_at
		 FROM shops WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *repository) GetByOwner(ctx context.Context, ownerID int) (*Shop, error) {
	s := &Shop{}
	err := r.db.GetContext(ctx, s,
		`SELECT id, owner_id, name, description, approved, balance_cents, currency, created_at, updated_at
		 FROM shops WHERE owner_id = $1`, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShopNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *repository) SetApproved(ctx context.Context, id int, approved bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shops SET approved = $1, updated_at = NOW() WHERE id = $2`,
		approved, id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrShopNotFound
	}
	return nil
}

func (r *repository) AdjustBalance(ctx context.Context, shopID int, delta int64) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	newBalance, err := adjustBalanceTx(ctx, tx, shopID, delta)
	if err != nil {
		return 0, err
	}

	return newBalance, tx.Commit()
}

// adjustBalanceTx performs the row-locked balance mutation inside an existing
// DB transaction so ledger writes can share the same commit.
func adjustBalanceTx(ctx context.Context, tx *sqlx.Tx, shopID int, delta int64) (int64, error) {
	var balance int64
	err := tx.QueryRowxContext(ctx,
		`SELECT balance_cents FROM shops WHERE id = $1 FOR UPDATE`,
		shopID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrShopNotFound
		}
		return 0, err
	}

	newBalance := balance + delta
	if newBalance < 0 {
		return 0, ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE shops SET balance_cents = $1, updated_at = NOW() WHERE id = $2`,
		newBalance, shopID,
	)
	if err != nil {
		return 0, err
	}

	return newBalance, nil
}

// AdjustBalanceTx exposes the in-transaction helper to the ledger repository.
func AdjustBalanceTx(ctx context.Context, tx *sqlx.Tx, shopID int, delta int64) (int64, error) {
	return adjustBalanceTx(ctx, tx, shopID, delta)
}
