package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/shop"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateExternalID = errors.New("external id already recorded")
	ErrDuplicateRefund     = errors.New("refund already exists for this order")
)

const txColumns = `id, user_id, shop_id, order_id, type, amount_cents, fee_cents, net_cents,
	status, payment_method, external_id, description, metadata, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func insertTx(ctx context.Context, q sqlx.ExtContext, t *Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, shop_id, order_id, type, amount_cents, fee_cents,
			net_cents, status, payment_method, external_id, description, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, '{}'))
		RETURNING created_at, updated_at
	`
	return sqlx.GetContext(ctx, q, t, query,
		t.ID, t.UserID, t.ShopID, t.OrderID, t.Type, t.AmountCents, t.FeeCents,
		t.NetCents, t.Status, t.PaymentMethod, t.ExternalID, t.Description, t.Metadata)
}

func (r *repository) Insert(ctx context.Context, t *Transaction) error {
	if err := insertTx(ctx, r.db, t); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateExternalID
		}
		return err
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Transaction, error) {
	t := &Transaction{}
	err := r.db.GetContext(ctx, t,
		fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, txColumns), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*Transaction, error) {
	t := &Transaction{}
	err := r.db.GetContext(ctx, t,
		fmt.Sprintf(`SELECT %s FROM transactions WHERE external_id = $1`, txColumns), externalID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *repository) FindByOrderAndType(ctx context.Context, orderID int, txType Type) (*Transaction, error) {
	t := &Transaction{}
	err := r.db.GetContext(ctx, t,
		fmt.Sprintf(`SELECT %s FROM transactions
			WHERE order_id = $1 AND type = $2 AND status != 'cancelled'
			ORDER BY created_at DESC LIMIT 1`, txColumns),
		orderID, txType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error) {
	return casStatus(ctx, r.db, id, from, to)
}

// casStatus flips the status only if the row is still in `from`. The WHERE
// clause is the concurrency guard, not a prior SELECT.
func casStatus(ctx context.Context, q sqlx.ExtContext, id string, from, to Status) (bool, error) {
	if !CanTransition(from, to) {
		return false, fmt.Errorf("illegal status transition %s -> %s", from, to)
	}

	res, err := q.ExecContext(ctx,
		`UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) List(ctx context.Context, f Filter, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	where := []string{"1=1"}
	args := []interface{}{}

	add := func(cond string, val interface{}) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.UserID != 0 {
		add("user_id = $%d", f.UserID)
	}
	if f.ShopID != 0 {
		add("shop_id = $%d", f.ShopID)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s
		ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		txColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	var txs []Transaction
	if err := r.db.SelectContext(ctx, &txs, query, args...); err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repository) InsertWithHold(ctx context.Context, t *Transaction, shopID int, grossCents int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Row lock on the shop: the balance check and the debit are one unit, two
	// concurrent holds serialize here.
	if _, err := shop.AdjustBalanceTx(ctx, tx, shopID, -grossCents); err != nil {
		return err
	}

	if err := insertTx(ctx, tx, t); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) CompleteWithCredit(ctx context.Context, id string, shopID int, creditCents int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	applied, err := casStatus(ctx, tx, id, StatusPending, StatusCompleted)
	if err != nil {
		return false, err
	}
	if !applied {
		// Already completed (or failed/cancelled): the credit must not be
		// applied a second time.
		return false, nil
	}

	if _, err := shop.AdjustBalanceTx(ctx, tx, shopID, creditCents); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *repository) ReleaseHold(ctx context.Context, id string, shopID int, grossCents int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	applied, err := casStatus(ctx, tx, id, StatusPending, StatusCancelled)
	if err != nil {
		return false, err
	}
	if !applied {
		return false, nil
	}

	if _, err := shop.AdjustBalanceTx(ctx, tx, shopID, grossCents); err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *repository) InsertRefund(ctx context.Context, t *Transaction) error {
	// uq_refund_per_order (partial unique index on order_id for non-cancelled
	// refunds) turns a concurrent double refund into a unique violation.
	if err := insertTx(ctx, r.db, t); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateRefund
		}
		return err
	}
	return nil
}
