package ledger

import "context"

type Filter struct {
	Type   Type
	Status Status
	UserID int
	ShopID int
}

type Repository interface {
	// Insert writes a new ledger row. A duplicate external_id is reported as
	// ErrDuplicateExternalID.
	Insert(ctx context.Context, tx *Transaction) error
	GetByID(ctx context.Context, id string) (*Transaction, error)
	FindByExternalID(ctx context.Context, externalID string) (*Transaction, error)
	// FindByOrderAndType returns the most recent non-cancelled transaction of
	// the given type for an order, or ErrTransactionNotFound.
	FindByOrderAndType(ctx context.Context, orderID int, txType Type) (*Transaction, error)
	// UpdateStatus is a compare-and-set: the row moves from -> to in a single
	// statement. It returns false when the row was not in `from`, which is how
	// duplicate webhook deliveries and double decisions are detected.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]Transaction, error)

	// Combined atomic operations. Each one mutates the shop balance and the
	// ledger row inside a single DB transaction so the balance counter can
	// never drift from the journal.

	// InsertWithHold writes a pending withdrawal row and debits the gross
	// amount from the shop balance. The balance check and the debit are one
	// row-locked update; an insufficient balance aborts the whole operation.
	InsertWithHold(ctx context.Context, tx *Transaction, shopID int, grossCents int64) error
	// CompleteWithCredit CAS-completes a pending transaction and credits the
	// shop. Returns false without side effects when the transaction already
	// left the pending state.
	CompleteWithCredit(ctx context.Context, id string, shopID int, creditCents int64) (bool, error)
	// ReleaseHold CAS-cancels a pending withdrawal and re-credits the gross
	// amount. Returns false when the withdrawal was already decided.
	ReleaseHold(ctx context.Context, id string, shopID int, grossCents int64) (bool, error)
	// InsertRefund writes a completed refund row. At most one non-cancelled
	// refund may exist per order; a concurrent duplicate surfaces as
	// ErrDuplicateRefund.
	InsertRefund(ctx context.Context, tx *Transaction) error
}
