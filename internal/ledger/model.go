package ledger

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Type string

const (
	TypePayment    Type = "payment"
	TypeWithdrawal Type = "withdrawal"
	TypeRefund     Type = "refund"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Transaction — запись в денежном журнале. Rows are never deleted; after a
// transaction reaches a terminal status only nothing may change.
type Transaction struct {
	ID            string         `db:"id" json:"id"`
	UserID        int            `db:"user_id" json:"user_id"`
	ShopID        *int           `db:"shop_id" json:"shop_id,omitempty"`
	OrderID       *int           `db:"order_id" json:"order_id,omitempty"`
	Type          Type           `db:"type" json:"type"`
	AmountCents   int64          `db:"amount_cents" json:"amount_cents"`
	FeeCents      int64          `db:"fee_cents" json:"fee_cents"`
	NetCents      int64          `db:"net_cents" json:"net_cents"`
	Status        Status         `db:"status" json:"status"`
	PaymentMethod string         `db:"payment_method" json:"payment_method"`
	ExternalID    *string        `db:"external_id" json:"external_id,omitempty"`
	Description   string         `db:"description" json:"description"`
	Metadata      types.JSONText `db:"metadata" json:"metadata,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// CanTransition enforces the one-directional status machine:
// pending may move to any terminal status, terminal statuses are frozen.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}
