package shop

import "time"

// Shop — витрина продавца с денежным балансом.
// BalanceCents is a denormalized counter over the transaction ledger; it is
// only ever mutated inside the same DB transaction that writes the
// corresponding ledger row.
type Shop struct {
	ID           int       `db:"id" json:"id"`
	OwnerID      int       `db:"owner_id" json:"owner_id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	Approved     bool      `db:"approved" json:"approved"`
	BalanceCents int64     `db:"balance_cents" json:"balance_cents"`
	Currency     string    `db:"currency" json:"currency"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type CreateShopRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=200"`
	Description string `json:"description" binding:"max=2000"`
}
