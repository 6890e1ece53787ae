package shop

import "context"

type Repository interface {
	Create(ctx context.Context, ownerID int, name, description string) (*Shop, error)
	GetByID(ctx context.Context, id int) (*Shop, error)
	GetByOwner(ctx context.Context, ownerID int) (*Shop, error)
	SetApproved(ctx context.Context, id int, approved bool) error
	// AdjustBalance applies delta to the shop balance as one atomic row-locked
	// update and returns the new balance. A delta that would drive the balance
	// negative is rejected with ErrInsufficientBalance.
	AdjustBalance(ctx context.Context, shopID int, delta int64) (int64, error)
}
