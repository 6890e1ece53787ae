package order

import "context"

type Repository interface {
	Create(ctx context.Context, buyerID, shopID int, totalCents int64, currency string) (*Order, error)
	GetByID(ctx context.Context, id int) (*Order, error)
	UpdateStatus(ctx context.Context, id int, status Status) error
	// SetPaymentRef stamps the gateway payment id on the order when the intent
	// is created.
	SetPaymentRef(ctx context.Context, id int, paymentID string) error
}
