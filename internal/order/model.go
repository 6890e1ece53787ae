package order

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusRefunded   Status = "refunded"
	StatusCancelled  Status = "cancelled"
)

type Order struct {
	ID         int       `db:"id" json:"id"`
	BuyerID    int       `db:"buyer_id" json:"buyer_id"`
	ShopID     int       `db:"shop_id" json:"shop_id"`
	TotalCents int64     `db:"total_cents" json:"total_cents"`
	Currency   string    `db:"currency" json:"currency"`
	Status     Status    `db:"status" json:"status"`
	PaymentID  *string   `db:"payment_id" json:"payment_id,omitempty"` // gateway payment reference
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Refundable reports whether the order reached a state where an admin may
// issue a refund.
func (o *Order) Refundable() bool {
	return o.Status == StatusDelivered || o.Status == StatusCompleted
}

type CreateOrderRequest struct {
	ShopID     int    `json:"shop_id" binding:"required"`
	TotalCents int64  `json:"total_cents" binding:"required,gt=0"`
	Currency   string `json:"currency" binding:"omitempty,len=3"`
}
