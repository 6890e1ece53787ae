// Package gateway talks to the external payment provider. The rest of the
// system consumes it only through the Client interface so tests can swap in
// fakes and the provider can be replaced without touching workflow code.
package gateway

import (
	"context"
	"time"
)

type PaymentStatus string

const (
	StatusPending           PaymentStatus = "pending"
	StatusWaitingForCapture PaymentStatus = "waiting_for_capture"
	StatusSucceeded         PaymentStatus = "succeeded"
	StatusCanceled          PaymentStatus = "canceled"
)

// Payment is the provider-side view of a payment.
type Payment struct {
	ID              string
	Status          PaymentStatus
	AmountCents     int64
	Currency        string
	ConfirmationURL string
	CreatedAt       time.Time
	CapturedAt      *time.Time
	Metadata        map[string]string
}

type CreatePaymentRequest struct {
	AmountCents int64
	Currency    string
	Description string
	ReturnURL   string
	// IdempotencyKey makes provider-side retries safe: re-sending the same
	// request with the same key never creates a second payment.
	IdempotencyKey string
	Metadata       map[string]string
}

type Client interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	// ListPayments returns provider payments created since the given time,
	// used by the reconciliation pass to find orphans with no local record.
	ListPayments(ctx context.Context, since time.Time) ([]Payment, error)
}
