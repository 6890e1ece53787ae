package refund

import (
	"context"
	"errors"

	"marketplace/internal/apperr"
	"marketplace/internal/ledger"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/notify"
	"marketplace/internal/order"
	"marketplace/internal/user"

	"github.com/google/uuid"
)

type Service interface {
	// Refund issues an admin refund for a delivered or completed order. At
	// most one non-cancelled refund may exist per order; the second attempt
	// is a Conflict. amountCents 0 means the full order total. Actual fund
	// return runs through the gateway out of band; this only guarantees the
	// ledger and the order agree.
	Refund(ctx context.Context, orderID int, reason string, amountCents int64) (*ledger.Transaction, error)
}

type service struct {
	orders       order.Repository
	transactions ledger.Repository
	users        user.Repository
	notifier     *notify.Service
	fees         ledger.FeeCalculator
}

func NewService(
	orders order.Repository,
	transactions ledger.Repository,
	users user.Repository,
	notifier *notify.Service,
	fees ledger.FeeCalculator,
) Service {
	return &service{
		orders:       orders,
		transactions: transactions,
		users:        users,
		notifier:     notifier,
		fees:         fees,
	}
}

func (s *service) Refund(ctx context.Context, orderID int, reason string, amountCents int64) (*ledger.Transaction, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, apperr.NotFound("order %d not found", orderID)
		}
		return nil, err
	}

	if !o.Refundable() {
		return nil, apperr.Conflict("order %d is %s, only delivered or completed orders can be refunded", o.ID, o.Status)
	}

	if _, err := s.transactions.FindByOrderAndType(ctx, o.ID, ledger.TypeRefund); err == nil {
		return nil, apperr.Conflict("order %d is already refunded", o.ID)
	} else if !errors.Is(err, ledger.ErrTransactionNotFound) {
		return nil, err
	}

	if amountCents == 0 {
		amountCents = o.TotalCents
	}
	if amountCents < 0 || amountCents > o.TotalCents {
		return nil, apperr.Validation("refund amount %d out of range, order total is %d", amountCents, o.TotalCents)
	}

	fee, net, err := s.fees.Compute(ledger.TypeRefund, amountCents)
	if err != nil {
		return nil, err
	}

	tx := &ledger.Transaction{
		ID:            uuid.NewString(),
		UserID:        o.BuyerID,
		ShopID:        &o.ShopID,
		OrderID:       &o.ID,
		Type:          ledger.TypeRefund,
		AmountCents:   amountCents,
		FeeCents:      fee,
		NetCents:      net,
		Status:        ledger.StatusCompleted,
		PaymentMethod: "gateway",
		Description:   reason,
	}

	// The lookup above is advisory; the partial unique index on order_id is
	// what actually stops two concurrent refunds.
	if err := s.transactions.InsertRefund(ctx, tx); err != nil {
		if errors.Is(err, ledger.ErrDuplicateRefund) {
			return nil, apperr.Conflict("order %d is already refunded", o.ID)
		}
		return nil, err
	}

	if err := s.orders.UpdateStatus(ctx, o.ID, order.StatusRefunded); err != nil {
		logger.Error("refund recorded but order transition failed",
			"transaction_id", tx.ID, "order_id", o.ID, "error", err)
	}

	logger.Info("refund issued",
		"transaction_id", tx.ID, "order_id", o.ID, "amount_cents", amountCents, "net_cents", net)
	metrics.RecordRefund()

	u, _ := s.users.FindByID(ctx, o.BuyerID)
	if u != nil {
		s.notifier.SendRefundNotice(ctx, u.Email, u.Name, o.ID, amountCents, reason)
	}

	return tx, nil
}
