package payment

import (
	"context"
	"errors"
	"strconv"
	"time"

	"marketplace/internal/gateway"
	"marketplace/internal/ledger"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"

	"github.com/google/uuid"
)

// ReconcileWindow bounds how far back the repair pass looks. Orphans older
// than this need manual review anyway.
const ReconcileWindow = 24 * time.Hour

func (s *service) Reconcile(ctx context.Context) (int, error) {
	payments, err := s.gw.ListPayments(ctx, time.Now().Add(-ReconcileWindow))
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range payments {
		p := &payments[i]

		_, err := s.transactions.FindByExternalID(ctx, p.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ledger.ErrTransactionNotFound) {
			return repaired, err
		}

		adopted, err := s.adoptOrphan(ctx, p)
		if err != nil {
			logger.Error("failed to adopt orphaned gateway payment",
				"external_id", p.ID, "error", err)
			continue
		}
		if adopted {
			repaired++
			metrics.ReconciledPaymentsTotal.Inc()
		}
	}

	if repaired > 0 {
		logger.Info("reconciliation pass repaired orphaned payments", "count", repaired)
	}
	return repaired, nil
}

// adoptOrphan recreates the missing local record for a gateway payment and,
// when the gateway already settled it, pushes it through the same idempotent
// completion path the webhook uses.
func (s *service) adoptOrphan(ctx context.Context, p *gateway.Payment) (bool, error) {
	orderIDStr, ok := p.Metadata["order_id"]
	if !ok {
		// Not one of ours; gateway payments created outside this system are
		// left alone.
		logger.Debug("gateway payment without order metadata skipped", "external_id", p.ID)
		return false, nil
	}
	orderID, err := strconv.Atoi(orderIDStr)
	if err != nil {
		return false, err
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return false, err
	}

	fee, net, err := s.fees.Compute(ledger.TypePayment, p.AmountCents)
	if err != nil {
		return false, err
	}

	tx := &ledger.Transaction{
		ID:            uuid.NewString(),
		UserID:        o.BuyerID,
		ShopID:        &o.ShopID,
		OrderID:       &o.ID,
		Type:          ledger.TypePayment,
		AmountCents:   p.AmountCents,
		FeeCents:      fee,
		NetCents:      net,
		Status:        ledger.StatusPending,
		PaymentMethod: "gateway",
		ExternalID:    &p.ID,
		Description:   "Payment for order #" + strconv.Itoa(o.ID) + " (reconciled)",
	}

	if err := s.transactions.Insert(ctx, tx); err != nil {
		if errors.Is(err, ledger.ErrDuplicateExternalID) {
			// A concurrent webhook beat us to it.
			return false, nil
		}
		return false, err
	}

	if err := s.orders.SetPaymentRef(ctx, o.ID, p.ID); err != nil {
		logger.Error("failed to stamp payment reference during reconciliation",
			"order_id", o.ID, "external_id", p.ID, "error", err)
	}

	logger.Info("recreated ledger record for orphaned gateway payment",
		"transaction_id", tx.ID, "external_id", p.ID, "order_id", o.ID)

	if p.Status == gateway.StatusSucceeded {
		return true, s.applySucceeded(ctx, tx)
	}
	return true, nil
}

// RunReconciler drives periodic reconciliation until ctx is cancelled.
func RunReconciler(ctx context.Context, s Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Reconcile(ctx); err != nil {
				logger.Error("reconciliation pass failed", "error", err)
			}
		}
	}
}
