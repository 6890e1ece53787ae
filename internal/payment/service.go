package payment

import (
	"context"
	"errors"
	"strconv"

	"marketplace/internal/apperr"
	"marketplace/internal/auth"
	"marketplace/internal/gateway"
	"marketplace/internal/ledger"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/notify"
	"marketplace/internal/order"
	"marketplace/internal/shop"
	"marketplace/internal/user"

	"github.com/google/uuid"
)

type CreatePaymentResult struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
}

type Service interface {
	// CreatePayment opens a payment intent at the gateway for a pending order
	// owned by the requester and records it in the ledger.
	CreatePayment(ctx context.Context, orderID int, returnURL string, requesterID int) (*CreatePaymentResult, error)
	// ConfirmWebhook applies an asynchronous gateway notification. Delivery is
	// at-least-once; applying the same notification any number of times
	// credits the shop exactly once.
	ConfirmWebhook(ctx context.Context, raw []byte, signatureHeader string) error
	GetPaymentStatus(ctx context.Context, transactionID string, requesterID int, role string) (*ledger.Transaction, error)
	// Reconcile repairs the gap left when a gateway payment was created but
	// the local persist failed: it lists recent gateway payments and recreates
	// missing ledger rows keyed by external id.
	Reconcile(ctx context.Context) (int, error)
}

type service struct {
	orders        order.Repository
	shops         shop.Repository
	transactions  ledger.Repository
	users         user.Repository
	gw            gateway.Client
	notifier      *notify.Service
	fees          ledger.FeeCalculator
	currency      string
	webhookSecret string
}

func NewService(
	orders order.Repository,
	shops shop.Repository,
	transactions ledger.Repository,
	users user.Repository,
	gw gateway.Client,
	notifier *notify.Service,
	fees ledger.FeeCalculator,
	currency string,
	webhookSecret string,
) Service {
	return &service{
		orders:        orders,
		shops:         shops,
		transactions:  transactions,
		users:         users,
		gw:            gw,
		notifier:      notifier,
		fees:          fees,
		currency:      currency,
		webhookSecret: webhookSecret,
	}
}

func (s *service) CreatePayment(ctx context.Context, orderID int, returnURL string, requesterID int) (*CreatePaymentResult, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			return nil, apperr.NotFound("order %d not found", orderID)
		}
		return nil, err
	}

	if o.BuyerID != requesterID {
		return nil, apperr.Forbidden("order belongs to another user")
	}
	if o.Status != order.StatusPending {
		return nil, apperr.Conflict("order %d is already %s", orderID, o.Status)
	}
	if o.Currency != s.currency {
		return nil, apperr.Validation("unsupported currency %q", o.Currency)
	}

	fee, net, err := s.fees.Compute(ledger.TypePayment, o.TotalCents)
	if err != nil {
		return nil, err
	}

	// A fresh key per intent: retries of THIS gateway call reuse it, a new
	// intent gets a new one.
	idemKey := uuid.NewString()

	p, err := s.gw.CreatePayment(ctx, gateway.CreatePaymentRequest{
		AmountCents:    o.TotalCents,
		Currency:       o.Currency,
		Description:    "Order #" + strconv.Itoa(o.ID),
		ReturnURL:      returnURL,
		IdempotencyKey: idemKey,
		Metadata:       map[string]string{"order_id": strconv.Itoa(o.ID)},
	})
	if err != nil {
		// Nothing was written locally: the caller may retry and get a fresh
		// intent.
		metrics.RecordPaymentIntent("gateway_error")
		return nil, err
	}

	tx := &ledger.Transaction{
		ID:            uuid.NewString(),
		UserID:        requesterID,
		ShopID:        &o.ShopID,
		OrderID:       &o.ID,
		Type:          ledger.TypePayment,
		AmountCents:   o.TotalCents,
		FeeCents:      fee,
		NetCents:      net,
		Status:        ledger.StatusPending,
		PaymentMethod: "gateway",
		ExternalID:    &p.ID,
		Description:   "Payment for order #" + strconv.Itoa(o.ID),
	}

	if err := s.transactions.Insert(ctx, tx); err != nil {
		// The gateway payment exists but we have no record of it. Never retry
		// with a new intent: that would double-charge. The reconciliation
		// pass picks this up by external id.
		logger.Error("gateway payment has no local record, awaiting reconciliation",
			"external_id", p.ID, "order_id", o.ID, "error", err)
		metrics.RecordPaymentIntent("persist_failed")
		return nil, apperr.Gateway(false, "payment initiated but not recorded, do not retry", err)
	}

	if err := s.orders.SetPaymentRef(ctx, o.ID, p.ID); err != nil {
		logger.Error("failed to stamp payment reference on order",
			"order_id", o.ID, "external_id", p.ID, "error", err)
	}

	logger.Info("payment intent created",
		"transaction_id", tx.ID, "order_id", o.ID, "external_id", p.ID,
		"amount_cents", o.TotalCents, "user_id", requesterID)
	metrics.RecordPaymentIntent("created")

	return &CreatePaymentResult{
		TransactionID: tx.ID,
		RedirectURL:   p.ConfirmationURL,
	}, nil
}

func (s *service) ConfirmWebhook(ctx context.Context, raw []byte, signatureHeader string) error {
	if err := gateway.VerifySignature(raw, signatureHeader, s.webhookSecret); err != nil {
		metrics.RecordWebhook("invalid_signature")
		return err
	}

	ev, err := gateway.ParseWebhook(raw)
	if err != nil {
		metrics.RecordWebhook("malformed")
		return err
	}

	// The payload named a payment; the authoritative status comes from the
	// gateway API, not from whatever the webhook body claims.
	p, err := s.gw.GetPayment(ctx, ev.Object.ID)
	if err != nil {
		metrics.RecordWebhook("gateway_error")
		return err
	}

	tx, err := s.transactions.FindByExternalID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			metrics.RecordWebhook("unknown_payment")
			return apperr.NotFound("no transaction for payment %s", p.ID)
		}
		return err
	}

	if tx.Status == ledger.StatusCompleted {
		// At-least-once delivery: already applied, acknowledge silently.
		metrics.RecordWebhook("duplicate")
		return nil
	}

	switch p.Status {
	case gateway.StatusSucceeded:
		return s.applySucceeded(ctx, tx)
	case gateway.StatusCanceled:
		if _, err := s.transactions.UpdateStatus(ctx, tx.ID, ledger.StatusPending, ledger.StatusFailed); err != nil {
			return err
		}
		logger.Info("payment failed at gateway", "transaction_id", tx.ID, "external_id", p.ID)
		metrics.RecordWebhook("failed")
		return nil
	default:
		// Still pending or waiting for capture: acknowledge, a later webhook
		// or the reconciliation pass finishes the job.
		metrics.RecordWebhook("pending")
		return nil
	}
}

func (s *service) applySucceeded(ctx context.Context, tx *ledger.Transaction) error {
	if tx.ShopID == nil {
		return apperr.Conflict("payment transaction %s has no shop", tx.ID)
	}

	applied, err := s.transactions.CompleteWithCredit(ctx, tx.ID, *tx.ShopID, tx.NetCents)
	if err != nil {
		return err
	}
	if !applied {
		// Lost the race to a concurrent delivery of the same webhook.
		metrics.RecordWebhook("duplicate")
		return nil
	}

	if tx.OrderID != nil {
		if err := s.orders.UpdateStatus(ctx, *tx.OrderID, order.StatusProcessing); err != nil {
			logger.Error("payment completed but order transition failed",
				"transaction_id", tx.ID, "order_id", *tx.OrderID, "error", err)
		}
	}

	logger.Info("payment completed, balance credited",
		"transaction_id", tx.ID, "shop_id", *tx.ShopID, "credit_cents", tx.NetCents)
	metrics.RecordWebhook("completed")

	if tx.OrderID != nil {
		u, _ := s.users.FindByID(ctx, tx.UserID)
		if u != nil {
			s.notifier.SendPaymentReceipt(ctx, u.Email, u.Name, *tx.OrderID, tx.AmountCents)
		}
	}
	return nil
}

func (s *service) GetPaymentStatus(ctx context.Context, transactionID string, requesterID int, role string) (*ledger.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			return nil, apperr.NotFound("transaction %s not found", transactionID)
		}
		return nil, err
	}

	if tx.UserID != requesterID && role != auth.RoleAdmin {
		return nil, apperr.Forbidden("not your transaction")
	}

	return tx, nil
}
