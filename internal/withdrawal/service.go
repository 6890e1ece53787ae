package withdrawal

import (
	"context"
	"errors"

	"marketplace/internal/apperr"
	"marketplace/internal/ledger"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
	"marketplace/internal/notify"
	"marketplace/internal/shop"
	"marketplace/internal/user"

	"github.com/google/uuid"
)

type Service interface {
	// Request opens a pending withdrawal for the caller's shop. The gross
	// amount is held (debited) immediately so concurrent requests cannot
	// overdraw the balance.
	Request(ctx context.Context, userID int, req CreateWithdrawalRequest) (*ledger.Transaction, error)
	// Approve finalizes a pending withdrawal: the hold becomes a permanent
	// debit. Deciding the same withdrawal twice is a Conflict.
	Approve(ctx context.Context, txID string) (*ledger.Transaction, error)
	// Reject cancels a pending withdrawal and returns the gross amount to the
	// shop balance.
	Reject(ctx context.Context, txID string) (*ledger.Transaction, error)
	List(ctx context.Context, requesterID int, own bool, status ledger.Status, limit, offset int) ([]ledger.Transaction, error)
}

type service struct {
	shops         shop.Repository
	transactions  ledger.Repository
	users         user.Repository
	notifier      *notify.Service
	fees          ledger.FeeCalculator
	minWithdrawal int64
}

func NewService(
	shops shop.Repository,
	transactions ledger.Repository,
	users user.Repository,
	notifier *notify.Service,
	fees ledger.FeeCalculator,
	minWithdrawal int64,
) Service {
	return &service{
		shops:         shops,
		transactions:  transactions,
		users:         users,
		notifier:      notifier,
		fees:          fees,
		minWithdrawal: minWithdrawal,
	}
}

func (s *service) Request(ctx context.Context, userID int, req CreateWithdrawalRequest) (*ledger.Transaction, error) {
	sh, err := s.shops.GetByOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, shop.ErrShopNotFound) {
			return nil, apperr.Forbidden("no shop registered for this account")
		}
		return nil, err
	}
	if !sh.Approved {
		return nil, apperr.Forbidden("shop is not approved yet")
	}

	if req.AmountCents < s.minWithdrawal {
		return nil, apperr.Validation("minimum withdrawal is %d cents, got %d", s.minWithdrawal, req.AmountCents)
	}

	fee, net, err := s.fees.Compute(ledger.TypeWithdrawal, req.AmountCents)
	if err != nil {
		return nil, err
	}
	if net <= 0 {
		return nil, apperr.Validation("amount does not cover the withdrawal fee of %d cents", fee)
	}

	tx := &ledger.Transaction{
		ID:            uuid.NewString(),
		UserID:        userID,
		ShopID:        &sh.ID,
		Type:          ledger.TypeWithdrawal,
		AmountCents:   req.AmountCents,
		FeeCents:      fee,
		NetCents:      net,
		Status:        ledger.StatusPending,
		PaymentMethod: req.Method,
		Description:   req.Details,
	}

	if err := s.transactions.InsertWithHold(ctx, tx, sh.ID, req.AmountCents); err != nil {
		if errors.Is(err, shop.ErrInsufficientBalance) {
			metrics.RecordWithdrawal("rejected_insufficient")
			return nil, apperr.Conflict("insufficient balance for withdrawal of %d cents", req.AmountCents)
		}
		return nil, err
	}

	logger.Info("withdrawal requested, gross amount held",
		"transaction_id", tx.ID, "shop_id", sh.ID, "user_id", userID,
		"amount_cents", req.AmountCents, "fee_cents", fee, "net_cents", net)
	metrics.RecordWithdrawal("requested")

	return tx, nil
}

func (s *service) Approve(ctx context.Context, txID string) (*ledger.Transaction, error) {
	tx, err := s.pendingWithdrawal(ctx, txID)
	if err != nil {
		return nil, err
	}

	applied, err := s.transactions.UpdateStatus(ctx, tx.ID, ledger.StatusPending, ledger.StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperr.Conflict("withdrawal %s is already decided", tx.ID)
	}
	tx.Status = ledger.StatusCompleted

	logger.Info("withdrawal approved",
		"transaction_id", tx.ID, "shop_id", *tx.ShopID, "net_cents", tx.NetCents)
	metrics.RecordWithdrawal("approved")
	s.notifyDecision(ctx, tx, true)

	return tx, nil
}

func (s *service) Reject(ctx context.Context, txID string) (*ledger.Transaction, error) {
	tx, err := s.pendingWithdrawal(ctx, txID)
	if err != nil {
		return nil, err
	}

	released, err := s.transactions.ReleaseHold(ctx, tx.ID, *tx.ShopID, tx.AmountCents)
	if err != nil {
		return nil, err
	}
	if !released {
		return nil, apperr.Conflict("withdrawal %s is already decided", tx.ID)
	}
	tx.Status = ledger.StatusCancelled

	logger.Info("withdrawal rejected, hold released",
		"transaction_id", tx.ID, "shop_id", *tx.ShopID, "amount_cents", tx.AmountCents)
	metrics.RecordWithdrawal("rejected")
	s.notifyDecision(ctx, tx, false)

	return tx, nil
}

func (s *service) List(ctx context.Context, requesterID int, own bool, status ledger.Status, limit, offset int) ([]ledger.Transaction, error) {
	f := ledger.Filter{Type: ledger.TypeWithdrawal, Status: status}
	if own {
		f.UserID = requesterID
	}
	return s.transactions.List(ctx, f, limit, offset)
}

func (s *service) pendingWithdrawal(ctx context.Context, txID string) (*ledger.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, txID)
	if err != nil {
		if errors.Is(err, ledger.ErrTransactionNotFound) {
			return nil, apperr.NotFound("withdrawal %s not found", txID)
		}
		return nil, err
	}
	if tx.Type != ledger.TypeWithdrawal {
		return nil, apperr.Validation("transaction %s is not a withdrawal", txID)
	}
	if tx.ShopID == nil {
		return nil, apperr.Conflict("withdrawal %s has no shop", txID)
	}
	return tx, nil
}

func (s *service) notifyDecision(ctx context.Context, tx *ledger.Transaction, approved bool) {
	u, _ := s.users.FindByID(ctx, tx.UserID)
	if u != nil {
		s.notifier.SendWithdrawalDecision(ctx, u.Email, u.Name, approved, tx.AmountCents, tx.FeeCents)
	}
}
