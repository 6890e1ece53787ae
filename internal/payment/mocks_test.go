package payment

import (
	"context"
	"time"

	"marketplace/internal/gateway"
	"marketplace/internal/ledger"
	"marketplace/internal/order"
	"marketplace/internal/shop"
	"marketplace/internal/user"

	"github.com/stretchr/testify/mock"
)

type MockUserRepo struct{ mock.Mock }

func (m *MockUserRepo) Create(ctx context.Context, name, email, passwordHash, role string) (*user.User, error) {
	args := m.Called(ctx, name, email, passwordHash, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type MockOrderRepo struct{ mock.Mock }

func (m *MockOrderRepo) Create(ctx context.Context, buyerID, shopID int, totalCents int64, currency string) (*order.Order, error) {
	args := m.Called(ctx, buyerID, shopID, totalCents, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepo) GetByID(ctx context.Context, id int) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepo) UpdateStatus(ctx context.Context, id int, status order.Status) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockOrderRepo) SetPaymentRef(ctx context.Context, id int, paymentID string) error {
	return m.Called(ctx, id, paymentID).Error(0)
}

type MockShopRepo struct{ mock.Mock }

func (m *MockShopRepo) Create(ctx context.Context, ownerID int, name, description string) (*shop.Shop, error) {
	args := m.Called(ctx, ownerID, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

func (m *MockShopRepo) GetByID(ctx context.Context, id int) (*shop.Shop, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

func (m *MockShopRepo) GetByOwner(ctx context.Context, ownerID int) (*shop.Shop, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shop.Shop), args.Error(1)
}

func (m *MockShopRepo) SetApproved(ctx context.Context, id int, approved bool) error {
	return m.Called(ctx, id, approved).Error(0)
}

func (m *MockShopRepo) AdjustBalance(ctx context.Context, shopID int, delta int64) (int64, error) {
	args := m.Called(ctx, shopID, delta)
	return args.Get(0).(int64), args.Error(1)
}

type MockLedgerRepo struct{ mock.Mock }

func (m *MockLedgerRepo) Insert(ctx context.Context, tx *ledger.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockLedgerRepo) GetByID(ctx context.Context, id string) (*ledger.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepo) FindByExternalID(ctx context.Context, externalID string) (*ledger.Transaction, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepo) FindByOrderAndType(ctx context.Context, orderID int, txType ledger.Type) (*ledger.Transaction, error) {
	args := m.Called(ctx, orderID, txType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepo) UpdateStatus(ctx context.Context, id string, from, to ledger.Status) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepo) List(ctx context.Context, f ledger.Filter, limit, offset int) ([]ledger.Transaction, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Transaction), args.Error(1)
}

func (m *MockLedgerRepo) InsertWithHold(ctx context.Context, tx *ledger.Transaction, shopID int, grossCents int64) error {
	return m.Called(ctx, tx, shopID, grossCents).Error(0)
}

func (m *MockLedgerRepo) CompleteWithCredit(ctx context.Context, id string, shopID int, creditCents int64) (bool, error) {
	args := m.Called(ctx, id, shopID, creditCents)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepo) ReleaseHold(ctx context.Context, id string, shopID int, grossCents int64) (bool, error) {
	args := m.Called(ctx, id, shopID, grossCents)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerRepo) InsertRefund(ctx context.Context, tx *ledger.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

type MockGateway struct{ mock.Mock }

func (m *MockGateway) CreatePayment(ctx context.Context, req gateway.CreatePaymentRequest) (*gateway.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Payment), args.Error(1)
}

func (m *MockGateway) GetPayment(ctx context.Context, id string) (*gateway.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Payment), args.Error(1)
}

func (m *MockGateway) ListPayments(ctx context.Context, since time.Time) ([]gateway.Payment, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gateway.Payment), args.Error(1)
}
