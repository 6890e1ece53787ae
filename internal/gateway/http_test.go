package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"marketplace/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueFromCents(t *testing.T) {
	assert.Equal(t, "5000.00", valueFromCents(500000))
	assert.Equal(t, "0.01", valueFromCents(1))
	assert.Equal(t, "19.50", valueFromCents(1950))
	assert.Equal(t, "-5000.00", valueFromCents(-500000))
}

func TestCentsFromValue(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"5000.00", 500000},
		{"5000", 500000},
		{"0.01", 1},
		{"19.5", 1950},
		{"-5000.00", -500000},
	}
	for _, tt := range tests {
		got, err := centsFromValue(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := centsFromValue("abc")
	assert.Error(t, err)
}

func TestCreatePayment_SendsIdempotencyKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotence-Key")

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "shop-1", user)
		assert.Equal(t, "sk-test", pass)

		json.NewEncoder(w).Encode(wirePayment{
			ID:     "pay-1",
			Status: "pending",
			Amount: wireAmount{Value: "5000.00", Currency: "RUB"},
			Confirmation: &wireConfirmation{
				Type:            "redirect",
				ConfirmationURL: "https://gw.example/confirm/pay-1",
			},
			CreatedAt: time.Now(),
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "shop-1", "sk-test")
	p, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		AmountCents:    500000,
		Currency:       "RUB",
		ReturnURL:      "https://market.example/orders/1",
		IdempotencyKey: "idem-123",
	})

	require.NoError(t, err)
	assert.Equal(t, "idem-123", gotKey)
	assert.Equal(t, "pay-1", p.ID)
	assert.Equal(t, int64(500000), p.AmountCents)
	assert.Equal(t, "https://gw.example/confirm/pay-1", p.ConfirmationURL)
}

func TestCreatePayment_RetriesOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(wirePayment{
			ID:        "pay-2",
			Status:    "pending",
			Amount:    wireAmount{Value: "100.00", Currency: "RUB"},
			CreatedAt: time.Now(),
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "shop-1", "sk-test")
	p, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		AmountCents:    10000,
		Currency:       "RUB",
		IdempotencyKey: "idem-retry",
	})

	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, "pay-2", p.ID)
}

func TestCreatePayment_NoRetryOn4xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"description":"invalid currency"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "shop-1", "sk-test")
	_, err := client.CreatePayment(context.Background(), CreatePaymentRequest{
		AmountCents:    10000,
		Currency:       "XXX",
		IdempotencyKey: "idem-bad",
	})

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, apperr.IsKind(err, apperr.KindGateway))
	assert.False(t, apperr.IsRetryable(err))
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay-7", r.URL.Path)
		json.NewEncoder(w).Encode(wirePayment{
			ID:        "pay-7",
			Status:    "succeeded",
			Amount:    wireAmount{Value: "250.00", Currency: "RUB"},
			CreatedAt: time.Now(),
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "shop-1", "sk-test")
	p, err := client.GetPayment(context.Background(), "pay-7")

	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, p.Status)
	assert.Equal(t, int64(25000), p.AmountCents)
}

func TestListPayments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "created_at.gte=")
		json.NewEncoder(w).Encode(wirePaymentList{Items: []wirePayment{
			{ID: "pay-1", Status: "succeeded", Amount: wireAmount{Value: "10.00", Currency: "RUB"}, CreatedAt: time.Now()},
			{ID: "pay-2", Status: "pending", Amount: wireAmount{Value: "20.00", Currency: "RUB"}, CreatedAt: time.Now()},
		}})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "shop-1", "sk-test")
	payments, err := client.ListPayments(context.Background(), time.Now().Add(-time.Hour))

	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "pay-1", payments[0].ID)
}
