package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/apperr"
	"marketplace/internal/logger"
	"marketplace/internal/metrics"
)

const (
	maxAttempts   = 3
	retryBaseWait = 500 * time.Millisecond
)

// HTTPClient is the production Client over the provider's REST API.
type HTTPClient struct {
	baseURL   string
	shopID    string
	secretKey string
	client    *http.Client
}

func NewHTTPClient(baseURL, shopID, secretKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:   strings.TrimRight(baseURL, "/"),
		shopID:    shopID,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type wireAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type wireConfirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type wirePayment struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       wireAmount        `json:"amount"`
	Confirmation *wireConfirmation `json:"confirmation,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	CapturedAt   *time.Time        `json:"captured_at,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type wirePaymentList struct {
	Items []wirePayment `json:"items"`
}

type wireCreatePayment struct {
	Amount       wireAmount        `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation wireConfirmation  `json:"confirmation"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// valueFromCents renders subunits as the provider's decimal string ("5000.00").
func valueFromCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func centsFromValue(value string) (int64, error) {
	whole, frac, _ := strings.Cut(value, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad amount value %q: %w", value, err)
	}

	var cents int64
	switch len(frac) {
	case 0:
		cents = 0
	case 1:
		c, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad amount value %q: %w", value, err)
		}
		cents = c * 10
	default:
		c, err := strconv.ParseInt(frac[:2], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("bad amount value %q: %w", value, err)
		}
		cents = c
	}

	if n < 0 || strings.HasPrefix(whole, "-") {
		return n*100 - cents, nil
	}
	return n*100 + cents, nil
}

func (p *wirePayment) toPayment() (*Payment, error) {
	cents, err := centsFromValue(p.Amount.Value)
	if err != nil {
		return nil, err
	}

	out := &Payment{
		ID:          p.ID,
		Status:      PaymentStatus(p.Status),
		AmountCents: cents,
		Currency:    p.Amount.Currency,
		CreatedAt:   p.CreatedAt,
		CapturedAt:  p.CapturedAt,
		Metadata:    p.Metadata,
	}
	if p.Confirmation != nil {
		out.ConfirmationURL = p.Confirmation.ConfirmationURL
	}
	return out, nil
}

func (c *HTTPClient) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*Payment, error) {
	body := wireCreatePayment{
		Amount:  wireAmount{Value: valueFromCents(req.AmountCents), Currency: req.Currency},
		Capture: true,
		Confirmation: wireConfirmation{
			Type:      "redirect",
			ReturnURL: req.ReturnURL,
		},
		Description: req.Description,
		Metadata:    req.Metadata,
	}

	var wp wirePayment
	if err := c.do(ctx, http.MethodPost, "/payments", req.IdempotencyKey, body, &wp); err != nil {
		metrics.RecordGatewayRequest("create_payment", "error")
		return nil, err
	}
	metrics.RecordGatewayRequest("create_payment", "ok")

	return wp.toPayment()
}

func (c *HTTPClient) GetPayment(ctx context.Context, id string) (*Payment, error) {
	var wp wirePayment
	if err := c.do(ctx, http.MethodGet, "/payments/"+url.PathEscape(id), "", nil, &wp); err != nil {
		metrics.RecordGatewayRequest("get_payment", "error")
		return nil, err
	}
	metrics.RecordGatewayRequest("get_payment", "ok")

	return wp.toPayment()
}

func (c *HTTPClient) ListPayments(ctx context.Context, since time.Time) ([]Payment, error) {
	path := "/payments?limit=100&created_at.gte=" + url.QueryEscape(since.UTC().Format(time.RFC3339))

	var list wirePaymentList
	if err := c.do(ctx, http.MethodGet, path, "", nil, &list); err != nil {
		metrics.RecordGatewayRequest("list_payments", "error")
		return nil, err
	}
	metrics.RecordGatewayRequest("list_payments", "ok")

	out := make([]Payment, 0, len(list.Items))
	for i := range list.Items {
		p, err := list.Items[i].toPayment()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// do runs one API call with bounded retries. Only transport failures and
// 5xx/429 responses are retried; the idempotency key makes the retry safe.
func (c *HTTPClient) do(ctx context.Context, method, path, idempotencyKey string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return apperr.Gateway(true, "gateway request aborted", ctx.Err())
			case <-time.After(retryBaseWait * time.Duration(attempt-1)):
			}
			logger.Debug("retrying gateway request", "method", method, "path", path, "attempt", attempt)
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.shopID, c.secretKey)
		req.Header.Set("Content-Type", "application/json")
		if idempotencyKey != "" {
			req.Header.Set("Idempotence-Key", idempotencyKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Timeouts and connection resets: retry with the same key.
			lastErr = apperr.Gateway(true, "gateway unreachable", err)
			continue
		}

		retryable, err := c.handleResponse(resp, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}

	return lastErr
}

func (c *HTTPClient) handleResponse(resp *http.Response, out interface{}) (retryable bool, err error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return true, apperr.Gateway(true, "failed to read gateway response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out != nil {
			if err := json.Unmarshal(body, out); err != nil {
				return false, apperr.Gateway(false, "malformed gateway response", err)
			}
		}
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return true, apperr.Gateway(true,
			fmt.Sprintf("gateway responded %d", resp.StatusCode), nil)
	default:
		return false, apperr.Gateway(false,
			fmt.Sprintf("gateway rejected request with %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
}
