package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kasirless/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// XenditClient talks to the Xendit hosted-checkout invoice API. Calls run
// through a circuit breaker so an outage fast-fails checkouts instead of
// stacking 30s timeouts on every customer.
//
// external_id on the invoice carries our order id; the webhook echoes it back.
type XenditClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewXenditClient(baseURL, apiKey string) *XenditClient {
	return &XenditClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cb:         NewCircuitBreaker(DefaultCBConfig()),
	}
}

// Breaker exposes the circuit state for the health endpoint.
func (c *XenditClient) Breaker() *CircuitBreaker { return c.cb }

type invoiceRequest struct {
	ExternalID  string  `json:"external_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	PayerName   string  `json:"payer_name,omitempty"`
}

type invoiceResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"external_id"`
	Status     string `json:"status"`
	InvoiceURL string `json:"invoice_url"`
}

func (c *XenditClient) CreateInvoice(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, customerName string) (*service.PaymentInvoice, error) {
	payload := invoiceRequest{
		ExternalID:  orderID.String(),
		Amount:      amount.InexactFloat64(),
		Description: "Order " + orderID.String(),
		PayerName:   customerName,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("xendit: marshal invoice: %w", err)
	}

	var result invoiceResponse
	err = c.cb.Execute(func() error {
		return c.do(ctx, http.MethodPost, "/v2/invoices", bytes.NewReader(body), &result)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentInvoice(&result), nil
}

func (c *XenditClient) GetInvoice(ctx context.Context, invoiceID string) (*service.PaymentInvoice, error) {
	var result invoiceResponse
	err := c.cb.Execute(func() error {
		return c.do(ctx, http.MethodGet, "/v2/invoices/"+invoiceID, nil, &result)
	})
	if err != nil {
		return nil, err
	}
	return toPaymentInvoice(&result), nil
}

func (c *XenditClient) do(ctx context.Context, method, path string, body io.Reader, out *invoiceResponse) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("xendit: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Xendit uses HTTP Basic with the API key as the username.
	req.SetBasicAuth(c.apiKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("xendit: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("xendit: returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("xendit: decode response: %w", err)
	}
	return nil
}

func toPaymentInvoice(r *invoiceResponse) *service.PaymentInvoice {
	return &service.PaymentInvoice{
		ID:          r.ID,
		ExternalID:  r.ExternalID,
		Status:      r.Status,
		CheckoutURL: r.InvoiceURL,
	}
}

var _ service.PaymentGateway = (*XenditClient)(nil)
