package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AddonSelectionRequest references one chosen value of one option.
type AddonSelectionRequest struct {
	AddonOptionID string `json:"addon_option_id" validate:"required,uuid"`
	AddonValueID  string `json:"addon_value_id"  validate:"required,uuid"`
}

type CartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	// Quantity 0 is tolerated and dropped by the cart composer (the client
	// removes lines by decrementing to zero); negative values are rejected.
	Quantity       int                     `json:"quantity" validate:"min=0"`
	Note           *string                 `json:"notes"`
	SelectedAddons []AddonSelectionRequest `json:"selected_addons" validate:"dive"`
}

type CreateOrderRequest struct {
	TableToken    string            `json:"table_uuid"     validate:"required,uuid"`
	CustomerName  string            `json:"customer_name"  validate:"required,min=1,max=100"`
	CartItems     []CartItemRequest `json:"cart_items"     validate:"required,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash digital"`
}

// PaymentWebhookRequest is the provider's invoice callback payload.
// ExternalID carries our order id; Status is PAID or EXPIRED.
type PaymentWebhookRequest struct {
	ExternalID string `json:"external_id" validate:"required,uuid"`
	Status     string `json:"status"      validate:"required,oneof=PAID EXPIRED"`
	InvoiceID  string `json:"id"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderItemAddonResponse struct {
	OptionName  string          `json:"addon_option_name"`
	ValueName   string          `json:"addon_value_name"`
	PriceImpact decimal.Decimal `json:"price_impact"`
}

type OrderItemResponse struct {
	ProductName string                   `json:"product_name"`
	BasePrice   decimal.Decimal          `json:"base_price"`
	Quantity    int                      `json:"quantity"`
	Note        *string                  `json:"notes"`
	Subtotal    decimal.Decimal          `json:"subtotal"`
	Addons      []OrderItemAddonResponse `json:"addons"`
}

type OrderResponse struct {
	OrderID       string              `json:"order_id"`
	TableNumber   int                 `json:"table_number"`
	CustomerName  string              `json:"customer_name"`
	Items         []OrderItemResponse `json:"items"`
	Total         decimal.Decimal     `json:"total"`
	PaymentMethod string              `json:"payment_method"`
	PaymentStatus string              `json:"payment_status"`
	OrderStatus   string              `json:"order_status"`
	CheckoutURL   *string             `json:"checkout_url,omitempty"`
	CreatedAt     string              `json:"created_at"`
}

// CreateOrderResponse is what the customer client receives at checkout.
type CreateOrderResponse struct {
	OrderID     string  `json:"order_id"`
	Message     string  `json:"message"`
	CheckoutURL *string `json:"checkout_url,omitempty"`
}
