// Package realtime implements the dispatch channel between the order engine
// and the kitchen displays: a named Redis pub/sub topic fanned out to
// websocket clients. Delivery toward a display is at-least-once; the kitchen
// board deduplicates by order id. Ordering is only guaranteed per order,
// by single-writer sequencing in the order engine.
package realtime

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types pushed to kitchen displays.
const (
	EventNewOrder       = "newOrder"
	EventOrderCompleted = "orderCompleted"
)

// Event is the wire envelope. Order is set for newOrder; orderCompleted
// carries only the id (the board already holds the card).
type Event struct {
	Type    string         `json:"type"`
	OrderID uuid.UUID      `json:"order_id"`
	Order   *OrderSnapshot `json:"order,omitempty"`
}

// OrderSnapshot is everything a kitchen card needs, captured by value.
type OrderSnapshot struct {
	OrderID      uuid.UUID      `json:"order_id"`
	TableNumber  int            `json:"table_number"`
	CustomerName string         `json:"customer_name"`
	Items        []ItemSnapshot `json:"items"`
	CreatedAt    time.Time      `json:"created_at"`
}

type ItemSnapshot struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Note        *string         `json:"notes"`
	Addons      []AddonSnapshot `json:"addons"`
}

type AddonSnapshot struct {
	OptionName  string          `json:"addon_option_name"`
	ValueName   string          `json:"addon_value_name"`
	PriceImpact decimal.Decimal `json:"price_impact"`
}
