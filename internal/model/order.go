package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment method values.
const (
	PaymentCash    = "cash"
	PaymentDigital = "digital"
)

// Payment status values. Terminal once paid or failed.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Kitchen-facing order status values. Forward-only:
// waiting → processing → completed, cancelled reachable from the first two.
const (
	OrderWaiting    = "waiting"
	OrderProcessing = "processing"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

// Order is the aggregate created at checkout. TableNumber and CustomerName
// are captured by value so later table edits never alter history; the same
// goes for every price field on its items. Orders are never deleted.
type Order struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TableID       uuid.UUID `gorm:"type:uuid;not null;index"`
	TableNumber   int       `gorm:"not null"`
	CustomerName  string    `gorm:"not null"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string    `gorm:"type:varchar(20);not null"`
	PaymentStatus string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	OrderStatus   string    `gorm:"type:varchar(20);not null;default:'waiting';index"`
	// SessionID links the order to the stock session it was sold under,
	// so daily reports can aggregate by session.
	SessionID *uuid.UUID `gorm:"type:uuid;index"`
	// Hosted-checkout reference for digital orders.
	ProviderInvoiceID *string
	CheckoutURL       *string
	CreatedAt         time.Time `gorm:"index"`
	UpdatedAt         time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

// OrderItem is one line of an order with the product name and base price
// frozen at creation time.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"not null"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity    int             `gorm:"not null"`
	Note        *string
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Addons []OrderItemAddon `gorm:"foreignKey:OrderItemID"`
}

// OrderItemAddon is a resolved add-on selection captured by value: option and
// value names plus the price impact as they were at order time.
type OrderItemAddon struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderItemID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	AddonOptionID uuid.UUID       `gorm:"type:uuid;not null"`
	AddonValueID  uuid.UUID       `gorm:"type:uuid;not null"`
	OptionName    string          `gorm:"not null"`
	ValueName     string          `gorm:"not null"`
	PriceImpact   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
