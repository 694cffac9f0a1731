package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every stock change on a product. Created on order
// creation, admin adjustment, and (when the policy is on) cancel restock.
// Movements are NEVER modified or deleted.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind        string    `gorm:"not null"` // "order" | "adjustment" | "restock_cancel"
	Quantity    int       `gorm:"not null"` // positive = in, negative = out
	StockBefore int       `gorm:"not null"`
	StockAfter  int       `gorm:"not null"`
	Reason      string
	RefID       *uuid.UUID `gorm:"type:uuid"` // order_id or session_id if applicable
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
