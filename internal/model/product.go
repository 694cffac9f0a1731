package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a menu item. CurrentStock is nullable: nil means the product is
// not stock-tracked (unlimited), so ordering never decrements it.
type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name         string    `gorm:"index;not null"`
	Description  *string
	CategoryID   *uuid.UUID      `gorm:"type:uuid;index"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ImageURL     *string
	IsAvailable  bool `gorm:"not null;default:true"`
	CurrentStock *int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Category *Category      `gorm:"foreignKey:CategoryID"`
	Addons   []ProductAddon `gorm:"foreignKey:ProductID"`
}

// Tracked reports whether the product participates in stock accounting.
func (p *Product) Tracked() bool { return p.CurrentStock != nil }

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

// AddonOption is a customization axis (e.g. "Size", "Sugar Level").
type AddonOption struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time

	Values []AddonValue `gorm:"foreignKey:AddonOptionID"`
}

// AddonValue is one selectable value of an option, carrying a price delta.
type AddonValue struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AddonOptionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Value         string          `gorm:"not null"`
	PriceImpact   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt     time.Time
}

// ProductAddon attaches an option to a product. Required=true means an order
// for this product must carry a selection for the option.
type ProductAddon struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_option"`
	AddonOptionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_option"`
	Required      bool      `gorm:"not null;default:false"`

	Option *AddonOption `gorm:"foreignKey:AddonOptionID"`
}
