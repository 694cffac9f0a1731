package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// ProductFilter is bound from the query string of GET /api/products.
type ProductFilter struct {
	CategoryID string `form:"category_id"`
	Available  string `form:"available"` // "false" = hidden only, "all", default = available only
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  *string         `json:"description"`
	CategoryID   *string         `json:"category_id"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     *string         `json:"image_url"`
	IsAvailable  bool            `json:"is_available"`
	CurrentStock *int            `json:"current_stock"` // null = not stock-tracked
}

type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductAddonResponse lists an option attached to a product.
type ProductAddonResponse struct {
	AddonOptionID   string `json:"addon_option_id"`
	AddonOptionName string `json:"addon_option_name"`
	Required        bool   `json:"required"`
}

type AddonValueResponse struct {
	ID          string          `json:"id"`
	Value       string          `json:"value"`
	PriceImpact decimal.Decimal `json:"price_impact"`
}
