package cart

import (
	"errors"
	"testing"

	"kasirless/internal/apperr"
	"kasirless/internal/dto"
	"kasirless/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLatte returns a product with a mandatory "Size" option (Regular +0,
// Large +5000) and an optional "Extra Shot" option (+8000).
func buildLatte() (*model.Product, map[string]uuid.UUID) {
	ids := map[string]uuid.UUID{
		"product":    uuid.New(),
		"sizeOpt":    uuid.New(),
		"sizeReg":    uuid.New(),
		"sizeLarge":  uuid.New(),
		"shotOpt":    uuid.New(),
		"shotSingle": uuid.New(),
	}

	size := &model.AddonOption{
		ID:   ids["sizeOpt"],
		Name: "Size",
		Values: []model.AddonValue{
			{ID: ids["sizeReg"], AddonOptionID: ids["sizeOpt"], Value: "Regular", PriceImpact: decimal.Zero},
			{ID: ids["sizeLarge"], AddonOptionID: ids["sizeOpt"], Value: "Large", PriceImpact: decimal.NewFromInt(5000)},
		},
	}
	shot := &model.AddonOption{
		ID:   ids["shotOpt"],
		Name: "Extra Shot",
		Values: []model.AddonValue{
			{ID: ids["shotSingle"], AddonOptionID: ids["shotOpt"], Value: "Single", PriceImpact: decimal.NewFromInt(8000)},
		},
	}

	p := &model.Product{
		ID:          ids["product"],
		Name:        "Latte",
		Price:       decimal.NewFromInt(25000),
		IsAvailable: true,
		Addons: []model.ProductAddon{
			{ProductID: ids["product"], AddonOptionID: ids["sizeOpt"], Required: true, Option: size},
			{ProductID: ids["product"], AddonOptionID: ids["shotOpt"], Required: false, Option: shot},
		},
	}
	return p, ids
}

func TestComposePricesLineWithAddons(t *testing.T) {
	p, ids := buildLatte()
	products := map[uuid.UUID]*model.Product{p.ID: p}

	items := []dto.CartItemRequest{{
		ProductID: p.ID.String(),
		Quantity:  2,
		SelectedAddons: []dto.AddonSelectionRequest{
			{AddonOptionID: ids["sizeOpt"].String(), AddonValueID: ids["sizeLarge"].String()},
			{AddonOptionID: ids["shotOpt"].String(), AddonValueID: ids["shotSingle"].String()},
		},
	}}

	resolved, total, err := Compose(products, items)
	require.NoError(t, err)
	require.Len(t, resolved, 1)

	// (25000 + 5000 + 8000) × 2
	assert.True(t, decimal.NewFromInt(76000).Equal(total), "total = %s", total)
	assert.True(t, decimal.NewFromInt(76000).Equal(resolved[0].Subtotal))
	assert.Equal(t, "Latte", resolved[0].ProductName)
	assert.Len(t, resolved[0].Selections, 2)
}

func TestComposeFreezesCatalogPrice(t *testing.T) {
	p, ids := buildLatte()
	products := map[uuid.UUID]*model.Product{p.ID: p}

	items := []dto.CartItemRequest{{
		ProductID: p.ID.String(),
		Quantity:  1,
		SelectedAddons: []dto.AddonSelectionRequest{
			{AddonOptionID: ids["sizeOpt"].String(), AddonValueID: ids["sizeReg"].String()},
		},
	}}

	resolved, total, err := Compose(products, items)
	require.NoError(t, err)

	// Mutate the catalog after composing — the resolved line must not move.
	p.Price = decimal.NewFromInt(99999)
	assert.True(t, decimal.NewFromInt(25000).Equal(resolved[0].BasePrice))
	assert.True(t, decimal.NewFromInt(25000).Equal(total))
}

func TestComposeMissingMandatoryAddon(t *testing.T) {
	p, _ := buildLatte()
	products := map[uuid.UUID]*model.Product{p.ID: p}

	items := []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 1}}

	_, _, err := Compose(products, items)
	var addonErr *apperr.MissingAddonSelectionError
	require.True(t, errors.As(err, &addonErr))
	assert.Equal(t, "Size", addonErr.OptionName)
	assert.Equal(t, "Latte", addonErr.ProductName)
}

func TestComposeDropsZeroQuantityLines(t *testing.T) {
	p, ids := buildLatte()
	products := map[uuid.UUID]*model.Product{p.ID: p}

	items := []dto.CartItemRequest{
		{ProductID: p.ID.String(), Quantity: 0},
		{ProductID: p.ID.String(), Quantity: 1, SelectedAddons: []dto.AddonSelectionRequest{
			{AddonOptionID: ids["sizeOpt"].String(), AddonValueID: ids["sizeReg"].String()},
		}},
	}

	resolved, _, err := Compose(products, items)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)
}

func TestComposeEmptyCart(t *testing.T) {
	p, _ := buildLatte()
	products := map[uuid.UUID]*model.Product{p.ID: p}

	_, _, err := Compose(products, nil)
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)

	// All-zero cart collapses to empty as well.
	_, _, err = Compose(products, []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: 0}})
	assert.ErrorIs(t, err, apperr.ErrEmptyCart)
}

func TestComposeNegativeQuantity(t *testing.T) {
	p, _ := buildLatte()
	products := map[uuid.UUID]*model.Product{p.ID: p}

	_, _, err := Compose(products, []dto.CartItemRequest{{ProductID: p.ID.String(), Quantity: -1}})
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
}

func TestComposeUnavailableProduct(t *testing.T) {
	p, ids := buildLatte()
	p.IsAvailable = false
	products := map[uuid.UUID]*model.Product{p.ID: p}

	items := []dto.CartItemRequest{{
		ProductID: p.ID.String(),
		Quantity:  1,
		SelectedAddons: []dto.AddonSelectionRequest{
			{AddonOptionID: ids["sizeOpt"].String(), AddonValueID: ids["sizeReg"].String()},
		},
	}}
	_, _, err := Compose(products, items)
	assert.ErrorIs(t, err, apperr.ErrProductUnavailable)
}

func TestComposeRejectsForeignAddonValue(t *testing.T) {
	p, ids := buildLatte()
	products := map[uuid.UUID]*model.Product{p.ID: p}

	// Value from the shot option submitted under the size option.
	items := []dto.CartItemRequest{{
		ProductID: p.ID.String(),
		Quantity:  1,
		SelectedAddons: []dto.AddonSelectionRequest{
			{AddonOptionID: ids["sizeOpt"].String(), AddonValueID: ids["shotSingle"].String()},
		},
	}}
	_, _, err := Compose(products, items)
	assert.Error(t, err)
}

func TestDefaultSelectionsPrefersZeroImpact(t *testing.T) {
	p, ids := buildLatte()

	defaults := DefaultSelections(p)
	require.Len(t, defaults, 1)
	assert.Equal(t, ids["sizeOpt"].String(), defaults[0].AddonOptionID)
	assert.Equal(t, ids["sizeReg"].String(), defaults[0].AddonValueID)
}
