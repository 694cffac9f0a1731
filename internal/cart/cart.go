// Package cart implements the cart composer: it resolves a raw cart against
// the catalog into priced line items with every price captured by value, so
// that later catalog edits can never alter an order retroactively.
package cart

import (
	"fmt"

	"kasirless/internal/apperr"
	"kasirless/internal/dto"
	"kasirless/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Selection is a resolved add-on choice with its price impact frozen.
type Selection struct {
	OptionID    uuid.UUID
	ValueID     uuid.UUID
	OptionName  string
	ValueName   string
	PriceImpact decimal.Decimal
}

// ResolvedItem is one validated, priced line of a cart.
// Subtotal = (BasePrice + Σ selection price impacts) × Quantity.
type ResolvedItem struct {
	ProductID   uuid.UUID
	ProductName string
	BasePrice   decimal.Decimal
	Quantity    int
	Note        *string
	Selections  []Selection
	Subtotal    decimal.Decimal
}

// Compose validates and prices a cart against the catalog. Products must be
// loaded with their add-on configuration (Addons → Option → Values).
//
// Rules:
//   - zero-quantity lines are dropped (the client removes a line by
//     decrementing to zero), negative quantities are rejected;
//   - unavailable or unknown products are rejected;
//   - every option marked required on the product needs exactly one selection,
//     with no silent defaulting;
//   - the price impact is taken from the catalog value, not from the request.
//
// An empty cart after dropping zero-quantity lines is ErrEmptyCart.
func Compose(products map[uuid.UUID]*model.Product, items []dto.CartItemRequest) ([]ResolvedItem, decimal.Decimal, error) {
	resolved := make([]ResolvedItem, 0, len(items))
	total := decimal.Zero

	for _, item := range items {
		if item.Quantity < 0 {
			return nil, decimal.Zero, apperr.ErrInvalidQuantity
		}
		if item.Quantity == 0 {
			continue
		}

		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("invalid product_id %q: %w", item.ProductID, err)
		}
		p, ok := products[pid]
		if !ok || !p.IsAvailable {
			return nil, decimal.Zero, apperr.ErrProductUnavailable
		}

		selections, err := resolveSelections(p, item.SelectedAddons)
		if err != nil {
			return nil, decimal.Zero, err
		}

		unit := p.Price
		for _, sel := range selections {
			unit = unit.Add(sel.PriceImpact)
		}
		subtotal := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))

		resolved = append(resolved, ResolvedItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			BasePrice:   p.Price,
			Quantity:    item.Quantity,
			Note:        item.Note,
			Selections:  selections,
			Subtotal:    subtotal,
		})
		total = total.Add(subtotal)
	}

	if len(resolved) == 0 {
		return nil, decimal.Zero, apperr.ErrEmptyCart
	}
	return resolved, total, nil
}

// resolveSelections maps the requested add-on choices onto the product's
// configured options and enforces the mandatory-option rule.
func resolveSelections(p *model.Product, reqs []dto.AddonSelectionRequest) ([]Selection, error) {
	chosen := make(map[uuid.UUID]uuid.UUID, len(reqs))
	for _, r := range reqs {
		optID, err := uuid.Parse(r.AddonOptionID)
		if err != nil {
			return nil, fmt.Errorf("invalid addon_option_id %q: %w", r.AddonOptionID, err)
		}
		valID, err := uuid.Parse(r.AddonValueID)
		if err != nil {
			return nil, fmt.Errorf("invalid addon_value_id %q: %w", r.AddonValueID, err)
		}
		chosen[optID] = valID
	}

	var selections []Selection
	for _, pa := range p.Addons {
		if pa.Option == nil {
			continue
		}
		valID, picked := chosen[pa.AddonOptionID]
		if !picked {
			if pa.Required {
				return nil, &apperr.MissingAddonSelectionError{ProductName: p.Name, OptionName: pa.Option.Name}
			}
			continue
		}
		val := findValue(pa.Option, valID)
		if val == nil {
			return nil, fmt.Errorf("addon value %s does not belong to option %q of product %s", valID, pa.Option.Name, p.Name)
		}
		selections = append(selections, Selection{
			OptionID:    pa.AddonOptionID,
			ValueID:     val.ID,
			OptionName:  pa.Option.Name,
			ValueName:   val.Value,
			PriceImpact: val.PriceImpact,
		})
		delete(chosen, pa.AddonOptionID)
	}

	// Selections for options the product does not carry are a client bug.
	if len(chosen) > 0 {
		return nil, fmt.Errorf("product %s received a selection for an option it does not have", p.Name)
	}
	return selections, nil
}

func findValue(opt *model.AddonOption, id uuid.UUID) *model.AddonValue {
	for i := range opt.Values {
		if opt.Values[i].ID == id {
			return &opt.Values[i]
		}
	}
	return nil
}

// DefaultSelections returns the pre-selected choices for a product: the first
// zero-impact value of each required option, where one exists. Options whose
// every value changes the price get no default — the customer must decide.
func DefaultSelections(p *model.Product) []dto.AddonSelectionRequest {
	var defaults []dto.AddonSelectionRequest
	for _, pa := range p.Addons {
		if !pa.Required || pa.Option == nil {
			continue
		}
		for _, v := range pa.Option.Values {
			if v.PriceImpact.IsZero() {
				defaults = append(defaults, dto.AddonSelectionRequest{
					AddonOptionID: pa.AddonOptionID.String(),
					AddonValueID:  v.ID.String(),
				})
				break
			}
		}
	}
	return defaults
}
