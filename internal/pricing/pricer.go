package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	// ErrNonPositiveQuantity is returned when a caller asks to price a
	// line with quantity ≤ 0. Zero quantity means "not ordered" and must
	// be filtered out before pricing.
	ErrNonPositiveQuantity = errors.New("pricing: quantity must be positive")
	// ErrNegativeAssignment is returned when an assignment carries a
	// negative applied quantity.
	ErrNegativeAssignment = errors.New("pricing: assigned quantity must not be negative")
	// ErrUnknownMultiplier is returned when an assignment references a
	// multiplier missing from the catalog.
	ErrUnknownMultiplier = errors.New("pricing: assignment references unknown multiplier")
)

// PriceItem computes the priced line for one product: base price times
// quantity plus one surcharge component per assigned multiplier. Each
// surcharge is computed against the full assigned quantity independently
// of the others, so overlapping assignments stack rather than partition
// the line.
//
// The returned item holds snapshot copies of the product and every
// applied multiplier.
func PriceItem(p Product, qty int, assignments map[string]int, catalog map[string]Multiplier) (QuoteItem, error) {
	if qty <= 0 {
		return QuoteItem{}, ErrNonPositiveQuantity
	}
	base := p.BasePrice.Mul(decimal.NewFromInt(int64(qty)))
	item := QuoteItem{
		Product:                     p,
		Quantity:                    qty,
		PartialMultiplierQuantities: make(map[string]int, len(assignments)),
		LineTotalBeforeDiscount:     base,
		DiscountableBase:            decimal.Zero,
	}
	if p.IsDiscountable {
		item.DiscountableBase = base
	}

	// Deterministic multiplier order keeps rebuilt quotes bit-identical.
	ids := make([]string, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		applied := assignments[id]
		if applied < 0 {
			return QuoteItem{}, fmt.Errorf("%w: %s", ErrNegativeAssignment, id)
		}
		if applied == 0 {
			continue
		}
		m, ok := catalog[id]
		if !ok {
			return QuoteItem{}, fmt.Errorf("%w: %s", ErrUnknownMultiplier, id)
		}
		surcharge := m.Surcharge(p.BasePrice, applied)
		item.PartialMultiplierQuantities[id] = applied
		item.AppliedMultipliers = append(item.AppliedMultipliers, AppliedMultiplier{
			MultiplierID:   m.ID,
			Name:           m.Name,
			Type:           m.Type,
			AppliedValue:   m.Value,
			AppliedQty:     applied,
			IsDiscountable: m.IsDiscountable,
			Surcharge:      surcharge,
		})
		item.LineTotalBeforeDiscount = item.LineTotalBeforeDiscount.Add(surcharge)
		if m.IsDiscountable {
			item.DiscountableBase = item.DiscountableBase.Add(surcharge)
		}
	}
	return item, nil
}
