package pricing

import "github.com/shopspring/decimal"

// MultiplierType distinguishes how a multiplier's value is applied.
type MultiplierType string

const (
	// MultiplierPercentage applies the value as a percentage of the product base price.
	MultiplierPercentage MultiplierType = "percentage"
	// MultiplierFixedPerUnit applies the value as a flat surcharge per assigned unit.
	MultiplierFixedPerUnit MultiplierType = "fixed_per_unit"
)

var oneHundred = decimal.NewFromInt(100)

// Multiplier is a named, reusable price adjustment assignable to a
// subset of a line item's quantity.
type Multiplier struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           MultiplierType  `json:"type"`
	Value          decimal.Decimal `json:"value"`
	IsDiscountable bool            `json:"isDiscountable"`
}

// Surcharge computes the charge this multiplier adds when applied to
// appliedQty units of a product with the given base price.
func (m Multiplier) Surcharge(basePrice decimal.Decimal, appliedQty int) decimal.Decimal {
	qty := decimal.NewFromInt(int64(appliedQty))
	switch m.Type {
	case MultiplierPercentage:
		return basePrice.Mul(m.Value).Div(oneHundred).Mul(qty)
	case MultiplierFixedPerUnit:
		return m.Value.Mul(qty)
	default:
		return decimal.Zero
	}
}

// AppliedMultiplier is the snapshot of a multiplier captured on a quote
// item at build time. A built quote never reads the live catalog, so
// later edits or deletion of the source multiplier cannot change it.
type AppliedMultiplier struct {
	MultiplierID   string          `json:"multiplierId"`
	Name           string          `json:"name"`
	Type           MultiplierType  `json:"type"`
	AppliedValue   decimal.Decimal `json:"appliedValue"`
	AppliedQty     int             `json:"appliedQty"`
	IsDiscountable bool            `json:"isDiscountable"`
	Surcharge      decimal.Decimal `json:"surcharge"`
}
