package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNegativeTaxRate is returned when the tax rate is below zero.
	// Rates outside their valid range are caller bugs; the engine rejects
	// them instead of clamping so defects surface early.
	ErrNegativeTaxRate = errors.New("pricing: tax rate must not be negative")
	// ErrDiscountRateRange is returned when the global discount rate is
	// outside [0, 100].
	ErrDiscountRateRange = errors.New("pricing: discount rate must be between 0 and 100")
)

func validateRates(taxRate, discountRate decimal.Decimal) error {
	if taxRate.IsNegative() {
		return ErrNegativeTaxRate
	}
	if discountRate.IsNegative() || discountRate.GreaterThan(oneHundred) {
		return ErrDiscountRateRange
	}
	return nil
}

// Aggregate folds priced items into quote totals. The discount applies
// only to the discountable subtotal; tax is computed on the
// post-discount amount. Discount-before-tax ordering is fixed, not
// configurable. No rounding happens here: amounts are rounded at
// presentation time only.
func Aggregate(items []QuoteItem, taxRate, discountRate decimal.Decimal) (Totals, error) {
	if err := validateRates(taxRate, discountRate); err != nil {
		return Totals{}, err
	}
	subtotal := decimal.Zero
	discountable := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotalBeforeDiscount)
		discountable = discountable.Add(it.DiscountableBase)
	}
	discount := discountable.Mul(discountRate).Div(oneHundred)
	afterDiscount := subtotal.Sub(discount)
	tax := afterDiscount.Mul(taxRate).Div(oneHundred)
	return Totals{
		SubtotalBeforeDiscount: subtotal,
		DiscountableSubtotal:   discountable,
		TotalDiscountAmount:    discount,
		SubtotalAfterDiscount:  afterDiscount,
		TaxAmount:              tax,
		GrandTotal:             afterDiscount.Add(tax),
	}, nil
}
