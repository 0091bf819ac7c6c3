package pricing

import "github.com/shopspring/decimal"

// Product is a catalog entry. Quote items store a copy of the product,
// so a saved quote's prices never change retroactively when the catalog
// entry is edited or deleted.
//
// A negative base price is the voucher convention: a flat credit against
// the quote total. Vouchers are marked non-discountable so a global
// discount never discounts a refund.
type Product struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	UnitType       string          `json:"unitType"`
	BasePrice      decimal.Decimal `json:"basePrice"`
	Category       string          `json:"category"`
	IsDiscountable bool            `json:"isDiscountable"`
}
