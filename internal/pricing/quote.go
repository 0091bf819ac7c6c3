package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteItem is one priced product line. Created once per build and
// immutable thereafter except by rebuilding the whole quote.
type QuoteItem struct {
	Product                     Product             `json:"product"`
	Quantity                    int                 `json:"quantity"`
	PartialMultiplierQuantities map[string]int      `json:"partialMultiplierQuantities"`
	AppliedMultipliers          []AppliedMultiplier `json:"appliedMultipliers"`
	LineTotalBeforeDiscount     decimal.Decimal     `json:"lineTotalBeforeDiscount"`
	// DiscountableBase is the portion of the line total eligible for the
	// global discount: the base component when the product is
	// discountable, plus surcharges from discountable multipliers.
	DiscountableBase decimal.Decimal `json:"discountableBase"`
}

// Totals holds the derived quote amounts. Downstream consumers (PDF,
// export) read these and never recompute them.
type Totals struct {
	SubtotalBeforeDiscount decimal.Decimal `json:"subtotalBeforeDiscount"`
	DiscountableSubtotal   decimal.Decimal `json:"discountableSubtotal"`
	TotalDiscountAmount    decimal.Decimal `json:"totalDiscountAmount"`
	SubtotalAfterDiscount  decimal.Decimal `json:"subtotalAfterDiscount"`
	TaxAmount              decimal.Decimal `json:"taxAmount"`
	GrandTotal             decimal.Decimal `json:"grandTotal"`
}

// Quote is an immutable priced snapshot. It is replaced wholesale by
// re-running the builder, never mutated field by field.
type Quote struct {
	ID                 string          `json:"id"`
	CustomerName       string          `json:"customerName"`
	CustomerEmail      string          `json:"customerEmail"`
	CustomerPhone      string          `json:"customerPhone"`
	CompanyName        string          `json:"companyName"`
	CustomMessage      string          `json:"customMessage"`
	Items              []QuoteItem     `json:"items"`
	TaxRate            decimal.Decimal `json:"taxRate"`
	GlobalDiscountRate decimal.Decimal `json:"globalDiscountRate"`
	Totals             Totals          `json:"totals"`
	CreatedAt          time.Time       `json:"createdAt"`
}
