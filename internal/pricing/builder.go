package pricing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/matijepekovic/pricer-api/internal/common"
)

// CustomerDraft carries customer fields entered before a quote exists.
type CustomerDraft struct {
	Name          string
	Email         string
	Phone         string
	CompanyName   string
	CustomMessage string
}

// BuildInput is the full snapshot a build runs over. Callers construct a
// fresh value per invocation; the builder never mutates it and never
// holds references into it past the call.
type BuildInput struct {
	Products           map[string]Product
	Multipliers        map[string]Multiplier
	Quantities         map[string]string            // productID → user-entered quantity text
	Assignments        map[string]map[string]string // productID → multiplierID → quantity text
	Existing           *Quote
	Customer           CustomerDraft
	TaxRate            decimal.Decimal
	GlobalDiscountRate decimal.Decimal
}

// BuildWarning reports a non-fatal anomaly found while resolving one
// product's assignments.
type BuildWarning struct {
	ProductID           string
	OverAssigned        bool
	RejectedMultipliers []string
}

// Build prices every product with a positive quantity and assembles an
// immutable Quote. A nil quote with a nil error means no product had a
// positive quantity; callers must treat that as "no quote", not as a
// failure.
//
// When Existing is set the new quote keeps its id, creation time, and
// any customer fields already entered, so rebuilds triggered by
// quantity or rate edits do not discard customer info.
func Build(in BuildInput) (*Quote, []BuildWarning, error) {
	if err := validateRates(in.TaxRate, in.GlobalDiscountRate); err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(in.Products))
	for id := range in.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var warnings []BuildWarning
	var items []QuoteItem
	for _, id := range ids {
		qty, ok := common.ParseQuantity(in.Quantities[id])
		if !ok || qty <= 0 {
			// Not ordered. A zero or blank quantity never produces a line.
			continue
		}
		res := ResolveAssignments(in.Assignments[id], qty, in.Multipliers)
		if res.OverAssigned || len(res.Rejected) > 0 {
			warnings = append(warnings, BuildWarning{
				ProductID:           id,
				OverAssigned:        res.OverAssigned,
				RejectedMultipliers: res.Rejected,
			})
		}
		item, err := PriceItem(in.Products[id], qty, res.Assignments, in.Multipliers)
		if err != nil {
			return nil, warnings, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil, warnings, nil
	}

	totals, err := Aggregate(items, in.TaxRate, in.GlobalDiscountRate)
	if err != nil {
		return nil, warnings, err
	}
	q := &Quote{
		ID:                 uuid.NewString(),
		CustomerName:       in.Customer.Name,
		CustomerEmail:      in.Customer.Email,
		CustomerPhone:      in.Customer.Phone,
		CompanyName:        in.Customer.CompanyName,
		CustomMessage:      in.Customer.CustomMessage,
		Items:              items,
		TaxRate:            in.TaxRate,
		GlobalDiscountRate: in.GlobalDiscountRate,
		Totals:             totals,
		CreatedAt:          time.Now().UTC(),
	}
	if in.Existing != nil {
		q.ID = in.Existing.ID
		q.CreatedAt = in.Existing.CreatedAt
		q.CustomerName = pick(in.Customer.Name, in.Existing.CustomerName)
		q.CustomerEmail = pick(in.Customer.Email, in.Existing.CustomerEmail)
		q.CustomerPhone = pick(in.Customer.Phone, in.Existing.CustomerPhone)
		q.CompanyName = pick(in.Customer.CompanyName, in.Existing.CompanyName)
		q.CustomMessage = pick(in.Customer.CustomMessage, in.Existing.CustomMessage)
	}
	return q, warnings, nil
}

// RemoveItem returns a copy of q without the given product line. When
// the last line is removed the quote collapses to nil rather than
// persisting as an empty quote.
func RemoveItem(q *Quote, productID string) (*Quote, error) {
	if q == nil {
		return nil, nil
	}
	kept := make([]QuoteItem, 0, len(q.Items))
	for _, it := range q.Items {
		if it.Product.ID == productID {
			continue
		}
		kept = append(kept, it)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	totals, err := Aggregate(kept, q.TaxRate, q.GlobalDiscountRate)
	if err != nil {
		return nil, err
	}
	out := *q
	out.Items = kept
	out.Totals = totals
	return &out, nil
}

// pick prefers the freshly entered value and falls back to what the
// existing quote already had, so a rebuild never blanks customer info.
func pick(draft, existing string) string {
	if draft != "" {
		return draft
	}
	return existing
}
