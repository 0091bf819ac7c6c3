package quote

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/matijepekovic/pricer-api/internal/catalog"
	"github.com/matijepekovic/pricer-api/internal/common"
	"github.com/matijepekovic/pricer-api/internal/events"
	"github.com/matijepekovic/pricer-api/internal/obs"
	"github.com/matijepekovic/pricer-api/internal/pricing"
	"github.com/matijepekovic/pricer-api/internal/store"
)

// CustomerPayload carries the customer field draft state.
type CustomerPayload struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CompanyName   string `json:"companyName"`
	CustomMessage string `json:"customMessage"`
}

// Draft is the full pre-quote state the client edits. Every rebuild
// passes a fresh snapshot; the service never keeps a mutable copy
// between calls.
type Draft struct {
	QuoteID            string                       `json:"quoteId,omitempty"`
	Quantities         map[string]string            `json:"quantities"`
	Assignments        map[string]map[string]string `json:"assignments"`
	Customer           CustomerPayload              `json:"customer"`
	TaxRate            *decimal.Decimal             `json:"taxRate,omitempty"`
	GlobalDiscountRate *decimal.Decimal             `json:"globalDiscountRate,omitempty"`
}

// Service orchestrates quote builds and persistence.
type Service struct {
	Store   store.Store
	Catalog *catalog.Service
	Events  *events.Bus
	Logger  zerolog.Logger

	// Serialises rebuild persistence so the last build to complete wins.
	mu sync.Mutex
}

func quoteKey(id string) string { return "quotes/" + id }

// Rebuild runs the pricing engine over the current draft and replaces
// the stored quote. A nil result with a nil error means the draft had no
// priced lines; callers navigate back to the catalog view in that case.
//
// Rates are clamped at this boundary (discount into [0,100], tax to a
// floor of zero) so malformed client state degrades instead of erroring,
// while the engine itself stays strict.
func (s *Service) Rebuild(ctx context.Context, d Draft) (*pricing.Quote, error) {
	start := time.Now()

	products, err := s.Catalog.ProductMap(ctx)
	if err != nil {
		return nil, err
	}
	multipliers, err := s.Catalog.MultiplierMap(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := s.Catalog.Settings(ctx)
	if err != nil {
		return nil, err
	}

	taxRate := settings.DefaultTaxRate
	if d.TaxRate != nil {
		taxRate = clampTaxRate(*d.TaxRate)
	}
	discountRate := decimal.Zero
	if d.GlobalDiscountRate != nil {
		discountRate = clampDiscountRate(*d.GlobalDiscountRate)
	}

	var existing *pricing.Quote
	if d.QuoteID != "" {
		if q, err := s.Get(ctx, d.QuoteID); err == nil {
			existing = q
		}
	}

	companyName := d.Customer.CompanyName
	if companyName == "" {
		companyName = settings.CompanyName
	}

	q, warnings, err := pricing.Build(pricing.BuildInput{
		Products:    products,
		Multipliers: multipliers,
		Quantities:  d.Quantities,
		Assignments: d.Assignments,
		Existing:    existing,
		Customer: pricing.CustomerDraft{
			Name:          d.Customer.Name,
			Email:         d.Customer.Email,
			Phone:         d.Customer.Phone,
			CompanyName:   companyName,
			CustomMessage: d.Customer.CustomMessage,
		},
		TaxRate:            taxRate,
		GlobalDiscountRate: discountRate,
	})
	for _, warn := range warnings {
		s.Logger.Warn().
			Str("product_id", warn.ProductID).
			Bool("over_assigned", warn.OverAssigned).
			Strs("rejected_multipliers", warn.RejectedMultipliers).
			Msg("multiplier assignments exceed item quantity")
	}
	observeBuild(start, err)
	if err != nil {
		return nil, err
	}
	if q == nil {
		// The draft priced to nothing; an existing quote does not survive
		// as an empty shell.
		if existing != nil {
			if err := s.Store.Delete(ctx, quoteKey(existing.ID)); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	s.mu.Lock()
	err = s.Store.Save(ctx, quoteKey(q.ID), q)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("save quote: %w", err)
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicQuoteBuilt, q.ID, map[string]any{
			"quoteId":    q.ID,
			"items":      len(q.Items),
			"grandTotal": q.Totals.GrandTotal,
		}); err != nil {
			s.Logger.Warn().Err(err).Str("quote_id", q.ID).Msg("emit quote built event")
		}
	}
	return q, nil
}

// Get loads a stored quote by id.
func (s *Service) Get(ctx context.Context, id string) (*pricing.Quote, error) {
	var q pricing.Quote
	found, err := s.Store.Load(ctx, quoteKey(id), &q)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &common.AppError{Code: "NOT_FOUND", Message: "quote not found", HTTPStatus: http.StatusNotFound}
	}
	return &q, nil
}

// List returns all stored quotes sorted by creation time, newest first.
func (s *Service) List(ctx context.Context) ([]pricing.Quote, error) {
	keys, err := s.Store.List(ctx, "quotes/")
	if err != nil {
		return nil, err
	}
	quotes := make([]pricing.Quote, 0, len(keys))
	for _, key := range keys {
		var q pricing.Quote
		found, err := s.Store.Load(ctx, key, &q)
		if err != nil {
			return nil, err
		}
		if found {
			quotes = append(quotes, q)
		}
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].CreatedAt.After(quotes[j].CreatedAt) })
	return quotes, nil
}

// Delete removes a stored quote.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.Store.Delete(ctx, quoteKey(id))
}

// RemoveItem drops one product line from a stored quote and rebuilds its
// totals. Removing the last line deletes the quote and returns nil, the
// defined "no quote" outcome.
func (s *Service) RemoveItem(ctx context.Context, quoteID, productID string) (*pricing.Quote, error) {
	q, err := s.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	trimmed, err := pricing.RemoveItem(q, productID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if trimmed == nil {
		if err := s.Store.Delete(ctx, quoteKey(quoteID)); err != nil {
			return nil, err
		}
	} else {
		if err := s.Store.Save(ctx, quoteKey(quoteID), trimmed); err != nil {
			return nil, fmt.Errorf("save quote: %w", err)
		}
	}
	if s.Events != nil {
		if _, err := s.Events.Emit(ctx, events.TopicQuoteItemRemoved, quoteID, map[string]any{
			"quoteId":   quoteID,
			"productId": productID,
			"collapsed": trimmed == nil,
		}); err != nil {
			s.Logger.Warn().Err(err).Str("quote_id", quoteID).Msg("emit quote item removed event")
		}
	}
	return trimmed, nil
}

func clampTaxRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	return rate
}

func clampDiscountRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.NewFromInt(100)
	}
	return rate
}

func observeBuild(start time.Time, err error) {
	if obs.QuoteBuildsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.QuoteBuildsTotal.WithLabelValues(result).Inc()
	obs.QuoteBuildDuration.Observe(obs.DurationMillis(time.Since(start)))
}
