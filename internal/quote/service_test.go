package quote_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/matijepekovic/pricer-api/internal/catalog"
	"github.com/matijepekovic/pricer-api/internal/common"
	"github.com/matijepekovic/pricer-api/internal/events"
	"github.com/matijepekovic/pricer-api/internal/quote"
	"github.com/matijepekovic/pricer-api/internal/store"
)

type fixture struct {
	svc        *quote.Service
	windowID   string
	rushID     string
	quantities map[string]string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mem := store.NewMemory()
	cat, err := catalog.NewService(catalog.ServiceConfig{
		Store:  mem,
		Logger: zerolog.Nop(),
		DefaultSettings: catalog.Settings{
			CompanyName:    "Acme Exteriors",
			DefaultTaxRate: decimal.RequireFromString("8"),
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	window, err := cat.CreateProduct(ctx, catalog.ProductInput{
		Name:           "Window",
		UnitType:       "each",
		BasePrice:      decimal.RequireFromString("100"),
		IsDiscountable: true,
	})
	require.NoError(t, err)
	rush, err := cat.CreateMultiplier(ctx, catalog.MultiplierInput{
		Name:           "Rush",
		Type:           "percentage",
		Value:          decimal.RequireFromString("10"),
		IsDiscountable: true,
	})
	require.NoError(t, err)

	return fixture{
		svc: &quote.Service{
			Store:   mem,
			Catalog: cat,
			Events:  &events.Bus{Store: mem},
			Logger:  zerolog.Nop(),
		},
		windowID:   window.ID,
		rushID:     rush.ID,
		quantities: map[string]string{window.ID: "2"},
	}
}

func TestRebuildBuildsAndPersists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Rebuild(ctx, quote.Draft{
		Quantities: f.quantities,
		Customer:   quote.CustomerPayload{Name: "Dana Smith"},
	})
	require.NoError(t, err)
	require.NotNil(t, q)
	require.Len(t, q.Items, 1)
	require.Equal(t, "Acme Exteriors", q.CompanyName, "company name falls back to settings")
	// 200 subtotal, 8% default tax.
	require.True(t, q.Totals.GrandTotal.Equal(decimal.RequireFromString("216")), "got %s", q.Totals.GrandTotal)

	stored, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.True(t, stored.Totals.GrandTotal.Equal(q.Totals.GrandTotal))
}

func TestRebuildCarriesIdentityForward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Rebuild(ctx, quote.Draft{
		Quantities: f.quantities,
		Customer:   quote.CustomerPayload{Name: "Dana Smith", Email: "dana@example.com"},
	})
	require.NoError(t, err)

	second, err := f.svc.Rebuild(ctx, quote.Draft{
		QuoteID:    first.ID,
		Quantities: map[string]string{f.windowID: "3"},
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Equal(t, "Dana Smith", second.CustomerName, "customer fields survive a rebuild")
	require.Equal(t, "dana@example.com", second.CustomerEmail)
	require.Equal(t, 3, second.Items[0].Quantity)
}

func TestRebuildEmptyDraftCollapsesQuote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Rebuild(ctx, quote.Draft{Quantities: f.quantities})
	require.NoError(t, err)

	collapsed, err := f.svc.Rebuild(ctx, quote.Draft{
		QuoteID:    q.ID,
		Quantities: map[string]string{f.windowID: "0"},
	})
	require.NoError(t, err)
	require.Nil(t, collapsed)

	_, err = f.svc.Get(ctx, q.ID)
	require.True(t, common.IsAppError(err), "collapsed quote must be gone from the store")
}

func TestRebuildClampsRates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	over := decimal.RequireFromString("150")
	negative := decimal.RequireFromString("-5")
	q, err := f.svc.Rebuild(ctx, quote.Draft{
		Quantities:         f.quantities,
		TaxRate:            &negative,
		GlobalDiscountRate: &over,
	})
	require.NoError(t, err)
	require.True(t, q.GlobalDiscountRate.Equal(decimal.RequireFromString("100")))
	require.True(t, q.TaxRate.IsZero())
	require.True(t, q.Totals.GrandTotal.IsZero(), "full discount and zero tax")
}

func TestRebuildToleratesOverAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.svc.Rebuild(ctx, quote.Draft{
		Quantities: f.quantities,
		Assignments: map[string]map[string]string{
			f.windowID: {f.rushID: "2"},
		},
	})
	require.NoError(t, err)
	require.Len(t, q.Items[0].AppliedMultipliers, 1)
	require.Equal(t, 2, q.Items[0].AppliedMultipliers[0].AppliedQty)
}

func TestListReturnsNewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	door, err := f.svc.Catalog.CreateProduct(ctx, catalog.ProductInput{
		Name:      "Door",
		UnitType:  "each",
		BasePrice: decimal.RequireFromString("250"),
	})
	require.NoError(t, err)

	first, err := f.svc.Rebuild(ctx, quote.Draft{Quantities: f.quantities})
	require.NoError(t, err)
	second, err := f.svc.Rebuild(ctx, quote.Draft{Quantities: map[string]string{door.ID: "1"}})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	quotes, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	require.Equal(t, second.ID, quotes[0].ID, "most recent quote listed first")
	require.Equal(t, first.ID, quotes[1].ID)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, events.Event) error {
	return errors.New("sink unavailable")
}

func TestRebuildSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	f.svc.Events.Notifiers = []events.Notifier{failingNotifier{}}
	ctx := context.Background()

	q, err := f.svc.Rebuild(ctx, quote.Draft{Quantities: f.quantities})
	require.NoError(t, err, "a broken notifier must not fail the build")
	require.NotNil(t, q)

	stored, err := f.svc.Get(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, q.ID, stored.ID)
}

func TestRemoveItemRecomputesAndCollapses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	door, err := f.svc.Catalog.CreateProduct(ctx, catalog.ProductInput{
		Name:           "Door",
		UnitType:       "each",
		BasePrice:      decimal.RequireFromString("250"),
		IsDiscountable: true,
	})
	require.NoError(t, err)

	q, err := f.svc.Rebuild(ctx, quote.Draft{
		Quantities: map[string]string{f.windowID: "2", door.ID: "1"},
	})
	require.NoError(t, err)
	require.Len(t, q.Items, 2)

	trimmed, err := f.svc.RemoveItem(ctx, q.ID, door.ID)
	require.NoError(t, err)
	require.Len(t, trimmed.Items, 1)
	require.True(t, trimmed.Totals.SubtotalBeforeDiscount.Equal(decimal.RequireFromString("200")))

	gone, err := f.svc.RemoveItem(ctx, q.ID, f.windowID)
	require.NoError(t, err)
	require.Nil(t, gone, "removing the last item collapses the quote")
	_, err = f.svc.Get(ctx, q.ID)
	require.True(t, common.IsAppError(err))
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.Rebuild(context.Background(), quote.Draft{
		Quantities: f.quantities,
		Customer:   quote.CustomerPayload{Name: "Dana Smith", CustomMessage: "Thanks for your business."},
	})
	require.NoError(t, err)

	doc, err := quote.RenderPDF(*q)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "output must be a PDF document")
}
