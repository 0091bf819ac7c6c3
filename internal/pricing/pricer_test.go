package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceItemBaseOnly(t *testing.T) {
	p := Product{ID: "p1", Name: "Window", BasePrice: decimal.RequireFromString("100"), IsDiscountable: true}
	item, err := PriceItem(p, 2, nil, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.LineTotalBeforeDiscount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected line total 200, got %s", item.LineTotalBeforeDiscount)
	}
	if !item.DiscountableBase.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected discountable base 200, got %s", item.DiscountableBase)
	}
}

func TestPriceItemPercentageSurcharge(t *testing.T) {
	p := Product{ID: "p1", BasePrice: decimal.NewFromInt(100), IsDiscountable: true}
	item, err := PriceItem(p, 2, map[string]int{"rush": 2}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 10% of 100, applied to 2 units.
	if !item.LineTotalBeforeDiscount.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("expected line total 220, got %s", item.LineTotalBeforeDiscount)
	}
	if len(item.AppliedMultipliers) != 1 || !item.AppliedMultipliers[0].Surcharge.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected a single 20 surcharge, got %+v", item.AppliedMultipliers)
	}
}

func TestPriceItemOverlappingFixedSurcharges(t *testing.T) {
	p := Product{ID: "p1", BasePrice: decimal.NewFromInt(10), IsDiscountable: true}
	item, err := PriceItem(p, 10, map[string]int{"crane": 10, "permit": 10}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// $5/unit and $3/unit each over all 10 units: $80 atop the $100 base,
	// not capped at 10 units of combined surcharge.
	if !item.LineTotalBeforeDiscount.Equal(decimal.NewFromInt(180)) {
		t.Fatalf("expected line total 180, got %s", item.LineTotalBeforeDiscount)
	}
}

func TestPriceItemSurchargeDiscountabilityIsOwn(t *testing.T) {
	// Product non-discountable, crane non-discountable, permit discountable.
	p := Product{ID: "p1", BasePrice: decimal.NewFromInt(100), IsDiscountable: false}
	item, err := PriceItem(p, 1, map[string]int{"crane": 1, "permit": 1}, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.DiscountableBase.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("only the permit surcharge is discountable, got %s", item.DiscountableBase)
	}
}

func TestPriceItemVoucher(t *testing.T) {
	voucher := Product{ID: "v1", Name: "Referral credit", BasePrice: decimal.NewFromInt(-50), IsDiscountable: false}
	item, err := PriceItem(voucher, 1, nil, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.LineTotalBeforeDiscount.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("voucher must subtract from the subtotal, got %s", item.LineTotalBeforeDiscount)
	}
	if !item.DiscountableBase.IsZero() {
		t.Fatalf("voucher must not be discountable, got %s", item.DiscountableBase)
	}
}

func TestPriceItemRejectsNonPositiveQuantity(t *testing.T) {
	p := Product{ID: "p1", BasePrice: decimal.NewFromInt(100)}
	if _, err := PriceItem(p, 0, nil, testCatalog()); !errors.Is(err, ErrNonPositiveQuantity) {
		t.Fatalf("expected ErrNonPositiveQuantity, got %v", err)
	}
}

func TestPriceItemRejectsUnknownMultiplier(t *testing.T) {
	p := Product{ID: "p1", BasePrice: decimal.NewFromInt(100)}
	if _, err := PriceItem(p, 1, map[string]int{"ghost": 1}, testCatalog()); !errors.Is(err, ErrUnknownMultiplier) {
		t.Fatalf("expected ErrUnknownMultiplier, got %v", err)
	}
}

func TestPriceItemSnapshotsProduct(t *testing.T) {
	p := Product{ID: "p1", Name: "Door", BasePrice: decimal.NewFromInt(40), IsDiscountable: true}
	item, err := PriceItem(p, 1, nil, testCatalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Name = "Renamed"
	if item.Product.Name != "Door" {
		t.Fatal("quote item must hold a snapshot copy of the product")
	}
}
