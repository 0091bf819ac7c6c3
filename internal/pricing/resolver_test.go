package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testCatalog() map[string]Multiplier {
	return map[string]Multiplier{
		"rush":   {ID: "rush", Name: "Rush fee", Type: MultiplierPercentage, Value: decimal.NewFromInt(10), IsDiscountable: true},
		"crane":  {ID: "crane", Name: "Crane", Type: MultiplierFixedPerUnit, Value: decimal.NewFromInt(5), IsDiscountable: false},
		"permit": {ID: "permit", Name: "Permit", Type: MultiplierFixedPerUnit, Value: decimal.NewFromInt(3), IsDiscountable: true},
	}
}

func TestResolveDropsMalformedEntries(t *testing.T) {
	raw := map[string]string{
		"rush":   "abc",
		"crane":  "",
		"permit": "-2",
	}
	res := ResolveAssignments(raw, 10, testCatalog())
	if len(res.Assignments) != 0 {
		t.Fatalf("expected all entries dropped, got %v", res.Assignments)
	}
	if len(res.Rejected) != 0 || res.OverAssigned {
		t.Fatalf("malformed entries must not be reported as rejected or over-assigned: %+v", res)
	}
}

func TestResolveDropsDanglingIDs(t *testing.T) {
	raw := map[string]string{"deleted": "3", "rush": "2"}
	res := ResolveAssignments(raw, 10, testCatalog())
	if _, ok := res.Assignments["deleted"]; ok {
		t.Fatal("dangling multiplier id must be dropped")
	}
	if res.Assignments["rush"] != 2 {
		t.Fatalf("expected rush=2, got %v", res.Assignments)
	}
}

func TestResolveRejectsSingleOverQuantity(t *testing.T) {
	raw := map[string]string{"rush": "11", "crane": "4"}
	res := ResolveAssignments(raw, 10, testCatalog())
	if _, ok := res.Assignments["rush"]; ok {
		t.Fatal("assignment above the item quantity must be rejected")
	}
	if len(res.Rejected) != 1 || res.Rejected[0] != "rush" {
		t.Fatalf("expected rush rejected, got %v", res.Rejected)
	}
	if res.Assignments["crane"] != 4 {
		t.Fatalf("expected crane=4, got %v", res.Assignments)
	}
}

func TestResolveAllowsOverlap(t *testing.T) {
	// Two multipliers each covering the full quantity is legal: they
	// apply independently, not as a partition of the item's units.
	raw := map[string]string{"crane": "5", "permit": "5"}
	res := ResolveAssignments(raw, 5, testCatalog())
	if len(res.Assignments) != 2 {
		t.Fatalf("expected both assignments kept, got %v", res.Assignments)
	}
	if !res.OverAssigned {
		t.Fatal("expected over-assignment to be recorded")
	}
	if len(res.Rejected) != 0 {
		t.Fatalf("overlap is not rejection: %v", res.Rejected)
	}
}
