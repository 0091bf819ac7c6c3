package pricing

import (
	"sort"

	"github.com/matijepekovic/pricer-api/internal/common"
)

// Resolution is the outcome of normalising raw multiplier assignments
// for one product line.
type Resolution struct {
	// Assignments maps multiplier id to the number of units it applies to.
	Assignments map[string]int
	// Rejected lists multiplier ids whose assigned quantity exceeded the
	// item quantity. Those entries never reach the pricer.
	Rejected []string
	// OverAssigned is set when the sum of assigned quantities exceeds the
	// item quantity. Multipliers apply independently rather than
	// partitioning the item's units, so overlap is legal; callers may
	// want to log a warning.
	OverAssigned bool
}

// ResolveAssignments parses raw per-multiplier quantity text into a
// normalised assignment map. Entries that fail to parse or parse to a
// value ≤ 0 are dropped: absence means "not applied", not an error.
// Ids missing from the catalog are dropped too, so stale assignment
// state cannot outlive a deleted multiplier.
func ResolveAssignments(raw map[string]string, totalQty int, catalog map[string]Multiplier) Resolution {
	res := Resolution{Assignments: make(map[string]int, len(raw))}
	sum := 0
	for id, text := range raw {
		if _, ok := catalog[id]; !ok {
			continue
		}
		qty, ok := common.ParseQuantity(text)
		if !ok || qty <= 0 {
			continue
		}
		if qty > totalQty {
			res.Rejected = append(res.Rejected, id)
			continue
		}
		res.Assignments[id] = qty
		sum += qty
	}
	sort.Strings(res.Rejected)
	res.OverAssigned = sum > totalQty
	return res
}
