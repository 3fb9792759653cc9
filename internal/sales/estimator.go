package sales

import (
	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/deposit"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
)

// Estimate derives units sold per beverage from the inventory delta between
// two counts plus everything ordered in between:
//
//	sold = old count - new count + ordered
//
// Counts default to zero for beverages missing from a snapshot; without a
// snapshot pair the estimate degrades to the ordered quantity. Results are
// keyed by collapsed beverage id, with counts of variant SKUs folded onto
// the canonical id.
func Estimate(agg *deposit.Aggregation, old, new *ledger.Snapshot) map[string]decimal.Decimal {
	oldCounts := collapseCounts(old)
	newCounts := collapseCounts(new)

	ids := make(map[string]struct{})
	for id := range agg.Ordered {
		ids[id] = struct{}{}
	}
	for id := range agg.Buckets {
		ids[id] = struct{}{}
	}
	for id := range oldCounts {
		ids[id] = struct{}{}
	}
	for id := range newCounts {
		ids[id] = struct{}{}
	}

	sold := make(map[string]decimal.Decimal, len(ids))
	for id := range ids {
		sold[id] = oldCounts[id].Sub(newCounts[id]).Add(agg.OrderedQuantity(id))
	}
	return sold
}

func collapseCounts(snap *ledger.Snapshot) map[string]decimal.Decimal {
	counts := make(map[string]decimal.Decimal)
	if snap == nil {
		return counts
	}
	for id, count := range snap.Counts {
		canonical := catalog.CollapseID(id)
		counts[canonical] = counts[canonical].Add(count)
	}
	return counts
}
