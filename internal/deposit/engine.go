package deposit

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

// DefaultEmptyCratePrice is the salvage value a never-returned crate is
// assumed to fetch as scrap.
var DefaultEmptyCratePrice = decimal.RequireFromString("1.50")

// BucketKey renders a deposit value as a canonical map key. Decimals parsed
// from different sources can carry different exponents for the same value, so
// raw String() output is not a stable key.
func BucketKey(d decimal.Decimal) string {
	return d.StringFixed(4)
}

// Engine allocates bucketed crate returns back to individual beverages.
//
// Crate returns on supplier invoices are not itemized per beverage, only per
// deposit value. The engine assigns each beverage its share of a bucket's
// returns proportionally to its share of the bucket's paid deposits, and
// values never-returned crates at a fixed empty-crate salvage price.
type Engine struct {
	catalog         *catalog.Catalog
	ledger          ledger.Repository
	logger          *slog.Logger
	emptyCratePrice decimal.Decimal
}

// Config carries the engine's tunables.
type Config struct {
	// EmptyCratePrice overrides the salvage value distributed across
	// unreturned crates. Zero means DefaultEmptyCratePrice.
	EmptyCratePrice decimal.Decimal
}

// NewEngine constructs a deposit reconciliation engine.
func NewEngine(cat *catalog.Catalog, repo ledger.Repository, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	price := cfg.EmptyCratePrice
	if price.IsZero() {
		price = DefaultEmptyCratePrice
	}
	return &Engine{catalog: cat, ledger: repo, logger: logger, emptyCratePrice: price}
}

// Aggregation holds the windowed order and return totals a reconciliation
// pass works from. Beverage ids are collapsed; buckets are keyed by
// BucketKey of the deposit value.
type Aggregation struct {
	// Ordered maps collapsed beverage id to its in-window bottle line items.
	Ordered map[string][]ledger.InvoiceItem
	// Returned maps deposit bucket to the quantity of crates returned, keyed
	// by the negated price of the return lines.
	Returned map[string]decimal.Decimal
	// PaidDeposits maps deposit bucket to the quantity of deposit-bearing
	// crates bought in-window.
	PaidDeposits map[string]decimal.Decimal
	// Buckets maps every bottle-type beverage to its current deposit value,
	// independent of the window.
	Buckets map[string]decimal.Decimal
}

// OrderedQuantity sums the in-window ordered quantity for a collapsed
// beverage id.
func (a *Aggregation) OrderedQuantity(id string) decimal.Decimal {
	total := decimal.Zero
	for _, item := range a.Ordered[id] {
		total = total.Add(decimal.NewFromInt(item.Quantity))
	}
	return total
}

// Aggregate builds the windowed totals from the full invoice ledger. Deposit
// buckets come from the latest known purchase price per beverage, under the
// stated assumption that deposit values do not change over the analysis
// horizon.
func (e *Engine) Aggregate(ctx context.Context, window shared.Window) (*Aggregation, error) {
	agg := &Aggregation{
		Ordered:      make(map[string][]ledger.InvoiceItem),
		Returned:     make(map[string]decimal.Decimal),
		PaidDeposits: make(map[string]decimal.Decimal),
		Buckets:      make(map[string]decimal.Decimal),
	}

	beverages, err := e.catalog.Repository().Beverages(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.Beverage, len(beverages))
	current := make(map[string]catalog.PriceRecord, len(beverages))
	for _, b := range beverages {
		byID[b.ID] = b
		price, err := e.catalog.CurrentPrice(ctx, catalog.SeriesPurchase, b.ID)
		if err != nil {
			e.logger.Warn("beverage without purchase price", slog.String("id", b.ID))
			continue
		}
		current[b.ID] = price
		if b.BottleType.IsBottle() {
			agg.Buckets[catalog.CollapseID(b.ID)] = price.Deposit
		}
	}

	invoices, err := e.ledger.Invoices(ctx)
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		if !window.Contains(inv.Date) {
			continue
		}
		for _, item := range inv.Items {
			beverage, ok := byID[item.BeverageID]
			if !ok {
				continue
			}
			price, ok := current[item.BeverageID]
			if !ok {
				continue
			}
			quantity := decimal.NewFromInt(item.Quantity)

			if beverage.BottleType == catalog.BottleTypeCrateReturn {
				// Return lines carry a negative price in lieu of a deposit;
				// its magnitude names the bucket being returned.
				bucket := BucketKey(price.Price.Neg())
				agg.Returned[bucket] = agg.Returned[bucket].Add(quantity)
				continue
			}
			if !beverage.BottleType.IsBottle() {
				continue
			}

			id := catalog.CollapseID(item.BeverageID)
			agg.Ordered[id] = append(agg.Ordered[id], item)
			bucket := BucketKey(price.Deposit)
			agg.PaidDeposits[bucket] = agg.PaidDeposits[bucket].Add(quantity)
		}
	}
	return agg, nil
}

// NumReturned estimates how many of a beverage's crates came back: its share
// of the bucket's returns, proportional to its share of the bucket's paid
// deposits. Zero when the beverage has no bucket, no orders, or the bucket
// saw no deposits.
func (e *Engine) NumReturned(agg *Aggregation, id string) decimal.Decimal {
	depositValue, ok := agg.Buckets[id]
	if !ok {
		return decimal.Zero
	}
	bucket := BucketKey(depositValue)
	ordered := agg.OrderedQuantity(id)
	paid := agg.PaidDeposits[bucket]
	if ordered.IsZero() || paid.IsZero() {
		return decimal.Zero
	}
	return ordered.Div(paid).Mul(agg.Returned[bucket])
}

// ReturnValues computes the total deposit recovery per beverage: the full
// deposit for crates estimated as returned, plus a proportional share of the
// empty-crate salvage value for crates that never came back.
func (e *Engine) ReturnValues(agg *Aggregation) map[string]decimal.Decimal {
	notReturned := make(map[string]decimal.Decimal, len(agg.Buckets))
	totalNotReturned := decimal.Zero
	for id := range agg.Buckets {
		n := agg.OrderedQuantity(id).Sub(e.NumReturned(agg, id))
		if n.IsNegative() {
			n = decimal.Zero
		}
		notReturned[id] = n
		totalNotReturned = totalNotReturned.Add(n)
	}

	values := make(map[string]decimal.Decimal, len(agg.Buckets))
	for id, depositValue := range agg.Buckets {
		value := e.NumReturned(agg, id).Mul(depositValue)
		if !notReturned[id].IsZero() && !totalNotReturned.IsZero() {
			value = value.Add(notReturned[id].Div(totalNotReturned).Mul(e.emptyCratePrice))
		}
		values[id] = value
	}
	return e.sanityCheck(agg, values)
}

// sanityCheck reports negative return values without correcting them. The
// violations are data-quality signals for an operator, not conditions the
// batch can fix.
func (e *Engine) sanityCheck(agg *Aggregation, values map[string]decimal.Decimal) map[string]decimal.Decimal {
	for id, depositValue := range agg.Buckets {
		if depositValue.IsZero() {
			continue
		}
		if values[id].IsNegative() {
			e.logger.Error("negative return value",
				slog.String("beverage", id),
				slog.String("value", values[id].String()))
		}
		// TODO: check returned-vs-ordered and payed-vs-returned per bucket.
	}
	return values
}
