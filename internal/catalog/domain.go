package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// BottleType enumerates the packaging categories a supplier line item can
// carry. The category decides whether a line participates in deposit-bucket
// accounting at all.
type BottleType string

const (
	// BottleTypeGlass is a full crate of returnable glass bottles.
	BottleTypeGlass BottleType = "glass"
	// BottleTypeSingleGlass is a single returnable glass bottle.
	BottleTypeSingleGlass BottleType = "single_glass_bottle"
	// BottleTypePlastic is a crate of PET bottles.
	BottleTypePlastic BottleType = "plastic"
	// BottleTypeTetraPack is a tetra-pack carton.
	BottleTypeTetraPack BottleType = "tetra_pack"
	// BottleTypePackage is non-returnable packaged goods.
	BottleTypePackage BottleType = "package"
	// BottleTypeCrateReturn is the physical return of empty crates. Return
	// lines carry a negative price instead of a deposit.
	BottleTypeCrateReturn BottleType = "crate_return"
	// BottleTypeBonusCredit is a pooled supplier credit that gets
	// redistributed across eligible items.
	BottleTypeBonusCredit BottleType = "bonus_credit"
	// BottleTypeOtherCharge is a fee or surcharge line.
	BottleTypeOtherCharge BottleType = "other_charge"
	// BottleTypeUnknown marks items whose packaging could not be determined.
	BottleTypeUnknown BottleType = "unknown"
)

// IsBottle reports whether the category holds deposit-bearing bottles.
func (b BottleType) IsBottle() bool {
	switch b {
	case BottleTypeCrateReturn, BottleTypeBonusCredit, BottleTypeOtherCharge, BottleTypeUnknown:
		return false
	}
	return true
}

// Beverage is the master-data record for one supplier article. Identity is
// immutable once created; prices vary over time and live in PriceRecords.
type Beverage struct {
	ID         string
	Name       string
	Content    string
	BottleType BottleType
}

// PriceSeries distinguishes the two independent price histories kept per
// beverage.
type PriceSeries string

const (
	// SeriesPurchase is the supplier purchase price including deposit.
	SeriesPurchase PriceSeries = "purchase"
	// SeriesSale is the price a bottle crate sells for at the stand.
	SeriesSale PriceSeries = "sale"
)

// PriceRecord is one time-versioned price. For sale prices the deposit is
// always zero. The record with the latest ValidFrom at or before a query
// date is "current" for that date.
type PriceRecord struct {
	BeverageID string
	Price      decimal.Decimal
	Deposit    decimal.Decimal
	ValidFrom  time.Time
}

// Total is the per-unit cost a crate incurs on an invoice line.
func (p PriceRecord) Total() decimal.Decimal {
	return p.Price.Add(p.Deposit)
}

var (
	// ErrPriceNotFound indicates no price record qualifies for a query date.
	ErrPriceNotFound = errors.New("catalog: price not found")
	// ErrBeverageNotFound indicates the beverage id is unknown.
	ErrBeverageNotFound = errors.New("catalog: beverage not found")
	// ErrNoSalePriceTranslation indicates the (id, name) pair has no entry
	// in the sale-price translation table.
	ErrNoSalePriceTranslation = errors.New("catalog: no sale price translation")
	// ErrDuplicateValidFrom indicates two records for the same beverage and
	// series would share an effective-from timestamp.
	ErrDuplicateValidFrom = errors.New("catalog: duplicate valid-from timestamp")
	// ErrUnknownBottleLabel indicates a packaging label that is missing from
	// the classification table and has no tolerated fallback.
	ErrUnknownBottleLabel = errors.New("catalog: unknown bottle label")
)

// collapseVariants maps vintage/variant article ids onto the canonical id
// used for analysis, so e.g. rotating wine SKUs aggregate as one line.
var collapseVariants = map[string]string{
	"O7040": "O7060",
	"O7185": "O7060",
	"W8010": "W8021",
	"W8012": "W8021",
	"W8017": "W8021",
	"W8019": "W8021",
	"W8025": "W8021",
	"W8028": "W8021",
	"W8033": "W8021",
}

// CollapseID returns the canonical analysis id for a beverage id. Aggregation
// code applies this at the start of every pass, never ad hoc.
func CollapseID(id string) string {
	if canonical, ok := collapseVariants[id]; ok {
		return canonical
	}
	return id
}
