package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/shared"
)

// Catalog resolves time-versioned prices and maintains the compacted price
// history during invoice imports.
type Catalog struct {
	repo   Repository
	logger *slog.Logger
}

// New constructs a Catalog over the given repository.
func New(repo Repository, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{repo: repo, logger: logger}
}

// Repository exposes the underlying repository for callers that iterate
// master data directly.
func (c *Catalog) Repository() Repository {
	return c.repo
}

// PriceAtOrBefore returns the record in effect at the given date: the first
// record whose ValidFrom is at or before it. Returns ErrPriceNotFound when
// no record qualifies.
func (c *Catalog) PriceAtOrBefore(ctx context.Context, series PriceSeries, beverageID string, date time.Time) (PriceRecord, error) {
	records, err := c.repo.Prices(ctx, series, beverageID)
	if err != nil {
		return PriceRecord{}, err
	}
	for _, rec := range records {
		if !rec.ValidFrom.After(date) {
			return rec, nil
		}
	}
	return PriceRecord{}, fmt.Errorf("%w: %s %s at %s", ErrPriceNotFound, series, beverageID, date.Format("2006-01-02"))
}

// CurrentPrice returns the newest known record regardless of date. Deposit
// buckets are keyed off this record under the stated assumption that deposit
// values do not change over the analysis horizon.
func (c *Catalog) CurrentPrice(ctx context.Context, series PriceSeries, beverageID string) (PriceRecord, error) {
	records, err := c.repo.Prices(ctx, series, beverageID)
	if err != nil {
		return PriceRecord{}, err
	}
	if len(records) == 0 {
		return PriceRecord{}, fmt.Errorf("%w: %s %s", ErrPriceNotFound, series, beverageID)
	}
	return records[0], nil
}

// ResolveOrCreatePurchasePrice implements the compacting upsert for supplier
// prices: reuse the record already valid at the date when the price matches,
// otherwise re-date an existing record with the same price, otherwise create
// a new one. Price history stays free of duplicates this way even when a
// price flips back to an earlier value.
func (c *Catalog) ResolveOrCreatePurchasePrice(ctx context.Context, beverageID string, price, deposit decimal.Decimal, date time.Time) (PriceRecord, error) {
	return c.resolveOrCreate(ctx, SeriesPurchase, beverageID, price, deposit, date)
}

// ResolveOrCreateSalePrice resolves the article's sale price through the
// static translation table and upserts it into the sale series. Fails with
// ErrNoSalePriceTranslation for unknown (id, name) pairs; that aborts the
// line's import, not the batch.
func (c *Catalog) ResolveOrCreateSalePrice(ctx context.Context, beverageID, name string, date time.Time) (PriceRecord, error) {
	price, err := SalePriceFor(beverageID, name)
	if err != nil {
		return PriceRecord{}, fmt.Errorf("%w: %s %q", err, beverageID, name)
	}
	return c.resolveOrCreate(ctx, SeriesSale, beverageID, price, decimal.Zero, date)
}

func (c *Catalog) resolveOrCreate(ctx context.Context, series PriceSeries, beverageID string, price, deposit decimal.Decimal, date time.Time) (PriceRecord, error) {
	records, err := c.repo.Prices(ctx, series, beverageID)
	if err != nil {
		return PriceRecord{}, err
	}

	for _, rec := range records {
		if rec.ValidFrom.After(date) {
			continue
		}
		if shared.NearlyEqual(rec.Price, price) {
			return rec, nil
		}
		break
	}

	// Either the price changed or no record is valid yet at this date. A
	// price that already exists anywhere in the history is re-dated instead
	// of duplicated.
	for _, rec := range records {
		if shared.NearlyEqual(rec.Price, price) {
			if err := c.repo.SetPriceValidFrom(ctx, series, beverageID, rec.ValidFrom, date); err != nil {
				return PriceRecord{}, err
			}
			rec.ValidFrom = date
			return rec, nil
		}
	}

	rec := PriceRecord{BeverageID: beverageID, Price: price, Deposit: deposit, ValidFrom: date}
	if err := c.repo.InsertPrice(ctx, series, rec); err != nil {
		return PriceRecord{}, err
	}
	return rec, nil
}

// EnsureBeverage returns the known beverage for id, creating it from the
// given fields on first sighting.
func (c *Catalog) EnsureBeverage(ctx context.Context, id, name, content, bottleLabel string) (Beverage, error) {
	if b, err := c.repo.Beverage(ctx, id); err == nil {
		return b, nil
	}
	bottleType, err := ClassifyBottleLabel(bottleLabel, id)
	if err != nil {
		return Beverage{}, err
	}
	b := Beverage{ID: id, Name: name, Content: content, BottleType: bottleType}
	if err := c.repo.CreateBeverage(ctx, b); err != nil {
		return Beverage{}, err
	}
	c.logger.Info("new beverage", slog.String("id", id), slog.String("name", name), slog.String("bottle_type", string(bottleType)))
	return b, nil
}
