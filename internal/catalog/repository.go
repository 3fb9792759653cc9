package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository abstracts persistence for beverages and their price histories.
// Price lists are always returned sorted by ValidFrom descending so "current"
// lookups can take the first qualifying record.
type Repository interface {
	Beverage(ctx context.Context, id string) (Beverage, error)
	Beverages(ctx context.Context) ([]Beverage, error)
	CreateBeverage(ctx context.Context, b Beverage) error
	Prices(ctx context.Context, series PriceSeries, beverageID string) ([]PriceRecord, error)
	InsertPrice(ctx context.Context, series PriceSeries, rec PriceRecord) error
	SetPriceValidFrom(ctx context.Context, series PriceSeries, beverageID string, oldValidFrom, newValidFrom time.Time) error
}

// MemoryRepository keeps all master data in process memory. The engines run
// over fully materialized datasets, so this is the repository used by the
// batch entry points and tests; the Postgres repository mirrors it.
type MemoryRepository struct {
	mu        sync.Mutex
	beverages map[string]Beverage
	prices    map[PriceSeries]map[string][]PriceRecord
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		beverages: make(map[string]Beverage),
		prices: map[PriceSeries]map[string][]PriceRecord{
			SeriesPurchase: {},
			SeriesSale:     {},
		},
	}
}

// Beverage returns the beverage with the given id.
func (r *MemoryRepository) Beverage(_ context.Context, id string) (Beverage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.beverages[id]
	if !ok {
		return Beverage{}, ErrBeverageNotFound
	}
	return b, nil
}

// Beverages lists all known beverages.
func (r *MemoryRepository) Beverages(_ context.Context) ([]Beverage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Beverage, 0, len(r.beverages))
	for _, b := range r.beverages {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateBeverage stores a new beverage. Creating an already-known id is a
// no-op so repeated imports stay idempotent.
func (r *MemoryRepository) CreateBeverage(_ context.Context, b Beverage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.beverages[b.ID]; ok {
		return nil
	}
	r.beverages[b.ID] = b
	return nil
}

// Prices returns the price history for one beverage, newest first.
func (r *MemoryRepository) Prices(_ context.Context, series PriceSeries, beverageID string) ([]PriceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := r.prices[series][beverageID]
	out := make([]PriceRecord, len(records))
	copy(out, records)
	return out, nil
}

// InsertPrice adds a price record, keeping the per-beverage ordering.
func (r *MemoryRepository) InsertPrice(_ context.Context, series PriceSeries, rec PriceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := r.prices[series][rec.BeverageID]
	for _, existing := range records {
		if existing.ValidFrom.Equal(rec.ValidFrom) {
			return ErrDuplicateValidFrom
		}
	}
	records = append(records, rec)
	sortPricesDesc(records)
	r.prices[series][rec.BeverageID] = records
	return nil
}

// SetPriceValidFrom moves an existing record to a new effective date. Used
// by the compacting upsert when a price reappears later.
func (r *MemoryRepository) SetPriceValidFrom(_ context.Context, series PriceSeries, beverageID string, oldValidFrom, newValidFrom time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := r.prices[series][beverageID]
	for i := range records {
		if records[i].ValidFrom.Equal(oldValidFrom) {
			records[i].ValidFrom = newValidFrom
			sortPricesDesc(records)
			return nil
		}
	}
	return ErrPriceNotFound
}

func sortPricesDesc(records []PriceRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].ValidFrom.After(records[j].ValidFrom)
	})
}
