package reconcile

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/deposit"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/sales"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

// DefaultDepositScaleFactor is the assumed fraction of paid deposits that
// eventually comes back in the scaled-recovery profit variant.
var DefaultDepositScaleFactor = decimal.RequireFromString("0.7")

// Engine reconciles expected profit (from priced invoice lines and deposit
// recovery) against actual profit (from account balance deltas and inventory
// valuation).
type Engine struct {
	catalog     *catalog.Catalog
	ledger      ledger.Repository
	deposits    *deposit.Engine
	logger      *slog.Logger
	scaleFactor decimal.Decimal
}

// Config carries the engine's tunables.
type Config struct {
	// DepositScaleFactor overrides the assumed deposit-recovery fraction.
	// Zero means DefaultDepositScaleFactor.
	DepositScaleFactor decimal.Decimal
}

// NewEngine constructs a profit reconciliation engine.
func NewEngine(cat *catalog.Catalog, repo ledger.Repository, deposits *deposit.Engine, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	factor := cfg.DepositScaleFactor
	if factor.IsZero() {
		factor = DefaultDepositScaleFactor
	}
	return &Engine{catalog: cat, ledger: repo, deposits: deposits, logger: logger, scaleFactor: factor}
}

// AnalyzedBeverage is the per-beverage result row of one analysis window.
// Three profit figures are reported side by side because the true deposit
// recovery is unknowable from the available data.
type AnalyzedBeverage struct {
	BeverageID string
	Name       string

	NumOrdered  decimal.Decimal
	NumReturned decimal.Decimal
	NumSold     decimal.Decimal

	AveragePurchasePrice decimal.Decimal
	AverageDeposit       decimal.Decimal
	SalePrice            decimal.Decimal

	TotalPaid            decimal.Decimal
	TotalDepositReturned decimal.Decimal

	// Profit assumes the full proportional deposit-return model.
	Profit decimal.Decimal
	// ProfitWithoutDeposits ignores deposits entirely.
	ProfitWithoutDeposits decimal.Decimal
	// ProfitScaledDeposits assumes a fixed fraction of paid deposits
	// comes back.
	ProfitScaledDeposits decimal.Decimal
}

// AnalyzeBeverages computes the per-beverage rows for one window, estimating
// sales from the snapshot pair when one is given. Rows are keyed by collapsed
// beverage id and cover every bottle-type beverage with a known sale price.
func (e *Engine) AnalyzeBeverages(ctx context.Context, window shared.Window, old, new *ledger.Snapshot) (map[string]AnalyzedBeverage, error) {
	agg, err := e.deposits.Aggregate(ctx, window)
	if err != nil {
		return nil, err
	}
	returnValues := e.deposits.ReturnValues(agg)
	sold := sales.Estimate(agg, old, new)

	rows := make(map[string]AnalyzedBeverage, len(agg.Buckets))
	for id := range agg.Buckets {
		avgPrice, avgDeposit, err := e.averagePurchase(ctx, agg, id)
		if err != nil {
			e.logger.Warn("no purchase price for analysis", slog.String("beverage", id), slog.Any("error", err))
			continue
		}
		salePrice, err := e.catalog.CurrentPrice(ctx, catalog.SeriesSale, id)
		if err != nil {
			e.logger.Warn("no sale price for analysis", slog.String("beverage", id), slog.Any("error", err))
			continue
		}

		name := id
		if b, err := e.catalog.Repository().Beverage(ctx, id); err == nil {
			name = b.Name
		}

		numSold := sold[id]
		totalPaid := numSold.Mul(avgPrice.Add(avgDeposit))
		returned := returnValues[id]
		revenue := numSold.Mul(salePrice.Price)

		rows[id] = AnalyzedBeverage{
			BeverageID: id,
			Name:       name,

			NumOrdered:  agg.OrderedQuantity(id),
			NumReturned: e.deposits.NumReturned(agg, id),
			NumSold:     numSold,

			AveragePurchasePrice: avgPrice,
			AverageDeposit:       avgDeposit,
			SalePrice:            salePrice.Price,

			TotalPaid:            totalPaid,
			TotalDepositReturned: returned,

			Profit:                revenue.Sub(totalPaid).Add(returned),
			ProfitWithoutDeposits: numSold.Mul(salePrice.Price.Sub(avgPrice)),
			ProfitScaledDeposits:  revenue.Sub(totalPaid).Add(numSold.Mul(avgDeposit).Mul(e.scaleFactor)),
		}
	}
	return rows, nil
}

// averagePurchase averages the purchase price and deposit over the window's
// actual order lines, falling back to the current record when nothing was
// ordered.
func (e *Engine) averagePurchase(ctx context.Context, agg *deposit.Aggregation, id string) (price, dep decimal.Decimal, err error) {
	items := agg.Ordered[id]
	if len(items) == 0 {
		rec, err := e.catalog.CurrentPrice(ctx, catalog.SeriesPurchase, id)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return rec.Price, rec.Deposit, nil
	}
	n := decimal.NewFromInt(int64(len(items)))
	for _, item := range items {
		price = price.Add(item.PurchasePrice.Price)
		dep = dep.Add(item.PurchasePrice.Deposit)
	}
	return price.Div(n), dep.Div(n), nil
}

// PeriodReport is the reconciliation result for one snapshot pair. All
// values are plain decimals; presentation is the caller's concern.
type PeriodReport struct {
	Start time.Time
	End   time.Time

	OldBalance        decimal.Decimal
	NewBalance        decimal.Decimal
	OldInventoryValue decimal.Decimal
	NewInventoryValue decimal.Decimal

	// ActualProfit is the observed value delta including the closing
	// snapshot's extra expenses.
	ActualProfit  decimal.Decimal
	ExtraExpenses decimal.Decimal

	ExpectedProfit                decimal.Decimal
	ExpectedProfitWithoutDeposits decimal.Decimal
	ExpectedProfitScaledDeposits  decimal.Decimal

	// Shrinkage is expected minus actual profit, per variant.
	Shrinkage                decimal.Decimal
	ShrinkageWithoutDeposits decimal.Decimal
	ShrinkageScaledDeposits  decimal.Decimal

	ExpectedIncome decimal.Decimal
	ActualIncome   decimal.Decimal

	Beverages map[string]AnalyzedBeverage
}

// Reconcile computes the full report for one chronologically ordered
// snapshot pair against the given bookings.
func (e *Engine) Reconcile(ctx context.Context, old, new ledger.Snapshot, bookings []ledger.AccountBooking) (PeriodReport, error) {
	report := PeriodReport{Start: old.Date, End: new.Date}

	report.OldBalance = balanceThrough(bookings, old.Date)
	report.NewBalance = balanceThrough(bookings, new.Date)

	var err error
	report.OldInventoryValue, err = e.InventoryValue(ctx, &old, catalog.SeriesPurchase)
	if err != nil {
		return PeriodReport{}, err
	}
	report.NewInventoryValue, err = e.InventoryValue(ctx, &new, catalog.SeriesPurchase)
	if err != nil {
		return PeriodReport{}, err
	}

	report.ExtraExpenses = new.ExtraExpenseTotal()
	report.ActualProfit = report.NewBalance.Add(report.NewInventoryValue).Add(new.OtherMonetaryValue).
		Sub(report.OldBalance).Sub(report.OldInventoryValue).Sub(old.OtherMonetaryValue).
		Add(report.ExtraExpenses)

	rows, err := e.AnalyzeBeverages(ctx, shared.WindowBetween(old.Date, new.Date), &old, &new)
	if err != nil {
		return PeriodReport{}, err
	}
	report.Beverages = rows

	for _, row := range rows {
		report.ExpectedProfit = report.ExpectedProfit.Add(row.Profit)
		report.ExpectedProfitWithoutDeposits = report.ExpectedProfitWithoutDeposits.Add(row.ProfitWithoutDeposits)
		report.ExpectedProfitScaledDeposits = report.ExpectedProfitScaledDeposits.Add(row.ProfitScaledDeposits)
		report.ExpectedIncome = report.ExpectedIncome.Add(row.NumSold.Mul(row.SalePrice)).Add(row.TotalDepositReturned)
	}
	report.ActualIncome = new.MoneyInSafe.Add(new.OtherMonetaryValue).Sub(old.OtherMonetaryValue)

	report.Shrinkage = report.ExpectedProfit.Sub(report.ActualProfit)
	report.ShrinkageWithoutDeposits = report.ExpectedProfitWithoutDeposits.Sub(report.ActualProfit)
	report.ShrinkageScaledDeposits = report.ExpectedProfitScaledDeposits.Sub(report.ActualProfit)

	return report, nil
}

// InventoryValue prices a snapshot's counted stock at the current price of
// the chosen series.
func (e *Engine) InventoryValue(ctx context.Context, snap *ledger.Snapshot, series catalog.PriceSeries) (decimal.Decimal, error) {
	total := decimal.Zero
	if snap == nil {
		return total, nil
	}
	for id, count := range snap.Counts {
		rec, err := e.catalog.CurrentPrice(ctx, series, id)
		if err != nil {
			e.logger.Warn("counted beverage without price", slog.String("beverage", id), slog.String("series", string(series)))
			continue
		}
		total = total.Add(count.Mul(rec.Price))
	}
	return total, nil
}

// balanceThrough is the cumulative account balance at end of day, using the
// economically correct booking date rather than the bank's settlement date.
func balanceThrough(bookings []ledger.AccountBooking, cutoff time.Time) decimal.Decimal {
	balance := decimal.Zero
	for _, b := range bookings {
		if shared.Through(b.ActualBookingDate(), cutoff) {
			balance = balance.Add(b.Amount)
		}
	}
	return balance
}

// DigestReport aggregates shrinkage over all consecutive snapshot pairs in a
// window.
type DigestReport struct {
	Periods []PeriodReport

	MeanShrinkage                decimal.Decimal
	MeanShrinkageWithoutDeposits decimal.Decimal
	MeanShrinkageScaledDeposits  decimal.Decimal

	StdDevShrinkage decimal.Decimal
}

// Digest runs Reconcile over each consecutive snapshot pair inside the
// window and summarizes shrinkage with mean and standard deviation.
func (e *Engine) Digest(ctx context.Context, window shared.Window) (DigestReport, error) {
	snapshots, err := e.ledger.Snapshots(ctx)
	if err != nil {
		return DigestReport{}, err
	}
	bookings, err := e.ledger.Bookings(ctx)
	if err != nil {
		return DigestReport{}, err
	}

	var inWindow []ledger.Snapshot
	for _, snap := range snapshots {
		if window.Contains(snap.Date) {
			inWindow = append(inWindow, snap)
		}
	}

	var digest DigestReport
	for i := 1; i < len(inWindow); i++ {
		report, err := e.Reconcile(ctx, inWindow[i-1], inWindow[i], bookings)
		if err != nil {
			return DigestReport{}, err
		}
		digest.Periods = append(digest.Periods, report)
	}
	if len(digest.Periods) == 0 {
		return digest, nil
	}

	full := make([]decimal.Decimal, 0, len(digest.Periods))
	without := make([]decimal.Decimal, 0, len(digest.Periods))
	scaled := make([]decimal.Decimal, 0, len(digest.Periods))
	for _, p := range digest.Periods {
		full = append(full, p.Shrinkage)
		without = append(without, p.ShrinkageWithoutDeposits)
		scaled = append(scaled, p.ShrinkageScaledDeposits)
	}
	digest.MeanShrinkage = decimal.Avg(full[0], full[1:]...)
	digest.MeanShrinkageWithoutDeposits = decimal.Avg(without[0], without[1:]...)
	digest.MeanShrinkageScaledDeposits = decimal.Avg(scaled[0], scaled[1:]...)
	digest.StdDevShrinkage = stdDev(full, digest.MeanShrinkage)

	return digest, nil
}

func stdDev(values []decimal.Decimal, mean decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := 0.0
	m := mean.InexactFloat64()
	for _, v := range values {
		d := v.InexactFloat64() - m
		sum += d * d
	}
	return decimal.NewFromFloat(math.Sqrt(sum / float64(len(values))))
}
