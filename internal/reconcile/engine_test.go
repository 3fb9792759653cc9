package reconcile

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/deposit"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	cat    *catalog.Catalog
	repo   *ledger.MemoryRepository
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat := catalog.New(catalog.NewMemoryRepository(), slog.Default())
	repo := ledger.NewMemoryRepository()
	deposits := deposit.NewEngine(cat, repo, slog.Default(), deposit.Config{})
	engine := NewEngine(cat, repo, deposits, slog.Default(), Config{})
	return &fixture{cat: cat, repo: repo, engine: engine}
}

func (f *fixture) addBeverage(t *testing.T, id string, purchase, dep, sale string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.cat.Repository().CreateBeverage(ctx, catalog.Beverage{ID: id, Name: id, BottleType: catalog.BottleTypeGlass}))
	require.NoError(t, f.cat.Repository().InsertPrice(ctx, catalog.SeriesPurchase, catalog.PriceRecord{
		BeverageID: id, Price: dec(purchase), Deposit: dec(dep), ValidFrom: day("2024-01-01"),
	}))
	require.NoError(t, f.cat.Repository().InsertPrice(ctx, catalog.SeriesSale, catalog.PriceRecord{
		BeverageID: id, Price: dec(sale), ValidFrom: day("2024-01-01"),
	}))
}

func snapshot(date string, counts map[string]string) ledger.Snapshot {
	snap := ledger.Snapshot{
		ID:     uuid.New(),
		Date:   day(date),
		Counts: make(map[string]decimal.Decimal),
	}
	for id, count := range counts {
		snap.Counts[id] = dec(count)
	}
	return snap
}

func booking(date, amount string) ledger.AccountBooking {
	return ledger.AccountBooking{
		BookingDate: day(date),
		ValueDate:   day(date),
		Kind:        ledger.KindCredit,
		Description: "Einzahlung",
		Amount:      dec(amount),
	}
}

func TestReconcileActualProfitFromBalanceAndInventoryDeltas(t *testing.T) {
	f := newFixture(t)
	f.addBeverage(t, "B1183", "10.00", "3.10", "20")

	old := snapshot("2024-05-01", map[string]string{"B1183": "50"})
	new := snapshot("2024-05-08", map[string]string{"B1183": "40"})
	bookings := []ledger.AccountBooking{
		booking("2024-04-20", "1000.00"),
		booking("2024-05-03", "200.00"),
	}

	report, err := f.engine.Reconcile(context.Background(), old, new, bookings)
	require.NoError(t, err)

	require.True(t, report.OldBalance.Equal(dec("1000.00")))
	require.True(t, report.NewBalance.Equal(dec("1200.00")))
	require.True(t, report.OldInventoryValue.Equal(dec("500.00")))
	require.True(t, report.NewInventoryValue.Equal(dec("400.00")))
	require.True(t, report.ActualProfit.Equal(dec("100.00")), "got %s", report.ActualProfit)
}

func TestReconcileExtraExpensesRaiseActualProfit(t *testing.T) {
	f := newFixture(t)
	f.addBeverage(t, "B1183", "10.00", "3.10", "20")

	old := snapshot("2024-05-01", map[string]string{"B1183": "50"})
	new := snapshot("2024-05-08", map[string]string{"B1183": "40"})
	new.ExtraExpenses = map[string]decimal.Decimal{"Neue Zapfanlage": dec("25.00")}
	bookings := []ledger.AccountBooking{
		booking("2024-04-20", "1000.00"),
		booking("2024-05-03", "200.00"),
	}

	report, err := f.engine.Reconcile(context.Background(), old, new, bookings)
	require.NoError(t, err)
	require.True(t, report.ActualProfit.Equal(dec("125.00")), "got %s", report.ActualProfit)
	require.True(t, report.ExtraExpenses.Equal(dec("25.00")))
}

func TestReconcileExpectedProfitVariants(t *testing.T) {
	f := newFixture(t)
	f.addBeverage(t, "B1183", "10.00", "3.10", "20")

	inv := ledger.Invoice{Number: "1-1", Date: day("2024-05-02"), TotalPrice: dec("131.00")}
	inv.Items = append(inv.Items, ledger.InvoiceItem{
		BeverageID: "B1183",
		Quantity:   10,
		TotalPrice: dec("131.00"),
		PurchasePrice: catalog.PriceRecord{
			BeverageID: "B1183", Price: dec("10.00"), Deposit: dec("3.10"), ValidFrom: day("2024-01-01"),
		},
	})
	require.NoError(t, f.repo.SaveInvoice(context.Background(), inv))

	old := snapshot("2024-05-01", map[string]string{"B1183": "4"})
	new := snapshot("2024-05-08", map[string]string{"B1183": "4"})

	rows, err := f.engine.AnalyzeBeverages(context.Background(), shared.WindowBetween(old.Date, new.Date), &old, &new)
	require.NoError(t, err)
	row, ok := rows["B1183"]
	require.True(t, ok)

	// 10 sold at 20 against 10 crates at 13.10 all-in, nothing returned.
	require.True(t, row.NumSold.Equal(dec("10")))
	require.True(t, row.TotalPaid.Equal(dec("131.00")))
	require.True(t, row.ProfitWithoutDeposits.Equal(dec("100.00")), "got %s", row.ProfitWithoutDeposits)

	// Full model: revenue - paid + salvage on the lone unreturned bucket.
	wantProfit := dec("200").Sub(dec("131")).Add(deposit.DefaultEmptyCratePrice)
	require.True(t, row.Profit.Equal(wantProfit), "got %s, want %s", row.Profit, wantProfit)

	// Scaled model recovers 70% of the paid deposits.
	wantScaled := dec("200").Sub(dec("131")).Add(dec("10").Mul(dec("3.10")).Mul(dec("0.7")))
	require.True(t, row.ProfitScaledDeposits.Equal(wantScaled), "got %s, want %s", row.ProfitScaledDeposits, wantScaled)
}

func TestDigestIteratesConsecutivePairs(t *testing.T) {
	f := newFixture(t)
	f.addBeverage(t, "B1183", "10.00", "3.10", "20")

	ctx := context.Background()
	for _, snap := range []ledger.Snapshot{
		snapshot("2024-05-01", map[string]string{"B1183": "50"}),
		snapshot("2024-05-08", map[string]string{"B1183": "40"}),
		snapshot("2024-05-15", map[string]string{"B1183": "30"}),
	} {
		created, err := f.repo.AddSnapshot(ctx, snap)
		require.NoError(t, err)
		require.True(t, created)
	}
	_, err := f.repo.AddBookings(ctx, []ledger.AccountBooking{booking("2024-04-20", "1000.00")})
	require.NoError(t, err)

	digest, err := f.engine.Digest(ctx, shared.Window{})
	require.NoError(t, err)
	require.Len(t, digest.Periods, 2)
	require.True(t, digest.Periods[0].Start.Equal(day("2024-05-01")))
	require.True(t, digest.Periods[1].Start.Equal(day("2024-05-08")))

	// Identical periods: mean equals each period's shrinkage, deviation zero.
	require.True(t, digest.MeanShrinkage.Sub(digest.Periods[0].Shrinkage).Abs().LessThan(dec("0.01")))
	require.True(t, digest.StdDevShrinkage.LessThan(dec("0.01")))
}

func TestCashFlowByCategory(t *testing.T) {
	grihed := ledger.AccountBooking{
		BookingDate:        day("2024-05-03"),
		ValueDate:          day("2024-05-03"),
		Kind:               ledger.KindDirectDebit,
		Description:        "RE123-1 vom 02.05.2024 Getraenkelieferung",
		BeneficiaryOrPayer: "GRIHED Service GmbH",
		Amount:             dec("-131.00"),
	}
	cash := ledger.AccountBooking{
		BookingDate: day("2024-05-04"),
		ValueDate:   day("2024-05-04"),
		Kind:        ledger.KindCashDeposit,
		Description: "Bareinzahlung",
		Amount:      dec("250.00"),
	}

	report := CashFlow([]ledger.AccountBooking{grihed, cash}, shared.WindowBetween(day("2024-05-01"), day("2024-06-01")))
	require.True(t, report.TotalProfit.Equal(dec("119.00")))
	require.True(t, report.TotalExpenses.Equal(dec("131.00")))
	require.True(t, report.CashDeposits.Equal(dec("250.00")))
	require.True(t, report.ExpensesByCategory[ledger.CategoryBeverages].Equal(dec("131.00")))
}
