package ledger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
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

func newTestService(t *testing.T, cfg ServiceConfig) (*Service, *MemoryRepository, *catalog.Catalog) {
	t.Helper()
	repo := NewMemoryRepository()
	cat := catalog.New(catalog.NewMemoryRepository(), slog.Default())
	return NewService(repo, cat, slog.Default(), cfg), repo, cat
}

func pilsatorLine(quantity string) RawLineItem {
	return RawLineItem{
		Quantity:    quantity,
		BeverageID:  "B 1183",
		Name:        "Pilsator 0,50l",
		Content:     "20 x 0,5l",
		BottleLabel: "Kasten",
		Deposit:     "3,10",
		Price:       "10,00",
		Total:       "131,00",
	}
}

func TestRecordInvoiceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	service, repo, _ := newTestService(t, ServiceConfig{})

	line := pilsatorLine("10")
	first, created, err := service.RecordInvoice(ctx, "123-1", day("2024-05-02"), dec("131.00"), []RawLineItem{line})
	require.NoError(t, err)
	require.True(t, created)
	require.Len(t, first.Items, 1)

	second, created, err := service.RecordInvoice(ctx, "123-1", day("2024-05-02"), dec("131.00"), []RawLineItem{line})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.Number, second.Number)

	invoices, err := repo.Invoices(ctx)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Len(t, invoices[0].Items, 1)
}

func TestRecordInvoiceNormalizesLines(t *testing.T) {
	ctx := context.Background()
	service, _, cat := newTestService(t, ServiceConfig{})

	line := pilsatorLine("10")
	inv, _, err := service.RecordInvoice(ctx, "123-2", day("2024-05-02"), dec("131.00"), []RawLineItem{line})
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)

	item := inv.Items[0]
	require.Equal(t, "B1183", item.BeverageID)
	require.EqualValues(t, 10, item.Quantity)
	require.True(t, item.PurchasePrice.Price.Equal(dec("10.00")))
	require.True(t, item.PurchasePrice.Deposit.Equal(dec("3.10")))
	require.True(t, item.SalePrice.Price.Equal(dec("20")))
	require.True(t, item.CalculatedTotal().Equal(dec("131.00")))

	b, err := cat.Repository().Beverage(ctx, "B1183")
	require.NoError(t, err)
	require.Equal(t, catalog.BottleTypeGlass, b.BottleType)
}

func TestRecordInvoiceQuantitySentinel(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, ServiceConfig{})

	line := RawLineItem{
		Quantity:    QuantitySentinel,
		BeverageID:  "L0150",
		Name:        "Leergutkasten komplett",
		Content:     "einfach",
		BottleLabel: "Kasten ohne",
		Deposit:     "0,00",
		Price:       "99,99",
		Total:       "-1,50",
	}
	inv, _, err := service.RecordInvoice(ctx, "123-3", day("2024-05-02"), dec("-1.50"), []RawLineItem{line})
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)

	item := inv.Items[0]
	require.EqualValues(t, 1, item.Quantity)
	require.True(t, item.PurchasePrice.Price.Equal(dec("-1.50")), "unit price comes from the line total, got %s", item.PurchasePrice.Price)
}

func TestRecordInvoiceSkipsMalformedLines(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, ServiceConfig{})

	bad := pilsatorLine("10")
	bad.Price = "kaputt"
	good := pilsatorLine("10")

	inv, _, err := service.RecordInvoice(ctx, "123-4", day("2024-05-02"), dec("131.00"), []RawLineItem{bad, good})
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
}

func TestRecordInvoiceSkipsUnknownSaleTranslations(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, ServiceConfig{})

	line := RawLineItem{
		Quantity:    "2",
		BeverageID:  "Z9999",
		Name:        "Niemandsgetränk",
		Content:     "einfach",
		BottleLabel: "Kasten",
		Deposit:     "3,10",
		Price:       "10,00",
		Total:       "26,20",
	}
	inv, _, err := service.RecordInvoice(ctx, "123-5", day("2024-05-02"), dec("26.20"), []RawLineItem{line})
	require.NoError(t, err)
	require.Empty(t, inv.Items)
}

func TestRecordInvoiceKeepsLinesWithMismatchedTotals(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	repo := NewMemoryRepository()
	cat := catalog.New(catalog.NewMemoryRepository(), logger)
	service := NewService(repo, cat, logger, ServiceConfig{})

	line := pilsatorLine("10")
	line.Total = "140,00" // 10 x (10,00 + 3,10) = 131,00

	inv, _, err := service.RecordInvoice(ctx, "123-7", day("2024-05-02"), dec("140.00"), []RawLineItem{line})
	require.NoError(t, err)

	// The discrepancy is reported, the line is recorded anyway.
	require.Len(t, inv.Items, 1)
	require.True(t, inv.Items[0].TotalPrice.Equal(dec("140.00")))
	require.Contains(t, logs.String(), "line total mismatch")
	require.Contains(t, logs.String(), "level=ERROR")

	stored, ok, err := repo.Invoice(ctx, "123-7")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, stored.Items, 1)
}

func TestBonusCreditRedistribution(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(t, ServiceConfig{
		CreditEligibleIDs: []string{"E3451", "E3456", "E3450"},
	})

	lines := []RawLineItem{
		{Quantity: "5", BeverageID: "E3451", Name: "Soli Mate  Bio  0,50l", Content: "20 x 0,5l", BottleLabel: "Kasten", Deposit: "3,10", Price: "20,00", Total: "115,50"},
		{Quantity: "3", BeverageID: "E3456", Name: "Soli Cola 0,50l", Content: "20 x 0,5l", BottleLabel: "Kasten", Deposit: "3,10", Price: "20,00", Total: "69,30"},
		{Quantity: "2", BeverageID: "E3450", Name: "Th. Henry Mate Mate", Content: "20 x 0,5l", BottleLabel: "Kasten", Deposit: "3,10", Price: "20,00", Total: "46,20"},
		{Quantity: "1", BeverageID: "R0001", Name: "Sondergutschrift laut Hinweis (inkl. voller Ust)", Content: "einfach", BottleLabel: "Gutschrift", Deposit: "0,00", Price: "10,00", Total: "10,00"},
	}
	inv, _, err := service.RecordInvoice(ctx, "123-6", day("2024-05-02"), dec("241.00"), lines)
	require.NoError(t, err)

	totals := make(map[string]decimal.Decimal)
	for _, item := range inv.Items {
		totals[item.BeverageID] = item.TotalPrice
	}

	// Shares 5.00 / 3.00 / 2.00, proportional to quantity.
	require.True(t, totals["E3451"].Equal(dec("120.50")), "got %s", totals["E3451"])
	require.True(t, totals["E3456"].Equal(dec("72.30")), "got %s", totals["E3456"])
	require.True(t, totals["E3450"].Equal(dec("48.20")), "got %s", totals["E3450"])

	// The credit lines themselves end up zeroed; the pooled credit is
	// conserved exactly.
	require.True(t, totals["R0001"].IsZero())
	added := totals["E3451"].Sub(dec("115.50")).
		Add(totals["E3456"].Sub(dec("69.30"))).
		Add(totals["E3450"].Sub(dec("46.20")))
	require.True(t, added.Equal(dec("10.00")), "got %s", added)
}
