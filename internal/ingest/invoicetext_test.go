package ingest

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
)

func mustDay(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

const sampleInvoiceText = `GRIHED Service GmbH   Getränke-Fachgroßhandel

Rechnung-Nr:   123 – 45
Liefertag:   02.05.2024

 Menge   ArtNr     Artikelbezeichnung        Inhalt        Gebinde     St-Satz   Pfand     Preis      Summe in €
  10     B 1183    Pilsator 0,50l            20 x 0,5l     Kasten      19 %      3,10 €    10,00 €    131,00 €
  ####   L 0150    Leergutkasten komplett    einfach       Kasten ohne  19 %     0,00 €    0,00 €     -1,50 €

Zahlbetrag:   129,50 €
`

func TestParseInvoiceText(t *testing.T) {
	parsed, err := ParseInvoiceText(sampleInvoiceText)
	require.NoError(t, err)

	require.Equal(t, "123-45", parsed.Number)
	require.True(t, parsed.Date.Equal(mustDay("2024-05-02")))
	require.True(t, parsed.Total.Equal(decimal.RequireFromString("129.50")))
	require.Len(t, parsed.Lines, 2)

	first := parsed.Lines[0]
	require.Equal(t, "10", first.Quantity)
	require.Equal(t, "B 1183", first.BeverageID)
	require.Equal(t, "Pilsator 0,50l", first.Name)
	require.Equal(t, "20 x 0,5l", first.Content)
	require.Equal(t, "Kasten", first.BottleLabel)
	require.Equal(t, "3,10", first.Deposit)
	require.Equal(t, "10,00", first.Price)
	require.Equal(t, "131,00", first.Total)

	second := parsed.Lines[1]
	require.Equal(t, ledger.QuantitySentinel, second.Quantity)
	require.Equal(t, "Kasten ohne", second.BottleLabel)
	require.Equal(t, "-1,50", second.Total)
}

func TestParseInvoiceTextRejectsIncompleteText(t *testing.T) {
	_, err := ParseInvoiceText("Liefertag: 02.05.2024")
	require.ErrorIs(t, err, ErrInvoiceTextUnparsable)
}

func TestVerifyFilename(t *testing.T) {
	parsed, err := ParseInvoiceText(sampleInvoiceText)
	require.NoError(t, err)

	require.NoError(t, parsed.VerifyFilename("2024-05-02 123-45"))
	require.Error(t, parsed.VerifyFilename("2024-05-03 123-45"))
}

func TestImportFileRecordsInvoice(t *testing.T) {
	ctx := context.Background()
	repo := ledger.NewMemoryRepository()
	cat := catalog.New(catalog.NewMemoryRepository(), slog.Default())
	service := ledger.NewService(repo, cat, slog.Default(), ledger.ServiceConfig{})
	importer := NewInvoiceImporter(service, slog.Default())

	created, err := importer.ImportFile(ctx, "2024-05-02 123-45", sampleInvoiceText)
	require.NoError(t, err)
	require.True(t, created)

	created, err = importer.ImportFile(ctx, "2024-05-02 123-45", sampleInvoiceText)
	require.NoError(t, err)
	require.False(t, created)

	inv, ok, err := repo.Invoice(ctx, "123-45")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, inv.Items, 2)
}
