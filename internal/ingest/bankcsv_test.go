package ingest

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lagerbuch/lagerbuch/internal/ledger"
)

const statementHeader = "Auftragskonto;Buchungstag;Valutadatum;Buchungstext;Verwendungszweck;" +
	"Glaeubiger ID;Mandatsreferenz;Kundenreferenz (End-to-End);Sammlerreferenz;" +
	"Lastschrift Ursprungsbetrag;Auslagenersatz Ruecklastschrift;" +
	"Beguenstigter/Zahlungspflichtiger;Kontonummer/IBAN;BIC (SWIFT-Code);Betrag;Waehrung;Info"

func statementCSV(rows ...string) string {
	return statementHeader + "\n" + strings.Join(rows, "\n") + "\n"
}

func TestParseStatement(t *testing.T) {
	importer := NewBankCSVImporter(ledger.NewMemoryRepository(), slog.Default())

	csv := statementCSV(
		"DE02100500000024290661;02.05.24;03.05.24;Lastschrift;RE123-1 vom 02.05.2024 Getraenkelieferung;;;;;;;GRIHED Service GmbH;DE99123456;BELADEBE;-131,00;EUR;Umsatz gebucht",
	)
	bookings, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, bookings, 1)

	b := bookings[0]
	require.Equal(t, ledger.KindDirectDebit, b.Kind)
	require.True(t, b.BookingDate.Equal(mustDay("2024-05-02")))
	require.True(t, b.ValueDate.Equal(mustDay("2024-05-03")))
	require.Equal(t, "GRIHED Service GmbH", b.BeneficiaryOrPayer)
	require.True(t, b.Amount.Equal(decimal.RequireFromString("-131.00")))
	require.Nil(t, b.OriginalAmount)
}

func TestParseStatementRejectsUnknownHeader(t *testing.T) {
	importer := NewBankCSVImporter(ledger.NewMemoryRepository(), slog.Default())

	csv := strings.Replace(statementCSV(), "Betrag", "Summe", 1)
	_, err := importer.Parse(strings.NewReader(csv))
	require.ErrorIs(t, err, ErrUnexpectedCSVLayout)
}

func TestParseStatementSkipsUnparsableRows(t *testing.T) {
	importer := NewBankCSVImporter(ledger.NewMemoryRepository(), slog.Default())

	csv := statementCSV(
		"DE02;02.05.24;03.05.24;Lastschrift;kaputt;;;;;;;X;DE99;BIC;kein Betrag;EUR;Info",
		"DE02;04.05.24;04.05.24;Gutschrift;Einzahlung;;;;;;;Y;DE99;BIC;250,00;EUR;Info",
	)
	bookings, err := importer.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	require.Equal(t, ledger.KindCredit, bookings[0].Kind)
}

func TestImportDeduplicatesAcrossRuns(t *testing.T) {
	repo := ledger.NewMemoryRepository()
	importer := NewBankCSVImporter(repo, slog.Default())

	csv := statementCSV(
		"DE02;04.05.24;04.05.24;Gutschrift;Einzahlung;;;;;;;Y;DE99;BIC;250,00;EUR;Info",
	)
	added, err := importer.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 1, added)

	added, err = importer.Import(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	require.Equal(t, 0, added)
}
