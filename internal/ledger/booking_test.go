package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBookingKind(t *testing.T) {
	kind, err := ParseBookingKind("Lastschrift")
	require.NoError(t, err)
	require.Equal(t, KindDirectDebit, kind)

	// The bank spells this one both ways.
	kind, err = ParseBookingKind("Entgeldabschluss")
	require.NoError(t, err)
	require.Equal(t, KindFeeSettlement, kind)

	_, err = ParseBookingKind("Überfall")
	require.ErrorIs(t, err, ErrUnknownBookingKind)
}

func TestActualBookingDateUsesSupplierInvoiceDate(t *testing.T) {
	b := AccountBooking{
		BookingDate:        day("2024-05-06"),
		BeneficiaryOrPayer: "GRIHED Service GmbH",
		Description:        "RE123-1 vom 02.05.2024 Getraenkelieferung",
	}
	require.True(t, b.ActualBookingDate().Equal(day("2024-05-02")))
}

func TestActualBookingDateFallsBackToBookingDate(t *testing.T) {
	other := AccountBooking{
		BookingDate:        day("2024-05-06"),
		BeneficiaryOrPayer: "Hetzner Online GmbH",
		Description:        "RE123-1 vom 02.05.2024",
	}
	require.True(t, other.ActualBookingDate().Equal(day("2024-05-06")))

	noMatch := AccountBooking{
		BookingDate:        day("2024-05-06"),
		BeneficiaryOrPayer: "GRIHED Service GmbH",
		Description:        "Sammellastschrift",
	}
	require.True(t, noMatch.ActualBookingDate().Equal(day("2024-05-06")))
}

func TestInvoiceNumbersCollectsAllReferences(t *testing.T) {
	b := AccountBooking{
		Description: "RE123-1 vom 02.05.2024 und RE124-2 vom 09.05.2024",
	}
	require.Equal(t, []string{"123-1", "124-2"}, b.InvoiceNumbers())
}

func TestCategorize(t *testing.T) {
	require.Equal(t, CategoryBeverages, AccountBooking{BeneficiaryOrPayer: "GRIHED Service GmbH"}.Categorize())
	require.Equal(t, CategoryHosting, AccountBooking{BeneficiaryOrPayer: "Hetzner Online GmbH"}.Categorize())
	require.Equal(t, CategoryCashIncome, AccountBooking{Kind: KindCashDeposit}.Categorize())
	require.Equal(t, CategoryBankFees, AccountBooking{Kind: KindStatementClose}.Categorize())
	require.Equal(t, CategoryChocolate, AccountBooking{Description: "Schokoeinkauf", Kind: KindCardPayment}.Categorize())
	require.Equal(t, CategoryOther, AccountBooking{Kind: KindOnlineTransfer}.Categorize())
}

func TestAddBookingsDeduplicatesByFingerprint(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	b := AccountBooking{
		BookingDate: day("2024-05-06"),
		ValueDate:   day("2024-05-06"),
		Kind:        KindCredit,
		Description: "Einzahlung",
		Amount:      dec("100.00"),
	}
	added, err := repo.AddBookings(ctx, []AccountBooking{b, b})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	added, err = repo.AddBookings(ctx, []AccountBooking{b})
	require.NoError(t, err)
	require.Equal(t, 0, added)
}
