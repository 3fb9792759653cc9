package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// bookingKindLabels maps the statement's free-text transaction type column
// to a BookingKind. The bank spells a few of these inconsistently across
// export versions.
var bookingKindLabels = map[string]BookingKind{
	"Lastschrift":         KindDirectDebit,
	"LS Wiedergutschrift": KindDirectDebitUndo,
	"Dauerauftrag":        KindStandingOrder,
	"Rechnung":            KindInvoice,
	"Kartenzahlung":       KindCardPayment,
	"Online-Ueberweisung": KindOnlineTransfer,
	"Online-Uberweisung":  KindOnlineTransfer,
	"Gutschrift":          KindCredit,
	"Bargeldeinzahlung":   KindCashDeposit,
	"Abschluss":           KindStatementClose,
	"Entgeldabschluss":    KindFeeSettlement,
	"Entgeltabschluss":    KindFeeSettlement,
}

// ParseBookingKind resolves the statement label to a BookingKind or fails
// with ErrUnknownBookingKind.
func ParseBookingKind(label string) (BookingKind, error) {
	if kind, ok := bookingKindLabels[strings.TrimSpace(label)]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBookingKind, label)
}

// beverageSupplier is the counterparty whose debits settle days after the
// delivery they pay for.
const beverageSupplier = "GRIHED Service GmbH"

// supplierDateRegex extracts the true delivery date from the supplier's
// debit description ("RE123-4 vom 02.05.2024 Getraenkelieferung").
var supplierDateRegex = regexp.MustCompile(`RE(\d+-\d+) vo[nm] (\d{2}\.\d{2}\.\d{4})`)

// ActualBookingDate recovers the date a booking economically belongs to.
// Bank settlement lags the underlying transaction for the beverage supplier,
// whose descriptions embed the invoice date; for everyone else the booking
// date is taken as-is.
func (b AccountBooking) ActualBookingDate() time.Time {
	if b.BeneficiaryOrPayer != beverageSupplier {
		return b.BookingDate
	}
	m := supplierDateRegex.FindStringSubmatch(b.Description)
	if m == nil {
		return b.BookingDate
	}
	actual, err := time.Parse("02.01.2006", m[2])
	if err != nil {
		return b.BookingDate
	}
	return actual
}

// InvoiceNumbers lists the supplier invoice numbers referenced by the
// booking description. A single debit can settle several deliveries.
func (b AccountBooking) InvoiceNumbers() []string {
	matches := supplierDateRegex.FindAllStringSubmatch(b.Description, -1)
	numbers := make([]string, 0, len(matches))
	for _, m := range matches {
		numbers = append(numbers, m[1])
	}
	return numbers
}

// Categorize assigns the booking to a turnover category based on its
// counterparty and kind.
func (b AccountBooking) Categorize() BookingCategory {
	switch b.BeneficiaryOrPayer {
	case beverageSupplier, "Team Getränke":
		return CategoryBeverages
	case "GEPA MBH":
		return CategoryFairTrade
	case "DM-drogerie markt":
		return CategoryGroceries
	case "Hetzner Online GmbH":
		return CategoryHosting
	case "Berliner Sparkasse":
		return CategoryBankFees
	}
	switch b.Kind {
	case KindCashDeposit:
		return CategoryCashIncome
	case KindStatementClose, KindFeeSettlement:
		return CategoryBankFees
	}
	if strings.Contains(strings.ToLower(b.Description), "schoko") {
		return CategoryChocolate
	}
	return CategoryOther
}

// Fingerprint is a stable identity for set-style idempotent imports: the
// same statement row imported twice maps to the same key.
func (b AccountBooking) Fingerprint() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		b.BookingDate.Format("2006-01-02"),
		b.ValueDate.Format("2006-01-02"),
		b.Kind,
		b.Description,
		b.Amount.String(),
		b.IBAN,
	)
}
