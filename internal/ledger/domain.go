package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
)

// Invoice is one supplier invoice with its line items. The invoice number is
// the natural key; import is idempotent on (number, date, total).
type Invoice struct {
	Number     string
	Date       time.Time
	TotalPrice decimal.Decimal
	Items      []InvoiceItem
}

// InvoiceItem is one priced invoice line. Quantity may be negative for
// credit lines.
type InvoiceItem struct {
	Quantity      int64
	Name          string
	BeverageID    string
	TotalPrice    decimal.Decimal
	PurchasePrice catalog.PriceRecord
	SalePrice     catalog.PriceRecord
}

// CalculatedTotal is quantity times per-unit purchase cost including
// deposit. It must match the recorded line total within tolerance; the
// ingestion path checks and reports mismatches without rejecting the line.
func (it InvoiceItem) CalculatedTotal() decimal.Decimal {
	return it.PurchasePrice.Total().Mul(decimal.NewFromInt(it.Quantity))
}

// RawLineItem is one normalized invoice line as delivered by the text
// extraction collaborators. Numeric fields are locale-formatted decimal
// strings with a comma fraction separator.
type RawLineItem struct {
	Quantity    string
	BeverageID  string
	Name        string
	Content     string
	BottleLabel string
	Deposit     string
	Price       string
	Total       string
}

// QuantitySentinel marks lines where the quantity column is unusable and the
// line is a single unit whose price equals the line total.
const QuantitySentinel = "####"

// BookingKind enumerates bank statement transaction types.
type BookingKind string

const (
	KindDirectDebit     BookingKind = "Lastschrift"
	KindDirectDebitUndo BookingKind = "LS Wiedergutschrift"
	KindStandingOrder   BookingKind = "Dauerauftrag"
	KindInvoice         BookingKind = "Rechnung"
	KindCardPayment     BookingKind = "Kartenzahlung"
	KindOnlineTransfer  BookingKind = "Online-Ueberweisung"
	KindCredit          BookingKind = "Gutschrift"
	KindCashDeposit     BookingKind = "Bargeldeinzahlung"
	KindStatementClose  BookingKind = "Abschluss"
	KindFeeSettlement   BookingKind = "Entgeltabschluss"
)

// ErrUnknownBookingKind indicates a statement row with an unrecognized
// transaction type.
var ErrUnknownBookingKind = errors.New("ledger: unknown booking kind")

// BookingCategory buckets bookings for turnover reporting.
type BookingCategory string

const (
	CategoryBeverages   BookingCategory = "beverages"
	CategoryFairTrade   BookingCategory = "fair_trade"
	CategoryGroceries   BookingCategory = "groceries"
	CategoryChocolate   BookingCategory = "chocolate"
	CategoryHosting     BookingCategory = "hosting"
	CategoryBankFees    BookingCategory = "bank_fees"
	CategoryCashIncome  BookingCategory = "cash_income"
	CategoryOther       BookingCategory = "other"
)

// AccountBooking is one dated bank account transaction.
type AccountBooking struct {
	BookingDate        time.Time
	ValueDate          time.Time
	Kind               BookingKind
	Description        string
	CreditorID         string
	MandateReference   string
	CustomerReference  string
	CollectorRef       string
	OriginalAmount     *decimal.Decimal
	ChargebackAmount   *decimal.Decimal
	BeneficiaryOrPayer string
	IBAN               string
	BIC                string
	Amount             decimal.Decimal
	Currency           string
	AdditionalInfo     string
}

// Snapshot is one physical inventory count: per-beverage counted quantities
// plus the incidental monetary state taken at the same time. Two snapshots
// ordered by time define a reconciliation period.
type Snapshot struct {
	ID                 uuid.UUID
	Date               time.Time
	Counts             map[string]decimal.Decimal
	MoneyInSafe        decimal.Decimal
	OtherMonetaryValue decimal.Decimal
	ExtraExpenses      map[string]decimal.Decimal
}

// Count returns the counted quantity for a beverage, zero when the beverage
// is absent from the snapshot.
func (s *Snapshot) Count(beverageID string) decimal.Decimal {
	if s == nil {
		return decimal.Zero
	}
	return s.Counts[beverageID]
}

// ExtraExpenseTotal sums the free-form expense entries recorded with the
// snapshot.
func (s *Snapshot) ExtraExpenseTotal() decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, v := range s.ExtraExpenses {
		total = total.Add(v)
	}
	return total
}
