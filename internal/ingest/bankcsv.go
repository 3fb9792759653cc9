package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

// sparkasseHeader is the exact column layout of the bank's CAMT-CSV export.
// A changed header means the export format changed and the column mapping
// below must be reviewed, so the import fails hard on any deviation.
var sparkasseHeader = []string{
	"Auftragskonto", "Buchungstag", "Valutadatum", "Buchungstext",
	"Verwendungszweck", "Glaeubiger ID", "Mandatsreferenz",
	"Kundenreferenz (End-to-End)", "Sammlerreferenz",
	"Lastschrift Ursprungsbetrag", "Auslagenersatz Ruecklastschrift",
	"Beguenstigter/Zahlungspflichtiger", "Kontonummer/IBAN",
	"BIC (SWIFT-Code)", "Betrag", "Waehrung", "Info",
}

const bankDateLayout = "02.01.06"

// ErrUnexpectedCSVLayout reports a statement export whose header differs
// from the known Sparkasse format.
var ErrUnexpectedCSVLayout = fmt.Errorf("ingest: unexpected statement CSV layout")

// BankCSVImporter reads bank statement exports into the ledger.
type BankCSVImporter struct {
	repo   ledger.Repository
	logger *slog.Logger
}

// NewBankCSVImporter constructs a statement importer.
func NewBankCSVImporter(repo ledger.Repository, logger *slog.Logger) *BankCSVImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BankCSVImporter{repo: repo, logger: logger}
}

// Import parses one statement export and stores its bookings. Rows whose
// amount cannot be parsed are logged and skipped; rows already present are
// deduplicated by the repository. Returns the number of newly stored
// bookings.
func (i *BankCSVImporter) Import(ctx context.Context, r io.Reader) (int, error) {
	bookings, err := i.Parse(r)
	if err != nil {
		return 0, err
	}
	return i.repo.AddBookings(ctx, bookings)
}

// Parse decodes the semicolon-separated export into bookings without
// touching storage.
func (i *BankCSVImporter) Parse(r io.Reader) ([]ledger.AccountBooking, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = len(sparkasseHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read statement header: %w", err)
	}
	for col, want := range sparkasseHeader {
		if header[col] != want {
			return nil, fmt.Errorf("%w: column %d is %q, want %q", ErrUnexpectedCSVLayout, col, header[col], want)
		}
	}

	var bookings []ledger.AccountBooking
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read statement line %d: %w", line, err)
		}

		booking, err := i.parseRow(row)
		if err != nil {
			i.logger.Error("statement row skipped", slog.Int("line", line), slog.Any("error", err))
			continue
		}
		bookings = append(bookings, booking)
	}
	return bookings, nil
}

func (i *BankCSVImporter) parseRow(row []string) (ledger.AccountBooking, error) {
	bookingDate, err := time.Parse(bankDateLayout, row[1])
	if err != nil {
		return ledger.AccountBooking{}, fmt.Errorf("booking date %q: %w", row[1], err)
	}
	valueDate, err := time.Parse(bankDateLayout, row[2])
	if err != nil {
		return ledger.AccountBooking{}, fmt.Errorf("value date %q: %w", row[2], err)
	}
	kind, err := ledger.ParseBookingKind(row[3])
	if err != nil {
		return ledger.AccountBooking{}, err
	}
	amount, ok := shared.ParseGermanDecimal(row[14])
	if !ok {
		return ledger.AccountBooking{}, fmt.Errorf("amount %q not parsable", row[14])
	}

	return ledger.AccountBooking{
		BookingDate:        bookingDate,
		ValueDate:          valueDate,
		Kind:               kind,
		Description:        row[4],
		CreditorID:         row[5],
		MandateReference:   row[6],
		CustomerReference:  row[7],
		CollectorRef:       row[8],
		OriginalAmount:     optionalAmount(row[9]),
		ChargebackAmount:   optionalAmount(row[10]),
		BeneficiaryOrPayer: row[11],
		IBAN:               row[12],
		BIC:                row[13],
		Amount:             amount,
		Currency:           row[15],
		AdditionalInfo:     row[16],
	}, nil
}

func optionalAmount(text string) *decimal.Decimal {
	d, ok := shared.ParseGermanDecimal(text)
	if !ok {
		return nil
	}
	return &d
}
