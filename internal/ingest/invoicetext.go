package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

var (
	invoiceNumberRegex = regexp.MustCompile(`Rechnung-Nr:\s*(\d+)\s*–\s*(\d+)`)
	deliveryDateRegex  = regexp.MustCompile(`Liefertag:\s*(\d{2}\.\d{2}\.\d{4})`)
	totalPriceRegex    = regexp.MustCompile(`(?:Zahlbetrag|Gutschriftsbetrag):\s*(-?(?:\d*\.)?\d+,\d+) €`)

	// itemRegex matches one line of the supplier's layout-extracted item
	// table: quantity, article number, name, content, packaging, tax rate,
	// then deposit, price and total in euros.
	itemRegex = regexp.MustCompile(
		`\s*(\d+|####)\s+` +
			`([A-Z]+ \d+)\s+` +
			`([\w\W]*?)\s{2,}` +
			`(\d+(?:[/\w,]*)? x \d+(?:,\d+\w)?(?:[/\w,]*)?|einfach)\s+` +
			`([\w\s]*?)\s{2,}` +
			`\d+ %\s+` +
			`(-?\d+,\d+) €\s+` +
			`(-?\d+,\d+) €\s+` +
			`(-?\d+,\d+) €\s+`,
	)
)

// ErrInvoiceTextUnparsable reports extracted invoice text missing one of the
// required header fields or any item line.
var ErrInvoiceTextUnparsable = fmt.Errorf("ingest: invoice text not parsable")

// ParsedInvoice is the raw result of text extraction, before the ledger
// normalizes and prices the lines.
type ParsedInvoice struct {
	Number string
	Date   time.Time
	Total  decimal.Decimal
	Lines  []ledger.RawLineItem
}

// ParseInvoiceText extracts the invoice header and item lines from the
// layout-preserved text of one supplier invoice.
func ParseInvoiceText(text string) (ParsedInvoice, error) {
	numbers := invoiceNumberRegex.FindStringSubmatch(text)
	dateMatch := deliveryDateRegex.FindStringSubmatch(text)
	totalMatch := totalPriceRegex.FindStringSubmatch(text)
	items := itemRegex.FindAllStringSubmatch(text, -1)
	if numbers == nil || dateMatch == nil || totalMatch == nil || len(items) == 0 {
		return ParsedInvoice{}, ErrInvoiceTextUnparsable
	}

	date, err := time.Parse("02.01.2006", dateMatch[1])
	if err != nil {
		return ParsedInvoice{}, fmt.Errorf("delivery date %q: %w", dateMatch[1], err)
	}
	total, ok := shared.ParseGermanDecimal(totalMatch[1])
	if !ok {
		return ParsedInvoice{}, fmt.Errorf("%w: total %q", ErrInvoiceTextUnparsable, totalMatch[1])
	}

	parsed := ParsedInvoice{
		Number: numbers[1] + "-" + numbers[2],
		Date:   date,
		Total:  total,
	}
	for _, m := range items {
		parsed.Lines = append(parsed.Lines, ledger.RawLineItem{
			Quantity:    m[1],
			BeverageID:  m[2],
			Name:        m[3],
			Content:     m[4],
			BottleLabel: m[5],
			Deposit:     m[6],
			Price:       m[7],
			Total:       m[8],
		})
	}
	return parsed, nil
}

// InvoiceImporter feeds extracted invoice text into the ledger service.
type InvoiceImporter struct {
	service *ledger.Service
	logger  *slog.Logger
}

// NewInvoiceImporter constructs an invoice importer.
func NewInvoiceImporter(service *ledger.Service, logger *slog.Logger) *InvoiceImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceImporter{service: service, logger: logger}
}

// Import parses one invoice text and records it. Returns the stored invoice
// and whether it was newly created.
func (i *InvoiceImporter) Import(ctx context.Context, text string) (ledger.Invoice, bool, error) {
	parsed, err := ParseInvoiceText(text)
	if err != nil {
		return ledger.Invoice{}, false, err
	}
	return i.service.RecordInvoice(ctx, parsed.Number, parsed.Date, parsed.Total, parsed.Lines)
}

// ImportFile parses and records one invoice, cross-checking the parsed
// header against the file stem first. Returns whether the invoice was newly
// created.
func (i *InvoiceImporter) ImportFile(ctx context.Context, stem, text string) (bool, error) {
	parsed, err := ParseInvoiceText(text)
	if err != nil {
		return false, err
	}
	if err := parsed.VerifyFilename(stem); err != nil {
		return false, err
	}
	_, created, err := i.service.RecordInvoice(ctx, parsed.Number, parsed.Date, parsed.Total, parsed.Lines)
	return created, err
}

// VerifyFilename cross-checks the parsed header against the source file's
// "YYYY-MM-DD NUMBER" naming convention.
func (p ParsedInvoice) VerifyFilename(stem string) error {
	want := p.Date.Format("2006-01-02") + " " + p.Number
	if stem != want {
		return fmt.Errorf("invoice file %q does not match parsed header %q", stem, want)
	}
	return nil
}
