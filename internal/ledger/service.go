package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

// defaultCreditEligibleIDs are the solidarity drinks that pooled supplier
// credits get redistributed onto.
var defaultCreditEligibleIDs = []string{"E3451", "E3456"}

// Service records invoices into the ledger, resolving prices through the
// catalog and normalizing raw line items on the way in.
type Service struct {
	repo           Repository
	catalog        *catalog.Catalog
	logger         *slog.Logger
	creditEligible map[string]struct{}
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	// CreditEligibleIDs overrides the beverage group that receives
	// redistributed bonus credits.
	CreditEligibleIDs []string
}

// NewService builds a ledger Service.
func NewService(repo Repository, cat *catalog.Catalog, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	ids := cfg.CreditEligibleIDs
	if len(ids) == 0 {
		ids = defaultCreditEligibleIDs
	}
	eligible := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		eligible[id] = struct{}{}
	}
	return &Service{repo: repo, catalog: cat, logger: logger, creditEligible: eligible}
}

// stagedLine is a raw line after numeric normalization, before price
// resolution.
type stagedLine struct {
	quantity int64
	beverage catalog.Beverage
	name     string
	deposit  decimal.Decimal
	price    decimal.Decimal
	total    decimal.Decimal
}

// RecordInvoice stores an invoice and its line items. Importing an invoice
// that is already present (same number, date and total) is a no-op; the
// second return value reports whether a new invoice was created.
//
// Per-line failures (unparsable numbers, unknown bottle labels, missing
// sale-price translations) abort that line and are logged at error level;
// the rest of the invoice still imports.
func (s *Service) RecordInvoice(ctx context.Context, number string, date time.Time, declaredTotal decimal.Decimal, lines []RawLineItem) (Invoice, bool, error) {
	if existing, ok, err := s.repo.Invoice(ctx, number); err != nil {
		return Invoice{}, false, err
	} else if ok {
		if !existing.Date.Equal(date) || !shared.NearlyEqual(existing.TotalPrice, declaredTotal) {
			s.logger.Warn("invoice re-imported with different header",
				slog.String("invoice", number),
				slog.Time("date", date),
				slog.String("total", declaredTotal.String()))
		}
		return existing, false, nil
	}

	staged := s.stageLines(ctx, number, lines)
	s.redistributeBonusCredit(number, staged)

	inv := Invoice{Number: number, Date: date, TotalPrice: declaredTotal}
	itemSum := decimal.Zero
	for _, line := range staged {
		purchase, err := s.catalog.ResolveOrCreatePurchasePrice(ctx, line.beverage.ID, line.price, line.deposit, date)
		if err != nil {
			s.logger.Error("purchase price not resolved", slog.String("invoice", number), slog.String("article", line.beverage.ID), slog.Any("error", err))
			continue
		}
		sale, err := s.catalog.ResolveOrCreateSalePrice(ctx, line.beverage.ID, line.name, date)
		if err != nil {
			s.logger.Error("sale price not resolved", slog.String("invoice", number), slog.String("article", line.beverage.ID), slog.Any("error", err))
			continue
		}

		item := InvoiceItem{
			Quantity:      line.quantity,
			Name:          line.name,
			BeverageID:    line.beverage.ID,
			TotalPrice:    line.total,
			PurchasePrice: purchase,
			SalePrice:     sale,
		}
		if !shared.NearlyEqual(item.CalculatedTotal(), line.total) {
			s.logger.Error("line total mismatch",
				slog.String("invoice", number),
				slog.String("article", line.beverage.ID),
				slog.String("recorded", line.total.String()),
				slog.String("calculated", item.CalculatedTotal().String()))
		}
		itemSum = itemSum.Add(line.total)
		inv.Items = append(inv.Items, item)
	}

	if !shared.NearlyEqual(itemSum, declaredTotal) {
		s.logger.Error("invoice total mismatch",
			slog.String("invoice", number),
			slog.String("declared", declaredTotal.String()),
			slog.String("items", itemSum.String()))
	}

	if err := s.repo.SaveInvoice(ctx, inv); err != nil {
		return Invoice{}, false, err
	}
	return inv, true, nil
}

func (s *Service) stageLines(ctx context.Context, number string, lines []RawLineItem) []*stagedLine {
	staged := make([]*stagedLine, 0, len(lines))
	for _, raw := range lines {
		id := strings.ReplaceAll(raw.BeverageID, " ", "")

		quantity := int64(1)
		priceText := raw.Price
		if raw.Quantity == QuantitySentinel {
			// Single unit, price column unusable; the line total is the
			// unit price.
			priceText = raw.Total
		} else {
			parsed, err := strconv.ParseInt(strings.TrimSpace(raw.Quantity), 10, 64)
			if err != nil {
				s.logger.Error("quantity not parsable", slog.String("invoice", number), slog.String("article", id), slog.String("quantity", raw.Quantity))
				continue
			}
			quantity = parsed
		}

		deposit, okDeposit := shared.ParseGermanDecimal(raw.Deposit)
		total, okTotal := shared.ParseGermanDecimal(raw.Total)
		price, okPrice := shared.ParseGermanDecimal(priceText)
		if !okDeposit || !okTotal || !okPrice {
			s.logger.Error("price could not be parsed", slog.String("invoice", number), slog.String("article", id), slog.String("name", raw.Name))
			continue
		}

		beverage, err := s.catalog.EnsureBeverage(ctx, id, raw.Name, raw.Content, raw.BottleLabel)
		if err != nil {
			if errors.Is(err, catalog.ErrUnknownBottleLabel) {
				s.logger.Error("bottle label not classified", slog.String("invoice", number), slog.String("article", id), slog.Any("error", err))
				continue
			}
			s.logger.Error("beverage not resolved", slog.String("invoice", number), slog.String("article", id), slog.Any("error", err))
			continue
		}

		staged = append(staged, &stagedLine{
			quantity: quantity,
			beverage: beverage,
			name:     raw.Name,
			deposit:  deposit,
			price:    price,
			total:    total,
		})
	}
	return staged
}

// redistributeBonusCredit pools the totals of bonus-credit lines and spreads
// them across the credit-eligible items proportionally to quantity. Shares
// are cent-rounded with the remainder on the last item so the pooled credit
// is conserved exactly. The credit lines themselves are zeroed afterwards,
// keeping the invoice sum unchanged.
func (s *Service) redistributeBonusCredit(number string, staged []*stagedLine) {
	pool := decimal.Zero
	var credits, eligible []*stagedLine
	for _, line := range staged {
		if line.beverage.BottleType == catalog.BottleTypeBonusCredit {
			pool = pool.Add(line.total)
			credits = append(credits, line)
			continue
		}
		if _, ok := s.creditEligible[line.beverage.ID]; ok && line.quantity > 0 {
			eligible = append(eligible, line)
		}
	}
	if pool.IsZero() || len(eligible) == 0 {
		return
	}

	totalQuantity := decimal.Zero
	for _, line := range eligible {
		totalQuantity = totalQuantity.Add(decimal.NewFromInt(line.quantity))
	}

	distributed := decimal.Zero
	for i, line := range eligible {
		quantity := decimal.NewFromInt(line.quantity)
		share := pool.Mul(quantity).Div(totalQuantity).Round(2)
		if i == len(eligible)-1 {
			share = pool.Sub(distributed)
		}
		distributed = distributed.Add(share)
		line.total = line.total.Add(share)
		line.price = line.price.Add(share.Div(quantity))
	}

	for _, line := range credits {
		line.price = decimal.Zero
		line.total = decimal.Zero
	}

	s.logger.Info("bonus credit redistributed",
		slog.String("invoice", number),
		slog.String("credit", pool.String()),
		slog.Int("eligible_lines", len(eligible)))
}
