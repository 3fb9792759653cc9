package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

// CashFlowReport breaks the account movement inside a window down by
// direction and booking category. Expense figures are positive numbers.
type CashFlowReport struct {
	TotalProfit   decimal.Decimal
	TotalExpenses decimal.Decimal
	TotalIncome   decimal.Decimal
	CashDeposits  decimal.Decimal

	ExpensesByCategory map[ledger.BookingCategory]decimal.Decimal
}

// CashFlow aggregates the given bookings over a window, filtering by the
// economically correct booking date.
func CashFlow(bookings []ledger.AccountBooking, window shared.Window) CashFlowReport {
	report := CashFlowReport{
		ExpensesByCategory: make(map[ledger.BookingCategory]decimal.Decimal),
	}
	for _, b := range bookings {
		if !window.Contains(b.ActualBookingDate()) {
			continue
		}
		report.TotalProfit = report.TotalProfit.Add(b.Amount)
		if b.Amount.IsNegative() {
			report.TotalExpenses = report.TotalExpenses.Sub(b.Amount)
		} else {
			report.TotalIncome = report.TotalIncome.Add(b.Amount)
		}
		category := b.Categorize()
		if category == ledger.CategoryCashIncome {
			report.CashDeposits = report.CashDeposits.Add(b.Amount)
		}
		report.ExpensesByCategory[category] = report.ExpensesByCategory[category].Sub(b.Amount)
	}
	return report
}
