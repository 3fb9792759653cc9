package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/reconcile"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

func newReconcileCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile the latest snapshot pair in a window",
	}
	window := windowFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		w, err := window()
		if err != nil {
			return err
		}
		snapshots, err := a.Ledger.Snapshots(cmd.Context())
		if err != nil {
			return err
		}
		var inWindow []ledger.Snapshot
		for _, snap := range snapshots {
			if w.Contains(snap.Date) {
				inWindow = append(inWindow, snap)
			}
		}
		if len(inWindow) < 2 {
			return fmt.Errorf("need two inventory counts in the window, have %d", len(inWindow))
		}
		old, new := inWindow[len(inWindow)-2], inWindow[len(inWindow)-1]

		bookings, err := a.Ledger.Bookings(cmd.Context())
		if err != nil {
			return err
		}
		report, err := a.Reconcile.Reconcile(cmd.Context(), old, new, bookings)
		if err != nil {
			return err
		}
		printPeriodReport(cmd.OutOrStdout(), report)
		printBeverageRows(cmd.OutOrStdout(), report)
		return nil
	}
	return cmd
}

func newDigestCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Reconcile every consecutive snapshot pair and summarize shrinkage",
	}
	window := windowFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		w, err := window()
		if err != nil {
			return err
		}
		digest, err := a.Reconcile.Digest(cmd.Context(), w)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, report := range digest.Periods {
			printPeriodReport(out, report)
			fmt.Fprintln(out)
		}
		if len(digest.Periods) == 0 {
			fmt.Fprintln(out, "no snapshot pairs in window")
			return nil
		}
		p := germanPrinter()
		p.Fprintf(out, "Durchschnittlicher Schwund:\n")
		p.Fprintf(out, "  100%% Pfand zurück:     %.2f €\n", digest.MeanShrinkage.InexactFloat64())
		p.Fprintf(out, "  ohne Pfand:            %.2f €\n", digest.MeanShrinkageWithoutDeposits.InexactFloat64())
		p.Fprintf(out, "  skalierter Pfand:      %.2f €\n", digest.MeanShrinkageScaledDeposits.InexactFloat64())
		p.Fprintf(out, "Standardabweichung:      %.2f\n", digest.StdDevShrinkage.InexactFloat64())
		return nil
	}
	return cmd
}

func newTurnoverCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "turnover",
		Short: "Break account movement down by booking category",
	}
	window := windowFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		w, err := window()
		if err != nil {
			return err
		}
		bookings, err := a.Ledger.Bookings(cmd.Context())
		if err != nil {
			return err
		}
		report := reconcile.CashFlow(bookings, w)

		out := cmd.OutOrStdout()
		p := germanPrinter()
		categories := make([]ledger.BookingCategory, 0, len(report.ExpensesByCategory))
		for category := range report.ExpensesByCategory {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool {
			return report.ExpensesByCategory[categories[i]].GreaterThan(report.ExpensesByCategory[categories[j]])
		})
		p.Fprintf(out, "Ausgaben:\n")
		for _, category := range categories {
			expense := report.ExpensesByCategory[category]
			if category == ledger.CategoryCashIncome || !expense.IsPositive() {
				continue
			}
			p.Fprintf(out, "  %-12s %10.2f €\n", string(category)+":", expense.InexactFloat64())
		}
		p.Fprintf(out, "Empirische Ausgaben:   %.2f €\n", report.TotalExpenses.InexactFloat64())
		p.Fprintf(out, "Eingezahltes Geld:     %.2f €\n", report.CashDeposits.InexactFloat64())
		if !shared.NearlyEqual(report.TotalIncome, report.CashDeposits) {
			p.Fprintf(out, "Insgesamt Plus:        %.2f €\n", report.TotalIncome.InexactFloat64())
		}
		p.Fprintf(out, "Tatsächlicher Profit:  %.2f €\n", report.TotalProfit.InexactFloat64())
		return nil
	}
	return cmd
}

func germanPrinter() *message.Printer {
	return message.NewPrinter(language.German)
}

func printPeriodReport(out io.Writer, report reconcile.PeriodReport) {
	p := germanPrinter()
	p.Fprintf(out, "Auswertung vom %s bis %s:\n", report.Start.Format(dateLayout), report.End.Format(dateLayout))
	p.Fprintf(out, "Vorheriger Wert:         %.2f €\n", report.OldBalance.Add(report.OldInventoryValue).InexactFloat64())
	p.Fprintf(out, "Aktueller Wert:          %.2f €\n", report.NewBalance.Add(report.NewInventoryValue).InexactFloat64())
	p.Fprintf(out, "Profit:                  %.2f €\n", report.ActualProfit.InexactFloat64())
	p.Fprintf(out, "Erwarteter Profit:       %.2f €\n", report.ExpectedProfit.InexactFloat64())
	p.Fprintf(out, "  (ohne Pfand):          %.2f €\n", report.ExpectedProfitWithoutDeposits.InexactFloat64())
	p.Fprintf(out, "  (skalierter Pfand):    %.2f €\n", report.ExpectedProfitScaledDeposits.InexactFloat64())
	p.Fprintf(out, "Schwund:                 %.2f €\n", report.Shrinkage.InexactFloat64())
	p.Fprintf(out, "Erwartete Einnahmen:     %.2f €\n", report.ExpectedIncome.InexactFloat64())
	p.Fprintf(out, "Tatsächliche Einnahmen:  %.2f €\n", report.ActualIncome.InexactFloat64())
	if !report.ExtraExpenses.IsZero() {
		p.Fprintf(out, "Sonderausgaben:          %.2f €\n", report.ExtraExpenses.InexactFloat64())
	}
}

func printBeverageRows(out io.Writer, report reconcile.PeriodReport) {
	p := germanPrinter()
	rows := make([]reconcile.AnalyzedBeverage, 0, len(report.Beverages))
	for _, row := range report.Beverages {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].NumSold.GreaterThan(rows[j].NumSold) })
	for _, row := range rows {
		if row.Profit.IsZero() && row.NumSold.IsZero() && row.NumReturned.IsZero() {
			continue
		}
		p.Fprintf(out, "%-40s %8.2f verkauft  %8.2f gekauft  %8.2f zurück  %10.2f € Profit\n",
			row.Name+":",
			row.NumSold.InexactFloat64(),
			row.NumOrdered.InexactFloat64(),
			row.NumReturned.InexactFloat64(),
			row.Profit.InexactFloat64())
	}
}
