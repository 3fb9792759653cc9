package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lagerbuch/lagerbuch/internal/app"
	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/ingest"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/reconcile"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

// App bundles the wired services the commands operate on.
type App struct {
	Config *app.Config
	Logger *slog.Logger

	Catalog   *catalog.Catalog
	Ledger    ledger.Repository
	Invoices  *ingest.InvoiceImporter
	Bank      *ingest.BankCSVImporter
	Counts    *ingest.SnapshotImporter
	Reconcile *reconcile.Engine
}

// NewRootCommand builds the lagerbuch command tree.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "lagerbuch",
		Short:         "Supply and finance reconciliation for the beverage stand",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newImportCommand(a))
	root.AddCommand(newReconcileCommand(a))
	root.AddCommand(newDigestCommand(a))
	root.AddCommand(newTurnoverCommand(a))
	return root
}

const dateLayout = "2006-01-02"

// windowFlags registers the shared --from/--to pair and returns a parser
// for them. Empty flags leave the window unbounded on that side.
func windowFlags(cmd *cobra.Command) func() (shared.Window, error) {
	var from, to string
	cmd.Flags().StringVar(&from, "from", "", "start of the analysis window (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "end of the analysis window (YYYY-MM-DD, exclusive)")

	return func() (shared.Window, error) {
		var window shared.Window
		if from != "" {
			start, err := time.Parse(dateLayout, from)
			if err != nil {
				return shared.Window{}, fmt.Errorf("--from: %w", err)
			}
			window.Start = &start
		}
		if to != "" {
			end, err := time.Parse(dateLayout, to)
			if err != nil {
				return shared.Window{}, fmt.Errorf("--to: %w", err)
			}
			window.End = &end
		}
		return window, nil
	}
}
