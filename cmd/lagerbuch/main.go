package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lagerbuch/lagerbuch/cmd/lagerbuch/cli"
	"github.com/lagerbuch/lagerbuch/internal/app"
	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/deposit"
	"github.com/lagerbuch/lagerbuch/internal/ingest"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/platform/db"
	"github.com/lagerbuch/lagerbuch/internal/reconcile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	catalogRepo := catalog.NewPostgresRepository(pool)
	ledgerRepo := ledger.NewPostgresRepository(pool)

	cat := catalog.New(catalogRepo, logger)
	service := ledger.NewService(ledgerRepo, cat, logger, ledger.ServiceConfig{
		CreditEligibleIDs: cfg.CreditEligibleIDs,
	})
	deposits := deposit.NewEngine(cat, ledgerRepo, logger, deposit.Config{
		EmptyCratePrice: cfg.EmptyCratePriceDecimal(),
	})
	reconciler := reconcile.NewEngine(cat, ledgerRepo, deposits, logger, reconcile.Config{
		DepositScaleFactor: cfg.DepositScaleFactorDecimal(),
	})

	root := cli.NewRootCommand(&cli.App{
		Config:    cfg,
		Logger:    logger,
		Catalog:   cat,
		Ledger:    ledgerRepo,
		Invoices:  ingest.NewInvoiceImporter(service, logger),
		Bank:      ingest.NewBankCSVImporter(ledgerRepo, logger),
		Counts:    ingest.NewSnapshotImporter(catalogRepo, ledgerRepo, logger),
		Reconcile: reconciler,
	})
	return root.ExecuteContext(ctx)
}
