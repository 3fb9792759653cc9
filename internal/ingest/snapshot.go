package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
	"github.com/lagerbuch/lagerbuch/internal/shared"
)

// snapshotFile mirrors the hand-written count sheet. Count and money values
// may be plain numbers or small arithmetic expressions like "3*4+1".
type snapshotFile struct {
	Money         map[string]any `yaml:"Geld" validate:"required"`
	Stock         map[string]any `yaml:"Grihed" validate:"required"`
	ExtraExpenses map[string]any `yaml:"Sonderausgaben"`
	Safe          any            `yaml:"Tresor" validate:"required"`
}

// SnapshotImporter reads inventory count sheets into the ledger.
type SnapshotImporter struct {
	catalog  catalog.Repository
	ledger   ledger.Repository
	logger   *slog.Logger
	validate *validator.Validate
}

// NewSnapshotImporter constructs a count sheet importer.
func NewSnapshotImporter(cat catalog.Repository, repo ledger.Repository, logger *slog.Logger) *SnapshotImporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotImporter{
		catalog:  cat,
		ledger:   repo,
		logger:   logger,
		validate: validator.New(),
	}
}

// Import parses one count sheet and stores it as a snapshot dated by the
// file stem ("2024-05-13"). Counts for unknown beverage ids are logged and
// dropped. Returns false when a snapshot for the date already exists;
// updating a counted snapshot is not supported.
func (i *SnapshotImporter) Import(ctx context.Context, stem string, r io.Reader) (ledger.Snapshot, bool, error) {
	date, err := time.Parse("2006-01-02", stem)
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("count sheet name %q is not a date: %w", stem, err)
	}

	var file snapshotFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("decode count sheet %s: %w", stem, err)
	}
	if err := i.validate.Struct(file); err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("count sheet %s incomplete: %w", stem, err)
	}

	snap := ledger.Snapshot{
		ID:            uuid.New(),
		Date:          date,
		Counts:        make(map[string]decimal.Decimal),
		ExtraExpenses: make(map[string]decimal.Decimal),
	}

	if snap.MoneyInSafe, err = amountValue(file.Safe); err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("count sheet %s safe value: %w", stem, err)
	}
	for label, value := range file.Money {
		amount, err := amountValue(value)
		if err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("count sheet %s money entry %q: %w", stem, label, err)
		}
		snap.OtherMonetaryValue = snap.OtherMonetaryValue.Add(amount)
	}
	for label, value := range file.ExtraExpenses {
		amount, err := amountValue(value)
		if err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("count sheet %s expense %q: %w", stem, label, err)
		}
		snap.ExtraExpenses[label] = amount
	}

	for entry, value := range file.Stock {
		// The sheet labels stock lines "B1183 Pilsator 0,5l"; the first
		// token is the article id.
		id := strings.SplitN(strings.TrimSpace(entry), " ", 2)[0]
		if _, err := i.catalog.Beverage(ctx, id); err != nil {
			i.logger.Error("unknown beverage in count sheet", slog.String("sheet", stem), slog.String("id", id))
			continue
		}
		count, err := amountValue(value)
		if err != nil {
			return ledger.Snapshot{}, false, fmt.Errorf("count sheet %s count %q: %w", stem, entry, err)
		}
		snap.Counts[id] = snap.Counts[id].Add(count)
	}

	created, err := i.ledger.AddSnapshot(ctx, snap)
	if err != nil {
		return ledger.Snapshot{}, false, err
	}
	return snap, created, nil
}

// amountValue converts a YAML scalar to a decimal: numbers directly,
// strings through the expression evaluator.
func amountValue(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return shared.EvalAmount(v)
	default:
		return decimal.Zero, fmt.Errorf("unsupported value %v (%T)", value, value)
	}
}
