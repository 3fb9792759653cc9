package ingest

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/lagerbuch/lagerbuch/internal/catalog"
	"github.com/lagerbuch/lagerbuch/internal/ledger"
)

const sampleCountSheet = `Geld:
  Bar: 12.5
  Wechselgeld: "3*4+1"
Grihed:
  B1183 Pilsator 0,50l: 10
  L0150 Leergutkasten: "2*3"
  Z9999 Unbekannt: 4
Sonderausgaben:
  Zapfanlage: "25"
Tresor: 100.5
`

func newSnapshotImporter(t *testing.T) (*SnapshotImporter, *ledger.MemoryRepository) {
	t.Helper()
	ctx := context.Background()
	catRepo := catalog.NewMemoryRepository()
	for _, b := range []catalog.Beverage{
		{ID: "B1183", Name: "Pilsator 0,50l", BottleType: catalog.BottleTypeGlass},
		{ID: "L0150", Name: "Leergutkasten komplett", BottleType: catalog.BottleTypeCrateReturn},
	} {
		require.NoError(t, catRepo.CreateBeverage(ctx, b))
	}
	repo := ledger.NewMemoryRepository()
	return NewSnapshotImporter(catRepo, repo, slog.Default()), repo
}

func TestImportCountSheet(t *testing.T) {
	importer, _ := newSnapshotImporter(t)

	snap, created, err := importer.Import(context.Background(), "2024-05-13", strings.NewReader(sampleCountSheet))
	require.NoError(t, err)
	require.True(t, created)

	require.True(t, snap.Date.Equal(mustDay("2024-05-13")))
	require.True(t, snap.MoneyInSafe.Equal(decimal.RequireFromString("100.5")))
	require.True(t, snap.OtherMonetaryValue.Equal(decimal.RequireFromString("25.5")))
	require.True(t, snap.Counts["B1183"].Equal(decimal.NewFromInt(10)))
	require.True(t, snap.Counts["L0150"].Equal(decimal.NewFromInt(6)))
	require.True(t, snap.ExtraExpenses["Zapfanlage"].Equal(decimal.NewFromInt(25)))

	// Unknown article ids are dropped, not imported.
	_, hasUnknown := snap.Counts["Z9999"]
	require.False(t, hasUnknown)
}

func TestImportCountSheetIsIdempotentPerDate(t *testing.T) {
	importer, repo := newSnapshotImporter(t)

	_, created, err := importer.Import(context.Background(), "2024-05-13", strings.NewReader(sampleCountSheet))
	require.NoError(t, err)
	require.True(t, created)

	_, created, err = importer.Import(context.Background(), "2024-05-13", strings.NewReader(sampleCountSheet))
	require.NoError(t, err)
	require.False(t, created)

	snaps, err := repo.Snapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 1)
}

func TestImportCountSheetRejectsBadDateStem(t *testing.T) {
	importer, _ := newSnapshotImporter(t)
	_, _, err := importer.Import(context.Background(), "default", strings.NewReader(sampleCountSheet))
	require.Error(t, err)
}

func TestImportCountSheetRequiresSections(t *testing.T) {
	importer, _ := newSnapshotImporter(t)
	_, _, err := importer.Import(context.Background(), "2024-05-13", strings.NewReader("Tresor: 10\n"))
	require.Error(t, err)
}
