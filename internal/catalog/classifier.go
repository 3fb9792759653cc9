package catalog

import (
	"fmt"
	"strings"
)

// bottleLabels is the exact-match table of known supplier packaging labels.
// The invoice "Gebinde" column is free text; every label ever observed gets
// an explicit entry so that a new label fails loudly instead of silently
// landing in the wrong deposit bucket.
var bottleLabels = map[string]BottleType{
	"Kasten":         BottleTypeGlass,
	"Kasten MW":      BottleTypeGlass,
	"Kiste":          BottleTypeGlass,
	"Einzelflasche":  BottleTypeSingleGlass,
	"MW-Flasche":     BottleTypeSingleGlass,
	"Kasten PET":     BottleTypePlastic,
	"PET":            BottleTypePlastic,
	"Tetra":          BottleTypeTetraPack,
	"Tetra-Pack":     BottleTypeTetraPack,
	"Karton":         BottleTypePackage,
	"Packung":        BottleTypePackage,
	"Sack":           BottleTypePackage,
	"Kasten ohne":    BottleTypeCrateReturn,
	"Leergut":        BottleTypeCrateReturn,
	"Gutschrift":     BottleTypeBonusCredit,
	"Berechnung":     BottleTypeOtherCharge,
	"Pauschale":      BottleTypeOtherCharge,
}

// idExceptions tolerates a handful of articles whose labels are blank or
// inconsistent on real invoices.
var idExceptions = map[string]BottleType{
	"R0001": BottleTypeBonusCredit,
	"K5230": BottleTypePackage,
	"L0008": BottleTypeCrateReturn,
}

// crateReturnPrefix marks empty-crate article ids ("L0150" is the complete
// empty crate at 1.50).
const crateReturnPrefix = "L"

// ClassifyBottleLabel maps a free-text packaging label to a BottleType, with
// the beverage id as fallback disambiguator. Unrecognized non-empty labels
// are an error: misclassification corrupts the deposit-bucket aggregation
// downstream, so the table must be extended instead.
func ClassifyBottleLabel(label, beverageID string) (BottleType, error) {
	label = strings.TrimSpace(label)
	if bottleType, ok := bottleLabels[label]; ok {
		return bottleType, nil
	}
	if bottleType, ok := idExceptions[beverageID]; ok {
		return bottleType, nil
	}
	if label == "" {
		if strings.HasPrefix(beverageID, crateReturnPrefix) {
			return BottleTypeCrateReturn, nil
		}
		return BottleTypeUnknown, nil
	}
	return "", fmt.Errorf("%w: %q (article %s)", ErrUnknownBottleLabel, label, beverageID)
}
