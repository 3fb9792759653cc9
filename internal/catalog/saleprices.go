package catalog

import "github.com/shopspring/decimal"

// salePriceKey identifies one article in the translation table. The supplier
// occasionally reuses an id for a different article, so the name is part of
// the key.
type salePriceKey struct {
	ID   string
	Name string
}

// salePriceTranslation maps supplier articles to the per-crate sale price at
// the stand. Prices are per-bottle sale price times bottles per crate;
// non-sellable lines (milk, sugar, credits) are zero. Empty-crate articles
// carry their full deposit value so inventory valuation prices them.
var salePriceTranslation = map[salePriceKey]decimal.Decimal{
	{"B0991", "Allgäuer Büble Edelbräu"}:                      decimal.RequireFromString("30"),
	{"B0995", "Andechs Spezial hell 0,50l"}:                   decimal.RequireFromString("30"),
	{"B0996", "Astra Urtyp Pils 0,33l"}:                       decimal.RequireFromString("27"),
	{"S2247", "Becker Maracuja 1,0l Tetra"}:                   decimal.RequireFromString("18"),
	{"E3127", "Bionade  Zitr.Bergamotte 0,33l  12er"}:         decimal.RequireFromString("12"),
	{"E3128", "Bionade Mix (Hol/Ing/Kr/Lit.) 0,33l  12er"}:    decimal.RequireFromString("12"),
	{"E3130", "Bionade naturtrübe Orange 0,33l  12er"}:        decimal.RequireFromString("12"),
	{"E3132", "Bionade naturtrübe Zitrone 0,33l  12er"}:       decimal.RequireFromString("12"),
	{"B1035", "Berliner Kindl Jubiläums Pilsener 0,33l"}:      decimal.RequireFromString("24"),
	{"B1040", "Berliner Kindl Jubiläums Pilsener 0,50l"}:      decimal.RequireFromString("30"),
	{"B1047", "Berliner Kindl Radler (trüb)"}:                 decimal.RequireFromString("20"),
	{"B1053", "Berliner Pilsner 0,33l"}:                       decimal.RequireFromString("24"),
	{"W8010", "C. Jacob Gr. Burgunder (Pfalz) trocken"}:       decimal.RequireFromString("6"),
	{"W8012", "C. Jacob weisser Burgunder (Pfalz) trocken"}:   decimal.RequireFromString("6"),
	{"W8033", "Chardonnay IGT Mezzadro"}:                      decimal.RequireFromString("6"),
	{"B1345", "Clausthaler Extra Herb Alkoholfrei 0,50l"}:     decimal.RequireFromString("20"),
	{"E3438", "Club Mate"}:                                    decimal.RequireFromString("20"),
	{"E3351", "Fritz Bio-Apfelsaftschorle 0,33l"}:             decimal.RequireFromString("28.8"),
	{"E3354", "Fritz Bio-Rhabarbersaftschorle 0,33l"}:         decimal.RequireFromString("28.8"),
	{"E3347", "Fritz Zitrone 0,33l"}:                          decimal.RequireFromString("28.8"),
	{"E3433", "Mio Mio Mate Ginger 0,50l"}:                    decimal.RequireFromString("28.8"),
	{"E3449", "Paulaner Spezi Original  0,50l"}:               decimal.RequireFromString("20"),
	{"K5003", "H - Milch 3,8% Arla - BIO"}:                    decimal.Zero,
	{"K5005", "H - Milch aro 1,5% Fett"}:                      decimal.Zero,
	{"W8028", "Hüttenglut Glühwein 6x1,00l"}:                  decimal.RequireFromString("18"),
	{"B1357", "Jever Fun 0,50l"}:                              decimal.RequireFromString("20"),
	{"B1165", "Jever Pils 0,50l"}:                             decimal.RequireFromString("30"),
	{"W8025", "Kimmle Riesling  6 x 1,0l (weiss) Mehrweg"}:    decimal.RequireFromString("36"),
	{"L0150", "Leergutkasten komplett"}:                       decimal.RequireFromString("1.5"),
	{"L0240", "Leergutkasten komplett"}:                       decimal.RequireFromString("2.4"),
	{"L0246", "Leergutkasten komplett"}:                       decimal.RequireFromString("2.46"),
	{"L0300", "Leergutkasten komplett"}:                       decimal.RequireFromString("3"),
	{"L0310", "Leergutkasten komplett"}:                       decimal.RequireFromString("3.1"),
	{"L0330", "Leergutkasten komplett"}:                       decimal.RequireFromString("3.3"),
	{"L0342", "Leergutkasten komplett"}:                       decimal.RequireFromString("3.42"),
	{"L0366", "Leergutkasten komplett"}:                       decimal.RequireFromString("3.66"),
	{"L0450", "Leergutkasten komplett"}:                       decimal.RequireFromString("4.5"),
	{"L0510", "Leergutkasten komplett"}:                       decimal.RequireFromString("5.1"),
	{"L0650", "Leergutkasten komplett"}:                       decimal.RequireFromString("6.5"),
	{"W8019", "Leoff Riesling, trocken"}:                      decimal.RequireFromString("6"),
	{"W8017", "Leoff gr. Burgunder, trocken"}:                 decimal.RequireFromString("6"),
	{"W8021", "Leoff weisser Burgunder, trocken"}:             decimal.RequireFromString("6"),
	{"O7185", "Lutter & Wegner  Gendarmenmarkt Trocken 11%"}:  decimal.RequireFromString("6"),
	{"B1183", "Pilsator 0,50l"}:                               decimal.RequireFromString("20"),
	{"E3416", "Proviant Apfelschorle naturtrüb 0,33l (60%)"}:  decimal.RequireFromString("24"),
	{"E3417", "Proviant Limonade Ingwer-Zitrone 0,33l"}:       decimal.RequireFromString("24"),
	{"E3419", "Proviant Limonade Orange naturtrüb 0,33l"}:     decimal.RequireFromString("24"),
	{"E3418", "Proviant Limonade Rhabarber naturtrüb 0,33l"}:  decimal.RequireFromString("24"),
	{"O7040", "Rotkäppchen trocken, 11%"}:                     decimal.RequireFromString("6"),
	{"B1225", "Schultheiss Pils 0,50l"}:                       decimal.RequireFromString("20"),
	{"E3456", "Soli Cola 0,50l"}:                              decimal.RequireFromString("20"),
	{"E3451", "Soli Mate  Bio  0,50l"}:                        decimal.RequireFromString("20"),
	{"R0001", "Sondergutschrift laut Hinweis (inkl. voller Ust)"}: decimal.Zero,
	{"E3446", "Spezi 0,50l"}:                                  decimal.RequireFromString("20"),
	{"M4135", "Spreequell Classic  1,0l PET"}:                 decimal.RequireFromString("9.6"),
	{"M4195", "Spreequell Naturelle 1,0l PET"}:                decimal.RequireFromString("9.6"),
	{"B1245", "Sternburger Export 0,50l"}:                     decimal.RequireFromString("20"),
	{"O7060", "Söhnlein Brillant Jahrgangssekt trocken,11%"}:  decimal.RequireFromString("6"),
	{"E3450", "Th. Henry Mate Mate"}:                          decimal.RequireFromString("20"),
	{"B1278", "Wicküler Pilsener 0,50l"}:                      decimal.RequireFromString("20"),
	{"K5230", "aro Zucker Kg-Packung"}:                        decimal.Zero,
	{"L0008", "leere Einzelflasche Mw (Bier)"}:                decimal.RequireFromString("0.08"),
}

// SalePriceFor looks up the configured sale price for an article. The
// returned error is ErrNoSalePriceTranslation when the pair is unknown; the
// caller aborts that line's import but continues with the rest.
func SalePriceFor(beverageID, name string) (decimal.Decimal, error) {
	if price, ok := salePriceTranslation[salePriceKey{ID: beverageID, Name: name}]; ok {
		return price, nil
	}
	return decimal.Decimal{}, ErrNoSalePriceTranslation
}
