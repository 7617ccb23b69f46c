package dataset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSymbol returns the lookup form of a gene symbol: surrounding
// space trimmed, NFC normalized, upper-cased. "  esr1 " and "ESR1" name
// the same gene.
func NormalizeSymbol(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	// cases.Caser is stateful, so each call builds its own.
	return cases.Upper(language.Und).String(s)
}
