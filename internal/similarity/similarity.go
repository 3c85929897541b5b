// Package similarity implements the diacritic-folded, case-insensitive
// Levenshtein ratio used across the resolver and scorer.
package similarity

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold decomposes s, strips combining marks, and lower-cases the result.
func fold(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// newMetric builds a Levenshtein metric matching the [0,1] ratio spec.md
// §4.1 defines: 1 - distance/max(len(a'), len(b')).
func newMetric() *metrics.Levenshtein {
	lev := metrics.NewLevenshtein()
	lev.CaseSensitive = false
	lev.InsertCost = 1
	lev.DeleteCost = 1
	lev.ReplaceCost = 1
	return lev
}

// Similarity returns a value in [0.0, 1.0]: 1.0 when a and b fold to the
// same string (including both empty), decreasing with edit distance.
func Similarity(a, b string) float64 {
	fa, fb := fold(a), fold(b)
	if fa == "" && fb == "" {
		return 1.0
	}
	return newMetric().Compare(fa, fb)
}
