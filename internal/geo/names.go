package geo

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeName folds diacritics and case so area names from different
// providers match ("Samaná" == "samana").
func NormalizeName(name string) string {
	folded, _, err := transform.String(foldTransformer, name)
	if err != nil {
		folded = name
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// SameArea reports whether two provider-reported area names refer to the
// same place after normalization.
func SameArea(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
