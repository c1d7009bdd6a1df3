// Package foldcase provides the one case-insensitive comparison
// primitive used across the lexicon and phrase packages: Unicode case
// folding via golang.org/x/text/cases, rather than strings.ToLower,
// since lemmas and pronunciations may contain non-ASCII IPA letters
// that ToLower does not fold correctly in every locale.
package foldcase

import (
	"strings"

	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// Fold returns s case-folded for comparison purposes.
func Fold(s string) string {
	return folder.String(s)
}

// Contains reports whether folded(s) contains folded(substr).
func Contains(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// Equal reports whether s and other are equal under case folding.
func Equal(s, other string) bool {
	return Fold(s) == Fold(other)
}
