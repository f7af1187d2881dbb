package model

import (
	"slices"
	"unicode"
	"unicode/utf8"
)

// ByKey returns a comparator ordering values by the projected key,
// comparing Unicode code points case-insensitively. Keys that differ
// only by case compare equal, so a stable sort preserves input order
// for them.
func ByKey[T any](key func(T) string) func(a, b T) int {
	return func(a, b T) int { return CompareFold(key(a), key(b)) }
}

// SortDocuments orders docs by id. The sort is stable, so documents
// whose ids fold equal keep their incoming order.
func SortDocuments(docs []Document) {
	slices.SortStableFunc(docs, ByKey(func(d Document) string { return d.ID }))
}

// CompareFold compares two strings code point by code point under
// Unicode simple folding.
func CompareFold(a, b string) int {
	for a != "" && b != "" {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		fa, fb := foldRune(ra), foldRune(rb)
		if fa != fb {
			if fa < fb {
				return -1
			}
			return 1
		}
		a, b = a[na:], b[nb:]
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	default:
		return 1
	}
}

// foldRune maps r to the smallest rune in its simple-fold orbit, a
// canonical representative shared by all case variants.
func foldRune(r rune) rune {
	min := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < min {
			min = f
		}
	}
	return min
}
