package rut

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reNonLetter  = regexp.MustCompile(`[^\p{L}\s]`)
	reNonDigit   = regexp.MustCompile(`\D+`)
)

// Document holds the normalized views of one extracted PDF text. It is built
// once per parse and never mutated; every resolver reads from it.
type Document struct {
	// Raw is the extractor output as-is, positional digit grids included.
	Raw string
	// Collapsed is Raw with NBSPs replaced and whitespace runs collapsed.
	Collapsed string
	// AlphaLower keeps only letters and single spaces, lowercased.
	AlphaLower string
	// AlphaLowerNoAccents is AlphaLower with diacritics stripped, for
	// accent-insensitive label matching.
	AlphaLowerNoAccents string
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// RemoveAccents strips combining diacritical marks via Unicode decomposition
// ("generación" -> "generacion").
func RemoveAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize builds a Document from raw extracted text. Never fails; empty
// input yields all-empty views.
func Normalize(raw string) Document {
	collapsed := strings.ReplaceAll(raw, " ", " ")
	collapsed = strings.TrimSpace(reWhitespace.ReplaceAllString(collapsed, " "))

	alpha := reNonLetter.ReplaceAllString(collapsed, " ")
	alpha = strings.ToLower(strings.TrimSpace(reWhitespace.ReplaceAllString(alpha, " ")))

	return Document{
		Raw:                 raw,
		Collapsed:           collapsed,
		AlphaLower:          alpha,
		AlphaLowerNoAccents: RemoveAccents(alpha),
	}
}

// digitsOnly removes everything but decimal digits.
func digitsOnly(s string) string {
	return reNonDigit.ReplaceAllString(s, "")
}

// foldRune lowercases a rune and strips its diacritic, keeping the base
// letter ("Ó" -> "o").
func foldRune(r rune) rune {
	r = unicode.ToLower(r)
	folded := RemoveAccents(string(r))
	for _, fr := range folded {
		return fr
	}
	return r
}

// indexFold finds keyword (already lowercase, accent-free) in s matching
// case- and accent-insensitively, and returns the byte offset in s of the
// match start, or -1. Offsets stay valid for slicing s directly.
func indexFold(s, keyword string) int {
	if keyword == "" {
		return 0
	}
	var folded strings.Builder
	offsets := make([]int, 0, len(s))
	for i, r := range s {
		fr := foldRune(r)
		start := folded.Len()
		folded.WriteRune(fr)
		for j := start; j < folded.Len(); j++ {
			offsets = append(offsets, i)
		}
	}
	idx := strings.Index(folded.String(), keyword)
	if idx < 0 || idx >= len(offsets) {
		return -1
	}
	return offsets[idx]
}
