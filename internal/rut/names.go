package rut

import (
	"regexp"
	"strings"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

var (
	// Runs of 2..7 consecutive all-uppercase tokens. RUT forms print the
	// holder's name as one such run regardless of where the extractor
	// flattened it.
	reUppercaseRun = regexp.MustCompile(`\p{Lu}+(?:\s+\p{Lu}+){1,6}`)
	reNameByLabel  = regexp.MustCompile(`(?i)(?:Nombre|Razon social|Razón social)\D{0,40}([\p{L} .,]{5,80})`)
	reDigit        = regexp.MustCompile(`\d`)
)

// findUppercaseNameBlock returns the longest run of consecutive uppercase word
// tokens. Candidates with fewer than 4 non-digit characters are noise.
func findUppercaseNameBlock(text string) (string, bool) {
	best := ""
	for _, cand := range reUppercaseRun.FindAllString(text, -1) {
		cand = strings.TrimSpace(cand)
		if len(reDigit.ReplaceAllString(cand, "")) < 4 {
			continue
		}
		if len(cand) > len(best) {
			best = cand
		}
	}
	if best == "" {
		return "", false
	}
	return reWhitespace.ReplaceAllString(best, " "), true
}

// findNameByLabels is the fallback when no uppercase block exists: text
// following a "Nombre"/"Razón social" label.
func findNameByLabels(text string) (string, bool) {
	if m := reNameByLabel.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// cleanNameDisplay keeps letters and single spaces, strips leading
// single-letter noise tokens ("s SANCHEZ ..." -> "SANCHEZ ...") and uppercases.
func cleanNameDisplay(input string) string {
	s := reNonLetter.ReplaceAllString(input, " ")
	s = strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	parts := strings.Fields(s)
	i := 0
	for i < len(parts) && len([]rune(parts[i])) <= 1 {
		i++
	}
	if i >= len(parts) {
		return ""
	}
	return strings.ToUpper(strings.Join(parts[i:], " "))
}

// DecomposeFullName fills the structured name fields from Display using
// positional Hispanic order: apellido1 apellido2 nombre1 otros-nombres. It is
// a pure function of Display; it never fabricates parts.
func DecomposeFullName(fn *models.FullName) {
	if fn == nil || fn.Display == "" {
		return
	}
	parts := strings.Fields(fn.Display)
	switch {
	case len(parts) >= 4:
		fn.LastName = parts[0]
		fn.SecondLastName = parts[1]
		fn.FirstName = parts[2]
		fn.MiddleNames = strings.Join(parts[3:], " ")
	case len(parts) == 3:
		fn.LastName = parts[0]
		fn.SecondLastName = parts[1]
		fn.FirstName = parts[2]
	case len(parts) == 2:
		fn.LastName = parts[0]
		fn.FirstName = parts[1]
	case len(parts) == 1:
		fn.LastName = parts[0]
	}
}

// resolveFullName runs the name strategies in order: the longest uppercase
// block first, the label fallback second.
func resolveFullName(doc Document) *models.FullName {
	if block, ok := findUppercaseNameBlock(doc.Collapsed); ok {
		if fn := newFullName(block); fn != nil {
			return fn
		}
	}
	if byLabel, ok := findNameByLabels(doc.Collapsed); ok {
		return newFullName(byLabel)
	}
	return nil
}

// newFullName builds a FullName from a raw candidate string.
func newFullName(raw string) *models.FullName {
	display := cleanNameDisplay(raw)
	if display == "" {
		return nil
	}
	fn := &models.FullName{Display: display}
	DecomposeFullName(fn)
	return fn
}
