package rut

import (
	"fmt"
	"regexp"
	"strings"
)

// labelStrategy is one label-anchored candidate generator: a pattern whose
// first capture group yields the raw candidate, plus a validation predicate.
// Resolvers hold ordered slices of strategies so the fallback order is
// declarative and testable on its own.
type labelStrategy struct {
	id       string
	re       *regexp.Regexp
	validate func(cleaned string) bool
}

// apply runs the strategy against text and returns the digits-only candidate.
func (s labelStrategy) apply(text string) (string, bool) {
	m := s.re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	cleaned := runDigits(m[1])
	if s.validate != nil && !s.validate(cleaned) {
		return "", false
	}
	return cleaned, true
}

// runDigits extracts the digits of a captured run token by token. A token
// ending in "." is a form cell marker ("6. DV") and terminates the run so
// neighboring cell numbers do not bleed into the value.
func runDigits(run string) string {
	var b strings.Builder
	for _, tok := range strings.Fields(run) {
		if strings.HasSuffix(tok, ".") {
			break
		}
		d := digitsOnly(tok)
		if d == "" {
			break
		}
		b.WriteString(d)
	}
	return b.String()
}

// digitsAfterLabel builds the classic RUT pattern: label, a bounded lookahead
// window, then a run of digits possibly interleaved with spaces, periods and
// hyphens (the position-flattened grid the PDF extractor produces).
func digitsAfterLabel(id, label string, minDigits, maxDigits int) labelStrategy {
	// The trailing assertion keeps the greedy run from cutting a neighboring
	// cell number in half ("... 3 24." must not capture "... 3 2").
	re := regexp.MustCompile(fmt.Sprintf(`(?i)(?:%s)[\s\S]{0,50}?([0-9][0-9\s.\-]{%d,%d})(?:[^0-9.]|$)`,
		label, minDigits-1, maxDigits+10))
	return labelStrategy{
		id: id,
		re: re,
		validate: func(c string) bool {
			return len(c) >= minDigits && len(c) <= maxDigits+5
		},
	}
}

// digitRun matches grid-interleaved digit runs; standalone matches word-bounded
// plain tokens. Both feed allDigitCandidates.
var (
	reDigitRun = regexp.MustCompile(`[0-9][0-9\s.]{1,30}[0-9]`)
)

// allDigitCandidates returns every distinct digit run of the wanted length, in
// order of first appearance. Grid runs (digits separated by spaces/periods)
// come first, then standalone word-bounded tokens.
func allDigitCandidates(text string, minDigits, maxDigits int) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if len(s) >= minDigits && len(s) <= maxDigits && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, m := range reDigitRun.FindAllString(text, -1) {
		add(digitsOnly(m))
	}
	standalone := regexp.MustCompile(fmt.Sprintf(`\b\d{%d,%d}\b`, minDigits, maxDigits))
	for _, m := range standalone.FindAllString(text, -1) {
		add(m)
	}
	return out
}

// firstDigitCandidate returns the first candidate of the wanted length.
func firstDigitCandidate(text string, minDigits, maxDigits int) (string, bool) {
	c := allDigitCandidates(text, minDigits, maxDigits)
	if len(c) == 0 {
		return "", false
	}
	return c[0], true
}

// singleDigitAfterLabel finds one digit within a short window after a label.
func singleDigitAfterLabel(text, label string) (string, bool) {
	re := regexp.MustCompile(`(?i)(?:` + label + `)[\s\S]{0,10}?([0-9])`)
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// window returns text[start-before : start+after] clamped to bounds.
func window(text string, start, before, after int) string {
	lo := start - before
	if lo < 0 {
		lo = 0
	}
	hi := start + after
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// gridPattern builds a regexp that matches the given digit sequence even when
// the extractor interleaved whitespace or periods between digits
// ("6201" -> "6\D*2\D*0\D*1" style).
func gridPattern(code string) *regexp.Regexp {
	var b strings.Builder
	for i, r := range code {
		if i > 0 {
			b.WriteString(`[\s.]?`)
		}
		b.WriteRune(r)
	}
	return regexp.MustCompile(b.String())
}
