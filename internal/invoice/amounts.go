package invoice

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// moneyToken matches the Colombian invoice money shapes: optional dollar
// sign, thousands groups with "." or ",", optional decimal tail.
const moneyToken = `[$]?\s*([0-9]{1,3}(?:[.,][0-9]{3})*(?:[.,][0-9]{1,2})?)`

var (
	reSubtotal = regexp.MustCompile(`(?i)SUBTOTAL[^0-9$]{0,20}` + moneyToken)
	reTaxable  = regexp.MustCompile(`(?i)(?:BASE\s+(?:IMPONIBLE|GRAVABLE)|MONTO\s+GRAVABLE)[^0-9$]{0,20}` + moneyToken)
	reTotalTax = regexp.MustCompile(`(?i)(?:TOTAL\s+IMPUESTOS?|IVA)[^0-9$%]{0,20}` + moneyToken)
	reTotal    = regexp.MustCompile(`(?i)\bTOTAL\b[^0-9$]{0,20}` + moneyToken)
	reAnyMoney = regexp.MustCompile(`\$\s*([0-9]{1,3}(?:[.,][0-9]{3})*(?:[.,][0-9]{1,2})?)`)
)

// parseMoney converts a raw money token to a decimal. Separator roles are
// ambiguous in the wild: when the last comma sits after the last period the
// comma is the decimal mark (Latin style 1.234,56), otherwise the period is
// (1,234.56) and commas group thousands.
func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	lastComma := strings.LastIndex(s, ",")
	lastPeriod := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastComma > lastPeriod:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastPeriod >= 0 && lastPeriod > lastComma:
		s = strings.ReplaceAll(s, ",", "")
		// A three-digit tail after the period is a thousands group
		// (1.000.000), a shorter one is the decimal part (1234.56).
		if tail := len(s) - strings.LastIndex(s, ".") - 1; tail == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

func findMoney(re *regexp.Regexp, text string) *decimal.Decimal {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	d, err := parseMoney(m[1])
	if err != nil {
		return nil
	}
	return &d
}

// findGrandTotal locates the invoice total, skipping SUBTOTAL labels.
// Totals under 100 pesos are treated as misreads and retried with the
// largest money token in the text.
func findGrandTotal(text string) *decimal.Decimal {
	upper := strings.ToUpper(text)
	for _, loc := range reTotal.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] >= 3 && upper[loc[0]-3:loc[0]] == "SUB" {
			continue
		}
		// "TOTAL IMPUESTOS" is the tax line, not the grand total.
		if strings.Contains(upper[loc[0]:loc[1]], "IMPUESTO") {
			continue
		}
		d, err := parseMoney(text[loc[2]:loc[3]])
		if err != nil {
			continue
		}
		if d.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return &d
		}
	}
	return largestMoney(text)
}

// largestMoney returns the biggest dollar-prefixed amount in the text.
func largestMoney(text string) *decimal.Decimal {
	var best *decimal.Decimal
	for _, m := range reAnyMoney.FindAllStringSubmatch(text, -1) {
		d, err := parseMoney(m[1])
		if err != nil {
			continue
		}
		if best == nil || d.GreaterThan(*best) {
			v := d
			best = &v
		}
	}
	return best
}
