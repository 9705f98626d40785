package invoice

import (
	"regexp"
	"strings"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

// Party blocks on electronic invoices. The representation prints the issuer
// under EMISOR and the customer under ADQUIRIENTE/CLIENTE/SEÑOR(ES); each
// block runs until the next section caption.
var (
	reIssuerBlock   = regexp.MustCompile(`(?is)EMISOR\s+(.*?)(?:ADQUIRIENTE|CLIENTE|DETALLE|ÍTEMS|ITEMS)`)
	reAcquirerBlock = regexp.MustCompile(`(?is)(?:ADQUIRIENTE|CLIENTE|SEÑOR\(ES\)|SENOR\(ES\))\s+(.*?)(?:DETALLE|ÍTEMS|ITEMS|TOTAL|SUBTOTAL|CUFE|Forma de Pago|Medio de Pago)`)

	rePartyNIT     = regexp.MustCompile(`(?i)NIT[.:\s]*([0-9][0-9.\-]{5,19})`)
	rePartyEmail   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	rePartyPhone   = regexp.MustCompile(`(?i)(?:Tel[eé]fono|Tel|Cel)[.:\s]*([\d][\d\s\-+()]{6,19})`)
	rePartyAddress = regexp.MustCompile(`(?i)Direcci[oó]n[.:\s]*([^\n]{5,80})`)
	rePartyName    = regexp.MustCompile(`(?i)(?:Raz[oó]n\s+social|Nombre)[.:\s]*([^\n]{3,80})`)
)

func extractIssuer(text string) *models.CompanyInfo {
	m := reIssuerBlock.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return extractParty(m[1])
}

func extractAcquirer(text string) *models.CompanyInfo {
	m := reAcquirerBlock.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return extractParty(m[1])
}

// extractParty reads the common company fields out of one party block. A
// block with no recognizable field at all yields nil.
func extractParty(block string) *models.CompanyInfo {
	info := &models.CompanyInfo{}
	if m := rePartyNIT.FindStringSubmatch(block); m != nil {
		info.NIT = strings.Map(keepDigit, m[1])
	}
	info.Email = rePartyEmail.FindString(block)
	if m := rePartyPhone.FindStringSubmatch(block); m != nil {
		info.Phone = strings.TrimSpace(m[1])
	}
	if m := rePartyAddress.FindStringSubmatch(block); m != nil {
		info.Address = strings.TrimSpace(m[1])
	}
	info.Name = extractPartyName(block)

	if info.NIT == "" && info.Name == "" && info.Email == "" {
		return nil
	}
	return info
}

// extractPartyName prefers a labeled name and falls back to the text before
// the NIT label, which is where the representation prints the legal name.
func extractPartyName(block string) string {
	if m := rePartyName.FindStringSubmatch(block); m != nil {
		return cleanPartyName(m[1])
	}
	if loc := rePartyNIT.FindStringIndex(block); loc != nil && loc[0] > 0 {
		return cleanPartyName(block[:loc[0]])
	}
	for _, line := range strings.Split(block, "\n") {
		if name := cleanPartyName(line); name != "" {
			return name
		}
	}
	return ""
}

func cleanPartyName(s string) string {
	s = strings.TrimSpace(regexp.MustCompile(`\s+`).ReplaceAllString(s, " "))
	s = strings.Trim(s, ".:-")
	if len(s) < 3 || rePartyEmail.MatchString(s) {
		return ""
	}
	return strings.TrimSpace(s)
}

func keepDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}
