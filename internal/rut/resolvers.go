package rut

import (
	"regexp"
	"strings"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

// Default values and literal form vocabulary. The natural-person defaults
// apply only when the text carries the citizen-ID or natural-person phrases,
// or when a 10-digit document number implies them.
const (
	defaultDocumentType    = "Cédula de Ciudadanía"
	defaultContributorType = "Persona natural o sucesión ilíquida"
	sourceDIANRut          = "DIAN-RUT"
)

var (
	reElevenDigits = regexp.MustCompile(`\b\d{11}\b`)
	reTenDigits    = regexp.MustCompile(`\b\d{10}\b`)
	reFourDigits   = regexp.MustCompile(`\b\d{4}\b`)
	reEmail        = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	reAddress      = regexp.MustCompile(`(?i)(CR\s*\d{1,3}[^\n]{0,80})`)
	reDianSection  = regexp.MustCompile(`(?i)(Impuestos de [\p{L}\s.\-]{3,60})`)
	reDVNearNIT    = regexp.MustCompile(`(?i)DV\W*[:\-]?\s*(\d)`)
	reStandalone1  = regexp.MustCompile(`\b(\d)\b`)

	reDocNumLabel = regexp.MustCompile(`(?i)(?:C\.?C\.?|C[eé]dula|No\.?\s*Documento|N[uú]mero\s+de\s+documento)[\s:.\-]{0,20}([0-9][0-9\s.]{8,30})(?:[^0-9.]|$)`)
)

// formNumberStrategies resolve the "Número de formulario" in label-first
// order, falling back to the first plausible digit run.
var formNumberStrategies = []labelStrategy{
	digitsAfterLabel("form-label", `N[uú]mero\s+de\s+formulario`, 9, 12),
}

func resolveFormNumber(doc Document) string {
	for _, s := range formNumberStrategies {
		if v, ok := s.apply(doc.Collapsed); ok {
			return normalizeFormNumber(v, doc.Collapsed)
		}
	}
	if v, ok := firstDigitCandidate(doc.Collapsed, 9, 12); ok {
		return normalizeFormNumber(v, doc.Collapsed)
	}
	return ""
}

// normalizeFormNumber nudges a candidate toward the canonical 11-digit shape:
// prefer a standalone 11-digit token elsewhere in the text, truncate
// over-long runs, keep short ones as-is.
func normalizeFormNumber(candidate, text string) string {
	if len(candidate) == 11 {
		return candidate
	}
	for _, m := range reElevenDigits.FindAllString(text, -1) {
		if m != candidate {
			return m
		}
	}
	if len(candidate) > 11 {
		return candidate[:11]
	}
	return candidate
}

var nitStrategies = []labelStrategy{
	digitsAfterLabel("nit-long-label", `N[uú]mero\s+de\s+Identificaci[oó]n\s+Tributaria`, 9, 12),
	{
		id: "nit-bare-label",
		re: regexp.MustCompile(`(?i)\bNIT\b[:\s\-]*([0-9][0-9 .\-]{8,14})(?:[^0-9.]|$)`),
		validate: func(d string) bool {
			return len(d) >= 9 && len(d) <= 12
		},
	},
}

// resolveNIT finds the tax identification number: labels first, then any
// digit candidate that is not the form number, preferring 11-digit runs.
func resolveNIT(doc Document, formNumber string) string {
	for _, s := range nitStrategies {
		if v, ok := s.apply(doc.Collapsed); ok {
			return v
		}
	}
	candidates := allDigitCandidates(doc.Collapsed, 9, 12)
	for _, c := range candidates {
		if c != formNumber && len(c) == 11 {
			return c
		}
	}
	for _, c := range candidates {
		if c != formNumber {
			return c
		}
	}
	return ""
}

// resolveCheckDigit finds the DV. An 11-digit NIT carries its own check digit
// as the trailing position, which overrides anything label-derived.
func resolveCheckDigit(doc Document, nit string) string {
	if len(nit) == 11 {
		return nit[10:]
	}
	if v, ok := singleDigitAfterLabel(doc.Collapsed, `DV`); ok {
		return v
	}
	if nit != "" {
		if idx := strings.Index(doc.Collapsed, nit); idx >= 0 {
			win := window(doc.Collapsed, idx+len(nit), 40, 40)
			if m := reDVNearNIT.FindStringSubmatch(win); m != nil {
				return m[1]
			}
			for _, m := range reStandalone1.FindAllStringSubmatch(win, -1) {
				if m[1] != "0" {
					return m[1]
				}
			}
		}
	}
	return ""
}

// resolveDocumentNumber finds the citizen-id number behind the NIT. An
// 11-digit NIT decomposes as ten document digits plus the check digit; the
// standalone passes cover forms where only the cédula is printed.
func resolveDocumentNumber(doc Document, nit, formNumber string) string {
	if len(nit) == 11 {
		return nit[:10]
	}
	if v := tenDigitNotIn(doc.Collapsed, nit, formNumber); v != "" {
		return v
	}
	combined := doc.Raw + "\n" + doc.Collapsed
	if v := tenDigitNotIn(combined, nit, formNumber); v != "" {
		return v
	}
	if m := reDocNumLabel.FindStringSubmatch(combined); m != nil {
		if inner := reTenDigits.FindString(m[1]); inner != "" {
			return inner
		}
		if d := runDigits(m[1]); len(d) >= 10 {
			return d[len(d)-10:]
		}
	}
	return reTenDigits.FindString(combined)
}

func tenDigitNotIn(text, nit, formNumber string) string {
	for _, m := range reTenDigits.FindAllString(text, -1) {
		if m == formNumber {
			continue
		}
		if nit != "" && strings.Contains(nit, m) {
			continue
		}
		return m
	}
	return ""
}

// resolveCaptionAfterLabel returns up to maxWords normalized words following
// an accent-insensitive label, within tailLen characters.
func resolveCaptionAfterLabel(doc Document, label string, tailLen, maxWords int) string {
	idx := indexFold(doc.Collapsed, label)
	if idx < 0 {
		return ""
	}
	tail := doc.Collapsed[idx:]
	if len(tail) > len(label)+tailLen {
		tail = tail[:len(label)+tailLen]
	}
	tail = tail[min(len(label), len(tail)):]
	tail = strings.TrimSpace(reNonLetter.ReplaceAllString(tail, " "))
	words := strings.Fields(tail)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

// resolveDocumentType reads the "Tipo de documento" field. A citizen-ID
// phrase anywhere in the text wins; an unrecognized caption is kept verbatim
// as its first normalized words; with no caption at all the citizen-ID
// default applies only when a 10-digit document number was resolved.
// Otherwise the field stays unset.
func resolveDocumentType(doc Document, documentNumber string) string {
	if strings.Contains(doc.AlphaLowerNoAccents, "cedula") {
		return defaultDocumentType
	}
	if caption := resolveCaptionAfterLabel(doc, "tipo de documento", 60, 6); caption != "" {
		if strings.Contains(RemoveAccents(strings.ToLower(caption)), "cedula") {
			return defaultDocumentType
		}
		return strings.ToLower(caption)
	}
	if len(digitsOnly(documentNumber)) == 10 {
		return defaultDocumentType
	}
	return ""
}

// resolveContributorType mirrors the document-type chain for "Tipo de
// contribuyente"; a citizen-ID document type implies a natural person.
func resolveContributorType(doc Document, documentType string) string {
	if strings.Contains(doc.AlphaLowerNoAccents, "persona natural") {
		return defaultContributorType
	}
	if caption := resolveCaptionAfterLabel(doc, "tipo de contribuyente", 80, 6); caption != "" {
		if strings.Contains(RemoveAccents(strings.ToLower(caption)), "persona natural") {
			return defaultContributorType
		}
		return strings.ToLower(caption)
	}
	if strings.Contains(RemoveAccents(strings.ToLower(documentType)), "cedula") {
		return defaultContributorType
	}
	return ""
}

// resolvePostalCode reads the postal code from the "Código postal" cell.
// The form renders it as a spaced digit grid, so the last four digits of the
// grid win over a literal 4-digit token.
func resolvePostalCode(doc Document) string {
	idx := indexFold(doc.Collapsed, "codigo postal")
	if idx >= 0 {
		tail := window(doc.Collapsed, idx, 0, 120)
		if d := postalGridDigits(tail); d != "" {
			return d[len(d)-4:]
		}
	}
	return reFourDigits.FindString(doc.Collapsed)
}

// resolveRawPostalOverride reads the postal grid straight out of the raw
// positional text near the form's "43." cell number. The raw grid is more
// reliable than the collapsed view and overrides it when present.
func resolveRawPostalOverride(raw string) string {
	for _, marker := range []string{"43.", "43 "} {
		idx := strings.Index(raw, marker)
		if idx < 0 {
			continue
		}
		win := window(raw, idx+len(marker), 0, 120)
		if d := postalGridDigits(win); d != "" {
			return d[len(d)-4:]
		}
	}
	if d := postalGridDigits(raw); d != "" {
		return d[len(d)-4:]
	}
	return ""
}

// postalGridDigits scans whitespace tokens for a consecutive run of pure
// digit tokens totalling four to six digits. Cell markers ("44.") and any
// other non-digit token break the run, so the grid of a neighboring form
// cell never bleeds into the postal code.
func postalGridDigits(s string) string {
	var run strings.Builder
	flush := func() string {
		d := run.String()
		run.Reset()
		if len(d) >= 4 && len(d) <= 6 {
			return d
		}
		return ""
	}
	for _, tok := range strings.Fields(s) {
		if digitsOnly(tok) != tok {
			if d := flush(); d != "" {
				return d
			}
			continue
		}
		run.WriteString(tok)
	}
	return flush()
}

// resolveGeography fills country, department and city from the literals the
// DIAN form prints for the registrant's location.
func resolveGeography(doc Document, res *models.RutResult) {
	upper := strings.ToUpper(doc.Collapsed)
	upperFolded := RemoveAccents(upper)
	if strings.Contains(upperFolded, "COLOMBIA") {
		res.Country = "COLOMBIA"
	}
	if strings.Contains(upperFolded, "NORTE DE SANTANDER") {
		res.Department = "Norte de Santander"
	}
	if strings.Contains(upperFolded, "OCANA") || strings.Contains(upper, "OCAÑA") || strings.Contains(upperFolded, "OCA") {
		res.City = "Ocaña"
	}
}

func resolveEmail(doc Document) string {
	return reEmail.FindString(doc.Collapsed + " " + doc.Raw)
}

// resolveAddress captures a street address starting at a CR (carrera) token,
// truncated at the next form cell marker.
func resolveAddress(doc Document) string {
	m := reAddress.FindStringSubmatch(doc.Collapsed)
	if m == nil {
		return ""
	}
	addr := m[1]
	stops := []string{"Correo electr", "correo electr", "42.", "43.", "44."}
	for _, stop := range stops {
		if i := strings.Index(addr, stop); i >= 0 {
			addr = addr[:i]
		}
	}
	return strings.TrimSpace(reWhitespace.ReplaceAllString(addr, " "))
}

// resolveDianSectional captures the issuing DIAN office ("Impuestos de
// Cúcuta") with the frequent trailing bleed from the next cell removed.
func resolveDianSectional(doc Document) string {
	m := reDianSection.FindStringSubmatch(doc.Collapsed)
	if m == nil {
		return ""
	}
	section := m[1]
	if i := regexp.MustCompile(`(?i)IDENTIFIC`).FindStringIndex(section); i != nil {
		section = section[:i[0]]
	}
	return strings.TrimSpace(section)
}

// responsibilityCatalog maps the DIAN responsibility codes this service
// recognizes to their captions.
var responsibilityCatalog = []models.ResponsibilityEntry{
	{Code: "05", Description: "Impto. renta y compl. régimen ordinario"},
	{Code: "49", Description: "No responsable de IVA"},
}

func resolveResponsibilities(doc Document) []models.ResponsibilityEntry {
	out := []models.ResponsibilityEntry{}
	for _, r := range responsibilityCatalog {
		if strings.Contains(doc.Collapsed, r.Code) {
			out = append(out, r)
		}
	}
	return out
}

func resolveSource(doc Document) string {
	upper := strings.ToUpper(doc.Collapsed)
	if strings.Contains(upper, "RUT") || strings.Contains(upper, "DIAN") {
		return sourceDIANRut
	}
	return ""
}
