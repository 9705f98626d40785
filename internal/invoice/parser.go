package invoice

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

// TextExtractor turns PDF bytes into text. The PDF package implementation
// satisfies it.
type TextExtractor interface {
	Text(data []byte) (string, error)
}

var (
	reInvoiceNumber = regexp.MustCompile(`(?i)No\.\s*([A-Z0-9-]{2,20})`)
	reIssueDate     = regexp.MustCompile(`(?i)(?:EXPEDICI[OÓ]N|Fecha)\s*:?\s*(\d{2}[-/][A-Za-z]{3}[-/]\d{4}|\d{4}[-/]\d{2}[-/]\d{2})(?:\s+(\d{1,2}:\d{2}(?:[AP]M)?))?`)
	reExpiration    = regexp.MustCompile(`(?i)(?:Vencimiento|Vence)\s*:?\s*(\d{2}[-/][A-Za-z]{3}[-/]\d{4}|\d{4}[-/]\d{2}[-/]\d{2})`)
	reCUFE          = regexp.MustCompile(`\b([0-9a-fA-F]{40,})\b`)
)

// spanishMonths maps the three-letter month abbreviations printed on DIAN
// invoice representations (Spanish first, English accepted too).
var spanishMonths = map[string]string{
	"ene": "01", "feb": "02", "mar": "03", "abr": "04",
	"may": "05", "jun": "06", "jul": "07", "ago": "08",
	"sep": "09", "oct": "10", "nov": "11", "dic": "12",
	"jan": "01", "apr": "04", "aug": "08", "dec": "12",
}

// Parser extracts structured fields from electronic invoice representations.
// Stateless, safe for concurrent use.
type Parser struct {
	text TextExtractor
}

func NewParser(text TextExtractor) *Parser {
	return &Parser{text: text}
}

// Parse extracts every field from the PDF bytes; text extraction failure is
// the only way to lose the whole document, so it is logged and yields an
// empty result.
func (p *Parser) Parse(data []byte, filename string) *models.InvoiceResult {
	raw := ""
	if p.text != nil {
		t, err := p.text.Text(data)
		if err != nil {
			log.Printf("[InvoiceParser] text extraction failed for %s: %v", filename, err)
		} else {
			raw = t
		}
	}
	return p.ParseText(raw)
}

// ParseText runs the pipeline over already-extracted text.
func (p *Parser) ParseText(text string) *models.InvoiceResult {
	res := models.NewInvoiceResult()
	if strings.TrimSpace(text) == "" {
		return res
	}
	collapsedOnce := regexp.MustCompile(`[ \t]+`).ReplaceAllString(text, " ")

	if m := reInvoiceNumber.FindStringSubmatch(collapsedOnce); m != nil {
		res.InvoiceNumber = m[1]
	}
	if m := reIssueDate.FindStringSubmatch(collapsedOnce); m != nil {
		res.IssueDate = normalizeInvoiceDate(m[1])
		if m[2] != "" {
			res.IssueTime = normalizeInvoiceTime(m[2])
		}
	}
	if m := reExpiration.FindStringSubmatch(collapsedOnce); m != nil {
		res.ExpirationDate = normalizeInvoiceDate(m[1])
	}
	if m := reCUFE.FindStringSubmatch(collapsedOnce); m != nil {
		res.CUFE = strings.ToLower(m[1])
	}

	res.PaymentForm, res.PaymentMethod = resolvePayment(collapsedOnce)
	res.Currency = resolveCurrency(collapsedOnce)

	res.Issuer = extractIssuer(text)
	res.Acquirer = extractAcquirer(text)
	res.Items = extractItems(text)

	res.Subtotal = findMoney(reSubtotal, collapsedOnce)
	res.TaxableAmount = findMoney(reTaxable, collapsedOnce)
	res.TotalTax = findMoney(reTotalTax, collapsedOnce)
	res.TotalAmount = findGrandTotal(collapsedOnce)
	return res
}

// normalizeInvoiceDate converts 25-Abr-2022 or 2022-04-25 (either separator)
// to ISO YYYY-MM-DD. Unknown month abbreviations keep the raw token.
func normalizeInvoiceDate(raw string) string {
	s := strings.ReplaceAll(raw, "/", "-")
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return raw
	}
	if len(parts[0]) == 4 {
		return s
	}
	month, ok := spanishMonths[strings.ToLower(parts[1])]
	if !ok {
		if len(parts[1]) == 2 {
			month = parts[1]
		} else {
			return raw
		}
	}
	return fmt.Sprintf("%s-%s-%s", parts[2], month, parts[0])
}

// normalizeInvoiceTime converts H:MM with optional AM/PM to 24-hour HH:MM.
func normalizeInvoiceTime(raw string) string {
	m := regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})(AM|PM)?$`).FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return raw
	}
	hh := m[1]
	h := 0
	fmt.Sscanf(hh, "%d", &h)
	switch strings.ToUpper(m[3]) {
	case "PM":
		if h < 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	return fmt.Sprintf("%02d:%s", h, m[2])
}

// resolvePayment reads the payment form (cash vs credit) and method.
func resolvePayment(text string) (form, method string) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "contado"):
		form = "Contado"
	case strings.Contains(lower, "crédito"), strings.Contains(lower, "credito"):
		form = "Crédito"
	}
	switch {
	case strings.Contains(lower, "efectivo"):
		method = "Efectivo"
	case strings.Contains(lower, "transferencia"):
		method = "Transferencia"
	}
	return form, method
}

func resolveCurrency(text string) string {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "peso") || strings.Contains(lower, "cop") {
		return "COP"
	}
	if strings.Contains(text, "$") {
		return "COP"
	}
	return ""
}
