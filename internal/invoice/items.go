package invoice

import (
	"log"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

var (
	// The line-item table sits between the column header row and the
	// totals section.
	reItemsBlock = regexp.MustCompile(`(?is)(?:Recargos\s+Total|Precio\s+unitario.*?Total)\s+(.*?)\s+(?:SUBTOTAL|FORMA\s+Y\s+M[EÉ]TODO)`)

	// One table row: code, description, two count columns, unit price,
	// unit of measure, tax rate, tax amount.
	reItemRow = regexp.MustCompile(`(\d+)\s+(.*?)\s+(\d+)\s+(\d+)\s+\$\s*([0-9.,]+)\s+([A-Za-z]+)\s+\d+%\s+\$\s*([0-9.,]+)`)
)

// extractItems parses the line-item table. Rows that do not parse cleanly
// are skipped and logged, never invented.
// The result slice is never nil; "items" serializes as [] when the table is
// absent.
func extractItems(text string) []models.InvoiceItem {
	items := []models.InvoiceItem{}
	m := reItemsBlock.FindStringSubmatch(text)
	if m == nil {
		return items
	}
	for _, row := range reItemRow.FindAllStringSubmatch(m[1], -1) {
		item, ok := parseItemRow(row)
		if !ok {
			log.Printf("[InvoiceParser] skipping malformed item row %q", strings.TrimSpace(row[0]))
			continue
		}
		items = append(items, item)
	}
	return items
}

func parseItemRow(row []string) (models.InvoiceItem, bool) {
	qty, err := decimal.NewFromString(row[3])
	if err != nil {
		return models.InvoiceItem{}, false
	}
	unitPrice, err := parseMoney(row[5])
	if err != nil {
		return models.InvoiceItem{}, false
	}
	tax, err := parseMoney(row[7])
	if err != nil {
		return models.InvoiceItem{}, false
	}
	desc := strings.TrimSpace(row[2])
	if desc == "" {
		return models.InvoiceItem{}, false
	}
	return models.InvoiceItem{
		Code:          row[1],
		Description:   desc,
		Quantity:      qty,
		UnitOfMeasure: row[6],
		UnitPrice:     unitPrice,
		TaxAmount:     tax,
		Total:         qty.Mul(unitPrice).Add(tax),
	}, true
}
