package pdf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// rowTolerance is the max Y distance (in PDF units) between glyphs still
// considered the same visual row.
const rowTolerance = 2.0

// Extractor reads the full text of a PDF, reconstructing rows from glyph
// positions so that form grids keep their spacing.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Text returns the document text, pages separated by newlines. Malformed
// documents yield an error instead of a panic.
func (e *Extractor) Text(data []byte) (_ string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf text extraction: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		texts := page.Content().Text
		if len(texts) == 0 {
			continue
		}
		b.WriteString(flattenRows(texts))
		b.WriteString("\n")
	}
	if b.Len() > 0 {
		return b.String(), nil
	}

	// Pages without positioned content fall back to the plain stream.
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("plain text fallback: %w", err)
	}
	raw, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read plain text: %w", err)
	}
	return string(raw), nil
}

// flattenRows groups glyphs into rows by Y (top of page first), sorts each
// row left to right and joins glyphs with spaces where gaps exist.
func flattenRows(texts []pdf.Text) string {
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > rowTolerance || diff < -rowTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var b strings.Builder
	lastY := sorted[0].Y
	lastEnd := 0.0
	for i, t := range sorted {
		if i > 0 {
			if lastY-t.Y > rowTolerance {
				b.WriteString("\n")
				lastEnd = 0
			} else if t.X-lastEnd > t.FontSize*0.3 {
				b.WriteString(" ")
			}
		}
		b.WriteString(t.S)
		lastY = t.Y
		lastEnd = t.X + t.W
	}
	return b.String()
}
