package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/extractorCO/rut-extractor-service/internal/rut"
)

// regionRect is a fixed region of the form's first page expressed as ratios
// of the page size, measured from the top-left corner.
type regionRect struct {
	x, y, w, h float64
}

// First-page cell positions of the DIAN RUT form (formato 001).
var rutRegions = struct {
	formNumber regionRect
	nit        regionRect
	names      regionRect
	address    regionRect
	postal     regionRect
}{
	formNumber: regionRect{0.72, 0.78, 0.22, 0.06},
	nit:        regionRect{0.02, 0.58, 0.38, 0.06},
	names:      regionRect{0.03, 0.50, 0.94, 0.12},
	address:    regionRect{0.03, 0.40, 0.90, 0.07},
	postal:     regionRect{0.20, 0.36, 0.14, 0.05},
}

// AreaExtractor reads fixed form cells from the first page. It is the backup
// source for fields the text pass misses.
type AreaExtractor struct{}

func NewAreaExtractor() *AreaExtractor {
	return &AreaExtractor{}
}

// Regions extracts the overlay cells. Documents without positioned glyphs
// yield an empty overlay, not an error.
func (e *AreaExtractor) Regions(data []byte) (_ rut.Overlay, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf region extraction: %v", r)
		}
	}()

	var ov rut.Overlay
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ov, fmt.Errorf("open pdf: %w", err)
	}
	if r.NumPage() < 1 {
		return ov, nil
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return ov, nil
	}
	texts := page.Content().Text
	if len(texts) == 0 {
		return ov, nil
	}

	left, right, top, bottom := glyphBounds(texts)
	width, height := right-left, top-bottom
	if width <= 0 || height <= 0 {
		return ov, nil
	}

	read := func(rect regionRect) string {
		// Ratio rects measure from the top; glyph Y grows upward.
		x0 := left + rect.x*width
		x1 := x0 + rect.w*width
		y1 := top - rect.y*height
		y0 := y1 - rect.h*height
		return collectRegion(texts, x0, x1, y0, y1)
	}

	ov.FormNumber = read(rutRegions.formNumber)
	ov.NIT = read(rutRegions.nit)
	ov.Names = read(rutRegions.names)
	ov.Address = read(rutRegions.address)
	ov.Postal = read(rutRegions.postal)
	return ov, nil
}

func glyphBounds(texts []pdf.Text) (left, right, top, bottom float64) {
	left, right = texts[0].X, texts[0].X+texts[0].W
	top, bottom = texts[0].Y, texts[0].Y
	for _, t := range texts[1:] {
		if t.X < left {
			left = t.X
		}
		if t.X+t.W > right {
			right = t.X + t.W
		}
		if t.Y > top {
			top = t.Y
		}
		if t.Y < bottom {
			bottom = t.Y
		}
	}
	return left, right, top, bottom
}

// collectRegion joins the glyphs whose anchor falls inside the rect, in
// reading order.
func collectRegion(texts []pdf.Text, x0, x1, y0, y1 float64) string {
	var hit []pdf.Text
	for _, t := range texts {
		if t.X >= x0 && t.X <= x1 && t.Y >= y0 && t.Y <= y1 {
			hit = append(hit, t)
		}
	}
	if len(hit) == 0 {
		return ""
	}
	sort.SliceStable(hit, func(i, j int) bool {
		if diff := hit[i].Y - hit[j].Y; diff > rowTolerance || diff < -rowTolerance {
			return hit[i].Y > hit[j].Y
		}
		return hit[i].X < hit[j].X
	})
	var b strings.Builder
	lastEnd := 0.0
	lastY := hit[0].Y
	for i, t := range hit {
		if i > 0 {
			if lastY-t.Y > rowTolerance || t.X-lastEnd > t.FontSize*0.3 {
				b.WriteString(" ")
			}
		}
		b.WriteString(t.S)
		lastEnd = t.X + t.W
		lastY = t.Y
	}
	return strings.TrimSpace(b.String())
}
