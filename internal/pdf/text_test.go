package pdf

import (
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
)

func glyph(s string, x, y, w float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w, FontSize: 10}
}

func TestFlattenRowsOrdersTopDownLeftRight(t *testing.T) {
	// Glyphs arrive in arbitrary order; Y grows upward, so the higher Y is
	// the first visual row.
	texts := []pdf.Text{
		glyph("formulario", 120, 700, 60),
		glyph("NIT", 10, 650, 20),
		glyph("Número", 10, 700, 40),
		glyph("de", 60, 700, 15),
		glyph("10916585513", 40, 650, 70),
	}
	got := flattenRows(texts)
	want := "Número de formulario\nNIT 10916585513"
	if got != want {
		t.Fatalf("flattenRows = %q, want %q", got, want)
	}
}

func TestFlattenRowsKeepsGridSpacing(t *testing.T) {
	texts := []pdf.Text{
		glyph("1", 10, 500, 5),
		glyph("0", 30, 500, 5),
		glyph("9", 50, 500, 5),
	}
	got := flattenRows(texts)
	if got != "1 0 9" {
		t.Fatalf("flattenRows = %q, want %q", got, "1 0 9")
	}
}

func TestFlattenRowsJoinsAdjacentGlyphs(t *testing.T) {
	// Glyphs whose boxes touch belong to the same word.
	texts := []pdf.Text{
		glyph("For", 10, 500, 15),
		glyph("mulario", 25, 500, 35),
	}
	if got := flattenRows(texts); got != "Formulario" {
		t.Fatalf("flattenRows = %q, want %q", got, "Formulario")
	}
}

func TestFlattenRowsToleratesJitter(t *testing.T) {
	// A one-unit Y wobble stays in the same row.
	texts := []pdf.Text{
		glyph("hola", 10, 500.5, 20),
		glyph("mundo", 40, 499.6, 25),
	}
	got := flattenRows(texts)
	if strings.Contains(got, "\n") {
		t.Fatalf("flattenRows = %q, jittered glyphs must share a row", got)
	}
}

func TestTextRejectsGarbage(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Text([]byte("this is not a pdf")); err == nil {
		t.Fatal("expected an error for non-PDF input")
	}
}
