package rut

import (
	"strings"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

// Overlay carries values read from fixed regions of the form's first page.
// Region extraction is noisier than full-text extraction, so the overlay only
// fills fields the primary pass left empty, never overwrites.
type Overlay struct {
	FormNumber string
	NIT        string
	Names      string
	Address    string
	Postal     string
}

func applyOverlay(res *models.RutResult, ov Overlay) {
	if res.FormNumber == "" {
		if d := digitsOnly(ov.FormNumber); len(d) >= 9 && len(d) <= 12 {
			res.FormNumber = d
		}
	}
	if res.NIT == "" {
		if d := digitsOnly(ov.NIT); len(d) >= 9 && len(d) <= 12 {
			res.NIT = d
		}
	}
	if res.FullName == nil || res.FullName.Display == "" {
		if fn := newFullName(ov.Names); fn != nil {
			res.FullName = fn
		}
	}
	if res.Address == "" {
		if a := strings.TrimSpace(reWhitespace.ReplaceAllString(ov.Address, " ")); len(a) >= 5 {
			res.Address = a
		}
	}
	if res.PostalCode == "" {
		if d := digitsOnly(ov.Postal); len(d) >= 4 {
			res.PostalCode = d[len(d)-4:]
		}
	}
}
