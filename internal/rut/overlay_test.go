package rut

import (
	"testing"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

func TestApplyOverlayNeverOverwrites(t *testing.T) {
	res := models.NewRutResult()
	res.NIT = "123456789"
	res.FormNumber = "14824701795"
	res.Address = "CR 16 8 109"
	res.PostalCode = "5498"
	res.FullName = &models.FullName{Display: "SANCHEZ PACHECO"}

	applyOverlay(res, Overlay{
		NIT:        "999999999",
		FormNumber: "11111111111",
		Names:      "OTRO NOMBRE",
		Address:    "CL 99 1 23",
		Postal:     "1111",
	})

	if res.NIT != "123456789" {
		t.Errorf("nit = %q, overlay must not overwrite", res.NIT)
	}
	if res.FormNumber != "14824701795" {
		t.Errorf("formNumber = %q, overlay must not overwrite", res.FormNumber)
	}
	if res.FullName.Display != "SANCHEZ PACHECO" {
		t.Errorf("fullName = %q, overlay must not overwrite", res.FullName.Display)
	}
	if res.Address != "CR 16 8 109" {
		t.Errorf("address = %q, overlay must not overwrite", res.Address)
	}
	if res.PostalCode != "5498" {
		t.Errorf("postalCode = %q, overlay must not overwrite", res.PostalCode)
	}
}

func TestApplyOverlayFillsEmptyFields(t *testing.T) {
	res := models.NewRutResult()
	applyOverlay(res, Overlay{
		NIT:        "9 0 0 1 2 3 4 5 6",
		FormNumber: "14824701795",
		Names:      "SANCHEZ PACHECO EDUAR LEONARDO",
		Address:    "CR 16  8  109",
		Postal:     "5 5 4 9 8",
	})

	if res.NIT != "900123456" {
		t.Errorf("nit = %q, want digits only", res.NIT)
	}
	if res.FormNumber != "14824701795" {
		t.Errorf("formNumber = %q", res.FormNumber)
	}
	if res.FullName == nil || res.FullName.Display != "SANCHEZ PACHECO EDUAR LEONARDO" {
		t.Errorf("fullName = %+v", res.FullName)
	}
	if res.FullName != nil && res.FullName.LastName != "SANCHEZ" {
		t.Errorf("lastName = %q, want SANCHEZ", res.FullName.LastName)
	}
	if res.Address != "CR 16 8 109" {
		t.Errorf("address = %q, want collapsed whitespace", res.Address)
	}
	if res.PostalCode != "5498" {
		t.Errorf("postalCode = %q, want trailing four digits", res.PostalCode)
	}
}

func TestApplyOverlayRejectsImplausibleValues(t *testing.T) {
	res := models.NewRutResult()
	applyOverlay(res, Overlay{NIT: "12", Address: "x", Postal: "9"})
	if res.NIT != "" || res.Address != "" || res.PostalCode != "" {
		t.Fatalf("overlay noise leaked: %+v", res)
	}
}
