package rut

import (
	"testing"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

func TestResolveNITDecomposition(t *testing.T) {
	doc := Normalize("5. Número de Identificación Tributaria (NIT) 6. DV 1 0 9 1 6 5 8 5 5 1 3 24. Tipo")
	nit := resolveNIT(doc, "")
	if nit != "10916585513" {
		t.Fatalf("nit = %q, want %q", nit, "10916585513")
	}
	if dv := resolveCheckDigit(doc, nit); dv != "3" {
		t.Fatalf("dv = %q, want %q", dv, "3")
	}
	if dn := resolveDocumentNumber(doc, nit, ""); dn != "1091658551" {
		t.Fatalf("documentNumber = %q, want %q", dn, "1091658551")
	}
}

func TestResolveNITSkipsFormNumber(t *testing.T) {
	doc := Normalize("sin etiquetas 14824701795 y luego 9 0 0 1 2 3 4 5 6 7 8")
	nit := resolveNIT(doc, "14824701795")
	if nit != "90012345678" {
		t.Fatalf("nit = %q, want %q", nit, "90012345678")
	}
}

func TestNormalizeFormNumber(t *testing.T) {
	tests := []struct {
		candidate string
		text      string
		want      string
	}{
		{"14824701795", "", "14824701795"},
		{"148247017951", "ruido 14824701795 ruido", "14824701795"},
		{"148247017951234", "sin token de once", "14824701795"},
		{"148247017", "", "148247017"},
	}
	for _, tt := range tests {
		if got := normalizeFormNumber(tt.candidate, tt.text); got != tt.want {
			t.Errorf("normalizeFormNumber(%q, %q) = %q, want %q", tt.candidate, tt.text, got, tt.want)
		}
	}
}

func TestResolvePostalCode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"grid", "43. Código postal 5 5 4 9 8 44. Teléfono 1 6075895551", "5498"},
		{"five digit token", "Código postal 54498 44. otro", "4498"},
		{"plain token", "otros campos 5498 más texto", "5498"},
		{"missing", "sin nada útil", ""},
	}
	for _, tt := range tests {
		if got := resolvePostalCode(Normalize(tt.text)); got != tt.want {
			t.Errorf("%s: resolvePostalCode = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolveRawPostalOverride(t *testing.T) {
	raw := "41. Dirección CR 16 8 109\n43. Código postal\n5 5 4 9 8\n44. Teléfono"
	if got := resolveRawPostalOverride(raw); got != "5498" {
		t.Fatalf("override = %q, want %q", got, "5498")
	}
}

func TestPostalGridDigitsStopsAtCellMarkers(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5 5 4 9 8 44. Teléfono", "55498"},
		{"texto 5498 texto", "5498"},
		{"1 0 9 1 6 5 8 5 5 1 3", ""},
		{"12 34", "1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := postalGridDigits(tt.in); got != tt.want {
			t.Errorf("postalGridDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveGeography(t *testing.T) {
	doc := Normalize("38. País COLOMBIA 39. Departamento Norte de Santander 40. Ciudad Ocaña")
	res := models.NewRutResult()
	resolveGeography(doc, res)
	if res.Country != "COLOMBIA" {
		t.Errorf("country = %q, want COLOMBIA", res.Country)
	}
	if res.Department != "Norte de Santander" {
		t.Errorf("department = %q, want Norte de Santander", res.Department)
	}
	if res.City != "Ocaña" {
		t.Errorf("city = %q, want Ocaña", res.City)
	}
}

func TestResolveAddress(t *testing.T) {
	doc := Normalize("41. Dirección principal CR 16 8 109 BRR SAN CAYETANO 42. Correo electrónico x@y.co")
	got := resolveAddress(doc)
	if got != "CR 16 8 109 BRR SAN CAYETANO" {
		t.Fatalf("address = %q, want %q", got, "CR 16 8 109 BRR SAN CAYETANO")
	}
}

func TestResolveResponsibilities(t *testing.T) {
	doc := Normalize("53. Responsabilidades 05 49")
	got := resolveResponsibilities(doc)
	if len(got) != 2 {
		t.Fatalf("responsibilities = %v, want codes 05 and 49", got)
	}
	if got[0].Code != "05" || got[1].Code != "49" {
		t.Fatalf("codes = %q, %q; want 05, 49", got[0].Code, got[1].Code)
	}
	if got[0].Description == "" || got[1].Description == "" {
		t.Fatal("responsibility descriptions must come from the catalog")
	}
}

func TestResolveDianSectional(t *testing.T) {
	doc := Normalize("12. Dirección seccional Impuestos de Cucuta 14. Buzón electrónico")
	if got := resolveDianSectional(doc); got != "Impuestos de Cucuta" {
		t.Fatalf("sectional = %q, want %q", got, "Impuestos de Cucuta")
	}
}

func TestResolveContributorType(t *testing.T) {
	natural := Normalize("24. Tipo de contribuyente Persona natural o sucesión ilíquida")
	if got := resolveContributorType(natural, ""); got != defaultContributorType {
		t.Fatalf("contributorType = %q, want %q", got, defaultContributorType)
	}

	// Unrecognized captions survive as the normalized label tail instead
	// of collapsing into the natural-person default.
	gran := Normalize("24. Tipo de contribuyente Gran contribuyente")
	if got := resolveContributorType(gran, ""); got != "gran contribuyente" {
		t.Fatalf("contributorType = %q, want gran contribuyente", got)
	}

	// A citizen-ID document type implies a natural person.
	bare := Normalize("texto sin etiquetas")
	if got := resolveContributorType(bare, defaultDocumentType); got != defaultContributorType {
		t.Fatalf("contributorType = %q, want %q", got, defaultContributorType)
	}
	if got := resolveContributorType(bare, ""); got != "" {
		t.Fatalf("contributorType = %q, want empty without any signal", got)
	}
}

func TestResolveDocumentType(t *testing.T) {
	cedula := Normalize("25. Tipo de documento Cédula de Ciudadanía")
	if got := resolveDocumentType(cedula, ""); got != defaultDocumentType {
		t.Fatalf("documentType = %q, want %q", got, defaultDocumentType)
	}

	pasaporte := Normalize("25. Tipo de documento Pasaporte")
	if got := resolveDocumentType(pasaporte, ""); got != "pasaporte" {
		t.Fatalf("documentType = %q, want pasaporte", got)
	}

	// A resolved 10-digit document number implies the citizen-ID default.
	bare := Normalize("texto sin etiquetas")
	if got := resolveDocumentType(bare, "1091658551"); got != defaultDocumentType {
		t.Fatalf("documentType = %q, want %q", got, defaultDocumentType)
	}
	if got := resolveDocumentType(bare, ""); got != "" {
		t.Fatalf("documentType = %q, want empty without any signal", got)
	}
}
