package rut

import (
	"errors"
	"strings"
	"testing"
)

// sampleRUT mimics the position-flattened text the PDF extractor produces for
// a natural-person registration form: digit grids, cell numbers and captions
// interleaved in reading order.
const sampleRUT = `Formulario del Registro Único Tributario - DIAN
4. Número de formulario 14824701795
5. Número de Identificación Tributaria (NIT) 6. DV
1 0 9 1 6 5 8 5 5 1 3
24. Tipo de contribuyente Persona natural o sucesión ilíquida
25. Tipo de documento Cédula de Ciudadanía
35. Nombre SANCHEZ PACHECO EDUAR LEONARDO
38. País COLOMBIA 39. Departamento Norte de Santander 40. Ciudad Ocaña
41. Dirección principal CR 16 8 109 BRR SAN CAYETANO
42. Correo electrónico leosanchez_19@hotmail.com
43. Código postal 5 5 4 9 8 44. Teléfono 1 6075895551
46. Código actividad económica 6 2 0 1 47. Fecha inicio actividad 2 0 2 2 0 3 1 5
53. Responsabilidades 05 49
12. Dirección seccional Impuestos de Cucuta 14. Buzón electrónico
Fecha expedición 25-04-2022
Fecha generación documento PDF 2022-04-25 / 15:31:12`

func TestParseTextFullDocument(t *testing.T) {
	p := NewParser(nil, nil, Options{})
	res := p.ParseText(sampleRUT)

	if res.Source != "DIAN-RUT" {
		t.Errorf("source = %q, want DIAN-RUT", res.Source)
	}
	if res.FormNumber != "14824701795" {
		t.Errorf("formNumber = %q, want 14824701795", res.FormNumber)
	}
	if res.NIT != "10916585513" {
		t.Errorf("nit = %q, want 10916585513", res.NIT)
	}
	if res.CheckDigit != "3" {
		t.Errorf("dv = %q, want 3", res.CheckDigit)
	}
	if res.DocumentNumber != "1091658551" {
		t.Errorf("documentNumber = %q, want 1091658551", res.DocumentNumber)
	}
	if res.ContributorType != "Persona natural o sucesión ilíquida" {
		t.Errorf("contributorType = %q", res.ContributorType)
	}
	if res.DocumentType != "Cédula de Ciudadanía" {
		t.Errorf("documentType = %q", res.DocumentType)
	}

	if res.FullName == nil {
		t.Fatal("fullName is nil")
	}
	if !strings.Contains(res.FullName.Display, "SANCHEZ PACHECO") ||
		!strings.Contains(res.FullName.Display, "EDUAR") {
		t.Errorf("fullName display = %q", res.FullName.Display)
	}
	if res.FullName.LastName != "SANCHEZ" || res.FullName.SecondLastName != "PACHECO" ||
		res.FullName.FirstName != "EDUAR" || res.FullName.MiddleNames != "LEONARDO" {
		t.Errorf("fullName decomposition = %+v", res.FullName)
	}

	if res.Email != "leosanchez_19@hotmail.com" {
		t.Errorf("email = %q", res.Email)
	}
	if !strings.Contains(res.Address, "CR 16") {
		t.Errorf("address = %q, want CR 16 prefix", res.Address)
	}
	if res.Country != "COLOMBIA" {
		t.Errorf("country = %q", res.Country)
	}
	if res.Department != "Norte de Santander" {
		t.Errorf("department = %q", res.Department)
	}
	if !strings.Contains(res.City, "Oca") {
		t.Errorf("city = %q", res.City)
	}
	if res.PostalCode != "5498" {
		t.Errorf("postalCode = %q, want 5498", res.PostalCode)
	}

	if res.IssueDate != "2022-04-25" {
		t.Errorf("issueDate = %q, want 2022-04-25", res.IssueDate)
	}
	if res.PDFGeneratedAt != "2022-04-25T15:31:12" {
		t.Errorf("pdfGeneratedAt = %q, want 2022-04-25T15:31:12", res.PDFGeneratedAt)
	}

	var activity6201 bool
	for _, a := range res.EconomicActivities {
		if a.Code == "6201" {
			activity6201 = true
			if a.StartDate != "2022-03-15" {
				t.Errorf("6201 startDate = %q, want 2022-03-15", a.StartDate)
			}
			if a.Description == "" {
				t.Error("6201 description is empty")
			}
		}
	}
	if !activity6201 {
		t.Errorf("economicActivities = %v, want code 6201", res.EconomicActivities)
	}

	if len(res.Responsibilities) != 2 {
		t.Fatalf("responsibilities = %v, want codes 05 and 49", res.Responsibilities)
	}

	if got := res.Raw["dianSectional"]; got != "Impuestos de Cucuta" {
		t.Errorf("dianSectional = %q", got)
	}
}

func TestParseTextKeepsUnknownTypeCaptions(t *testing.T) {
	p := NewParser(nil, nil, Options{})
	res := p.ParseText("5. NIT 900123456 24. Tipo de contribuyente Gran contribuyente 35. Razón social ACME SAS")

	if !strings.HasPrefix(res.ContributorType, "gran contribuyente") {
		t.Errorf("contributorType = %q, want the caption, not a default", res.ContributorType)
	}
	if res.DocumentType != "" {
		t.Errorf("documentType = %q, want empty without a citizen-ID signal", res.DocumentType)
	}
	if res.DocumentNumber != "" {
		t.Errorf("documentNumber = %q, want empty for a 9-digit NIT", res.DocumentNumber)
	}
}

func TestUnconditionalCodesEmptiedByOption(t *testing.T) {
	text := "cualquier texto con un 6 2 0 1 impreso en la rejilla del formulario"

	off := NewParser(nil, nil, Options{UnconditionalActivityCodes: []string{}})
	if got := off.ParseText(text).EconomicActivities; len(got) != 0 {
		t.Fatalf("activities = %v, want none with the unconditional set emptied", got)
	}

	def := NewParser(nil, nil, Options{})
	var found bool
	for _, e := range def.ParseText(text).EconomicActivities {
		if e.Code == "6201" {
			found = true
		}
	}
	if !found {
		t.Fatal("default options must keep accepting the 6201 grid")
	}
}

func TestParseTextEmptyInput(t *testing.T) {
	p := NewParser(nil, nil, Options{})
	res := p.ParseText("")
	if res == nil {
		t.Fatal("result must never be nil")
	}
	if res.NIT != "" || res.FormNumber != "" {
		t.Fatalf("empty input yielded data: %+v", res)
	}
	if res.EconomicActivities == nil || res.Responsibilities == nil || res.Raw == nil {
		t.Fatal("collections must be initialized")
	}
}

type fakeText struct {
	text string
	err  error
}

func (f fakeText) Text(data []byte) (string, error) { return f.text, f.err }

type fakeArea struct {
	overlay Overlay
	err     error
}

func (f fakeArea) Regions(data []byte) (Overlay, error) { return f.overlay, f.err }

func TestParseAppliesOverlayOnlyToEmptyFields(t *testing.T) {
	p := NewParser(
		fakeText{text: "NIT: 900123456 sin dirección"},
		fakeArea{overlay: Overlay{
			NIT:     "111111111",
			Address: "CR 16 8 109 BRR SAN CAYETANO",
			Postal:  "5 5 4 9 8",
		}},
		Options{},
	)
	res := p.Parse([]byte("%PDF-fake"), "doc.pdf")

	if res.NIT != "900123456" {
		t.Errorf("nit = %q, overlay must not replace the text-derived NIT", res.NIT)
	}
	if res.Address != "CR 16 8 109 BRR SAN CAYETANO" {
		t.Errorf("address = %q, want overlay value", res.Address)
	}
	if res.PostalCode != "5498" {
		t.Errorf("postalCode = %q, want overlay value", res.PostalCode)
	}
}

func TestParseSurvivesCollaboratorErrors(t *testing.T) {
	p := NewParser(
		fakeText{err: errors.New("broken xref")},
		fakeArea{err: errors.New("no fonts")},
		Options{},
	)
	res := p.Parse([]byte("junk"), "broken.pdf")
	if res == nil {
		t.Fatal("result must never be nil")
	}
	if res.NIT != "" {
		t.Fatalf("unexpected data from failed extraction: %+v", res)
	}
}
