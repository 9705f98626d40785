package invoice

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

const sampleInvoice = `FACTURA ELECTRÓNICA DE VENTA No. FE-12345
Fecha de EXPEDICIÓN: 25-Abr-2022 10:30AM
Fecha de Vencimiento: 25-May-2022
EMISOR
TECNOLOGIA Y DESARROLLO SAS
NIT: 900.123.456-7
Dirección: CR 10 20 30 Bogotá
Teléfono: 6015551234
correo@emisor.co
ADQUIRIENTE
Nombre: EDUAR LEONARDO SANCHEZ PACHECO
NIT: 1091658551
cliente@correo.co
DETALLE
Código Descripción Cantidad Unidad Precio unitario Recargos Total
1 Servicio de desarrollo 1 2 $ 80.000 UND 19% $ 30.400
9 Item ilegible 1 1 $ ,., UND 19% $ 1.000
SUBTOTAL $ 260.000
TOTAL IMPUESTOS $ 58.900
TOTAL $ 318.900
CUFE: a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0a1b2
Forma de Pago: Contado Medio de Pago: Efectivo
Moneda: COP`

func TestParseTextInvoice(t *testing.T) {
	p := NewParser(nil)
	res := p.ParseText(sampleInvoice)

	if res.InvoiceNumber != "FE-12345" {
		t.Errorf("invoiceNumber = %q, want FE-12345", res.InvoiceNumber)
	}
	if res.IssueDate != "2022-04-25" {
		t.Errorf("issueDate = %q, want 2022-04-25", res.IssueDate)
	}
	if res.IssueTime != "10:30" {
		t.Errorf("issueTime = %q, want 10:30", res.IssueTime)
	}
	if res.ExpirationDate != "2022-05-25" {
		t.Errorf("expirationDate = %q, want 2022-05-25", res.ExpirationDate)
	}
	if res.CUFE != "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0a1b2" {
		t.Errorf("cufe = %q", res.CUFE)
	}
	if res.PaymentForm != "Contado" {
		t.Errorf("paymentForm = %q, want Contado", res.PaymentForm)
	}
	if res.PaymentMethod != "Efectivo" {
		t.Errorf("paymentMethod = %q, want Efectivo", res.PaymentMethod)
	}
	if res.Currency != "COP" {
		t.Errorf("currency = %q, want COP", res.Currency)
	}

	if res.Issuer == nil {
		t.Fatal("issuer is nil")
	}
	if res.Issuer.NIT != "9001234567" {
		t.Errorf("issuer nit = %q, want 9001234567", res.Issuer.NIT)
	}
	if res.Issuer.Name != "TECNOLOGIA Y DESARROLLO SAS" {
		t.Errorf("issuer name = %q", res.Issuer.Name)
	}
	if res.Issuer.Email != "correo@emisor.co" {
		t.Errorf("issuer email = %q", res.Issuer.Email)
	}
	if res.Issuer.Phone != "6015551234" {
		t.Errorf("issuer phone = %q", res.Issuer.Phone)
	}

	if res.Acquirer == nil {
		t.Fatal("acquirer is nil")
	}
	if res.Acquirer.NIT != "1091658551" {
		t.Errorf("acquirer nit = %q, want 1091658551", res.Acquirer.NIT)
	}
	if res.Acquirer.Name != "EDUAR LEONARDO SANCHEZ PACHECO" {
		t.Errorf("acquirer name = %q", res.Acquirer.Name)
	}

	if len(res.Items) != 1 {
		t.Fatalf("items = %v, want the malformed row skipped", res.Items)
	}
	item := res.Items[0]
	if item.Code != "1" || item.Description != "Servicio de desarrollo" {
		t.Errorf("item = %+v", item)
	}
	if !item.UnitPrice.Equal(decimal.NewFromInt(80000)) {
		t.Errorf("unitPrice = %s, want 80000", item.UnitPrice)
	}
	if !item.TaxAmount.Equal(decimal.NewFromInt(30400)) {
		t.Errorf("taxAmount = %s, want 30400", item.TaxAmount)
	}

	if res.Subtotal == nil || !res.Subtotal.Equal(decimal.NewFromInt(260000)) {
		t.Errorf("subtotal = %v, want 260000", res.Subtotal)
	}
	if res.TotalTax == nil || !res.TotalTax.Equal(decimal.NewFromInt(58900)) {
		t.Errorf("totalTax = %v, want 58900", res.TotalTax)
	}
	if res.TotalAmount == nil || !res.TotalAmount.Equal(decimal.NewFromInt(318900)) {
		t.Errorf("totalAmount = %v, want 318900", res.TotalAmount)
	}
}

func TestParseTextInvoiceEmpty(t *testing.T) {
	res := NewParser(nil).ParseText("   ")
	if res == nil {
		t.Fatal("result must never be nil")
	}
	if res.InvoiceNumber != "" || res.Items == nil || len(res.Items) != 0 {
		t.Fatalf("empty input yielded data: %+v", res)
	}
}

func TestParseTextNoItemsKeepsEmptySlice(t *testing.T) {
	res := NewParser(nil).ParseText("FACTURA DE VENTA No. FE-99 TOTAL $ 1.000")
	if res.Items == nil {
		t.Fatal("items must stay initialized when no table is found")
	}
	if len(res.Items) != 0 {
		t.Fatalf("items = %v, want none", res.Items)
	}
}

func TestNormalizeInvoiceDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"25-Abr-2022", "2022-04-25"},
		{"25/Abr/2022", "2022-04-25"},
		{"01-Dic-2023", "2023-12-01"},
		{"2022-04-25", "2022-04-25"},
		{"2022/04/25", "2022-04-25"},
		{"25-04-2022", "2022-04-25"},
		{"25-Xyz-2022", "25-Xyz-2022"},
	}
	for _, tt := range tests {
		if got := normalizeInvoiceDate(tt.in); got != tt.want {
			t.Errorf("normalizeInvoiceDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeInvoiceTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10:30AM", "10:30"},
		{"10:30PM", "22:30"},
		{"12:05AM", "00:05"},
		{"12:05PM", "12:05"},
		{"9:07", "09:07"},
	}
	for _, tt := range tests {
		if got := normalizeInvoiceTime(tt.in); got != tt.want {
			t.Errorf("normalizeInvoiceTime(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type fakeText struct {
	text string
	err  error
}

func (f fakeText) Text(data []byte) (string, error) { return f.text, f.err }

func TestParseSurvivesTextExtractionError(t *testing.T) {
	p := NewParser(fakeText{err: errors.New("encrypted document")})
	res := p.Parse([]byte("junk"), "broken.pdf")
	if res == nil {
		t.Fatal("result must never be nil")
	}
	if res.InvoiceNumber != "" {
		t.Fatalf("unexpected data: %+v", res)
	}
}
