package models

import "github.com/shopspring/decimal"

// RutResult represents the structured data extracted from a RUT document (DIAN).
// Every field is best-effort: an empty value means the field could not be
// resolved, never that the parse failed. JSON keys are always present so that
// consumers can rely on a stable schema.
type RutResult struct {
	Source          string `json:"source"`
	FormNumber      string `json:"formNumber"`
	NIT             string `json:"nit"`
	CheckDigit      string `json:"dv"`
	ContributorType string `json:"contributorType"`
	DocumentType    string `json:"documentType"`
	DocumentNumber  string `json:"documentNumber"`

	FullName *FullName `json:"fullName"`

	Email      string `json:"email"`
	Address    string `json:"address"`
	Country    string `json:"country"`
	Department string `json:"department"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`

	// IssueDate is YYYY-MM-DD; PDFGeneratedAt is YYYY-MM-DD or
	// YYYY-MM-DDTHH:MM:SS (24-hour).
	IssueDate      string `json:"issueDate"`
	PDFGeneratedAt string `json:"pdfGeneratedAt"`

	EconomicActivities []ActivityEntry       `json:"economicActivities"`
	Responsibilities   []ResponsibilityEntry `json:"responsibilities"`

	// Raw holds loose evidence that does not map to a typed field
	// (e.g. the DIAN sectional office line).
	Raw map[string]string `json:"raw"`
}

// NewRutResult returns a result with all collections initialized so the JSON
// contract never emits null for lists or maps.
func NewRutResult() *RutResult {
	return &RutResult{
		EconomicActivities: []ActivityEntry{},
		Responsibilities:   []ResponsibilityEntry{},
		Raw:                map[string]string{},
	}
}

// FullName holds the authoritative display string and its positional
// decomposition into Hispanic naming order (apellido1, apellido2, nombre1,
// otros nombres). The decomposed parts are always derived from Display.
type FullName struct {
	Display        string `json:"display"`
	LastName       string `json:"lastName"`
	SecondLastName string `json:"secondLastName"`
	FirstName      string `json:"firstName"`
	MiddleNames    string `json:"middleNames"`
}

// ActivityEntry is one economic activity (CIIU-like 4-digit code).
type ActivityEntry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"` // YYYY-MM-DD
}

// ResponsibilityEntry is one canonical tax responsibility code.
type ResponsibilityEntry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// InvoiceResult represents the structured data extracted from an electronic
// invoice PDF. Monetary fields are null when the label was not found.
type InvoiceResult struct {
	Issuer   *CompanyInfo `json:"issuer"`
	Acquirer *CompanyInfo `json:"acquirer"`

	InvoiceNumber  string `json:"invoiceNumber"`
	IssueDate      string `json:"issueDate"`
	IssueTime      string `json:"issueTime"`
	ExpirationDate string `json:"expirationDate"`

	PaymentMethod string `json:"paymentMethod"`
	PaymentForm   string `json:"paymentForm"`

	Subtotal      *decimal.Decimal `json:"subtotal"`
	TaxableAmount *decimal.Decimal `json:"taxableAmount"`
	TotalTax      *decimal.Decimal `json:"totalTax"`
	TotalAmount   *decimal.Decimal `json:"totalAmount"`
	Currency      string           `json:"currency"`

	CUFE string `json:"cufe"`

	Items []InvoiceItem `json:"items"`
}

// NewInvoiceResult returns a result with the items list initialized.
func NewInvoiceResult() *InvoiceResult {
	return &InvoiceResult{Items: []InvoiceItem{}}
}

// CompanyInfo is one party block (emisor o adquiriente) of an invoice.
type CompanyInfo struct {
	NIT     string `json:"nit"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// InvoiceItem is one line item of the invoice detail table.
type InvoiceItem struct {
	Code          string          `json:"code"`
	Description   string          `json:"description"`
	UnitOfMeasure string          `json:"unitOfMeasure"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TaxAmount     decimal.Decimal `json:"taxAmount"`
	Total         decimal.Decimal `json:"total"`
}
