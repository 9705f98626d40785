package services

import (
	"github.com/shopspring/decimal"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

// InvoiceValidator cross-checks extracted invoice amounts
type InvoiceValidator struct {
	tolerance decimal.Decimal // fraction of the total, 0.05 = 5%
}

// NewInvoiceValidator creates a validator with default 5% tolerance
func NewInvoiceValidator() *InvoiceValidator {
	return &InvoiceValidator{tolerance: decimal.NewFromFloat(0.05)}
}

// Validate performs cross-validations on an invoice extraction
func (v *InvoiceValidator) Validate(res *models.InvoiceResult) *ValidationResult {
	result := &ValidationResult{
		Valid:       true,
		NeedsReview: false,
		Errors:      []ValidationError{},
		Warnings:    []ValidationWarning{},
	}

	v.validateTotal(res, result)
	v.validateItems(res, result)
	v.validateParties(res, result)

	result.Valid = len(result.Errors) == 0
	result.NeedsReview = len(result.Warnings) > 0
	return result
}

// validateTotal checks total against subtotal plus taxes
func (v *InvoiceValidator) validateTotal(res *models.InvoiceResult, result *ValidationResult) {
	if res.TotalAmount == nil || res.Subtotal == nil {
		return
	}
	expected := *res.Subtotal
	if res.TotalTax != nil {
		expected = expected.Add(*res.TotalTax)
	}
	diff := res.TotalAmount.Sub(expected).Abs()
	toleranceAmount := res.TotalAmount.Mul(v.tolerance)

	if diff.GreaterThan(toleranceAmount) {
		result.Errors = append(result.Errors, ValidationError{
			Field:    "total_amount",
			Code:     "total_mismatch",
			Expected: expected.StringFixed(2),
			Actual:   res.TotalAmount.StringFixed(2),
			Message:  "Total no coincide con subtotal más impuestos",
		})
	}
}

// validateItems checks line totals against the subtotal
func (v *InvoiceValidator) validateItems(res *models.InvoiceResult, result *ValidationResult) {
	if len(res.Items) == 0 || res.Subtotal == nil {
		return
	}
	sum := decimal.Zero
	for _, item := range res.Items {
		sum = sum.Add(item.Quantity.Mul(item.UnitPrice))
	}
	diff := sum.Sub(*res.Subtotal).Abs()
	toleranceAmount := res.Subtotal.Mul(v.tolerance)

	if diff.GreaterThan(toleranceAmount) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "items",
			Code:    "items_subtotal_mismatch",
			Message: "La suma de los ítems no coincide con el subtotal",
		})
	}
}

// validateParties requires at least the issuer to be identified
func (v *InvoiceValidator) validateParties(res *models.InvoiceResult, result *ValidationResult) {
	if res.Issuer == nil || (res.Issuer.NIT == "" && res.Issuer.Name == "") {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "issuer",
			Code:    "issuer_missing",
			Message: "No se identificó el emisor",
		})
	}
}
