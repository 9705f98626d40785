package services

import (
	"regexp"
	"time"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field    string `json:"field"`
	Code     string `json:"code"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ValidationWarning represents a non-critical issue
type ValidationWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult is the response from validation
type ValidationResult struct {
	Valid       bool                `json:"valid"`
	NeedsReview bool                `json:"needs_review"`
	Errors      []ValidationError   `json:"errors"`
	Warnings    []ValidationWarning `json:"warnings"`
}

var (
	reDigits     = regexp.MustCompile(`^[0-9]+$`)
	reISODate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2})?$`)
	reEmailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// dvWeights are the DIAN check-digit weights, applied right to left over the
// identification number.
var dvWeights = []int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53, 59, 67, 71}

// RutValidator cross-checks extracted RUT fields
type RutValidator struct{}

func NewRutValidator() *RutValidator {
	return &RutValidator{}
}

// Validate performs all cross-validations on an extraction result
func (v *RutValidator) Validate(res *models.RutResult) *ValidationResult {
	result := &ValidationResult{
		Valid:       true,
		NeedsReview: false,
		Errors:      []ValidationError{},
		Warnings:    []ValidationWarning{},
	}

	v.validateIdentity(res, result)
	v.validateNIT(res, result)
	v.validateCheckDigit(res, result)
	v.validateFormNumber(res, result)
	v.validateDates(res, result)
	v.validateContact(res, result)
	v.validateActivities(res, result)

	result.Valid = len(result.Errors) == 0
	result.NeedsReview = len(result.Warnings) > 0
	return result
}

// validateIdentity requires at least one identity anchor
func (v *RutValidator) validateIdentity(res *models.RutResult, result *ValidationResult) {
	hasName := res.FullName != nil && res.FullName.Display != ""
	if res.NIT == "" && !hasName {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "nit",
			Code:    "no_identity",
			Message: "Se requiere NIT o razón social",
		})
	}
}

// validateNIT checks NIT shape and its relation to the document number
func (v *RutValidator) validateNIT(res *models.RutResult, result *ValidationResult) {
	if res.NIT == "" {
		return
	}
	if !reDigits.MatchString(res.NIT) || len(res.NIT) < 9 || len(res.NIT) > 12 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "nit",
			Code:    "nit_invalid_format",
			Actual:  res.NIT,
			Message: "NIT debe tener 9-12 dígitos",
		})
		return
	}
	if len(res.NIT) == 11 && res.DocumentNumber != "" && res.NIT[:10] != res.DocumentNumber {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "document_number",
			Code:    "document_nit_mismatch",
			Message: "Número de documento no coincide con el NIT",
		})
	}
}

// validateCheckDigit recomputes the DIAN check digit from the identification
// number and compares
func (v *RutValidator) validateCheckDigit(res *models.RutResult, result *ValidationResult) {
	if res.CheckDigit == "" {
		return
	}
	if len(res.CheckDigit) != 1 || !reDigits.MatchString(res.CheckDigit) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "dv",
			Code:    "dv_invalid_format",
			Actual:  res.CheckDigit,
			Message: "DV debe ser un solo dígito",
		})
		return
	}
	base := res.DocumentNumber
	if base == "" && len(res.NIT) == 11 {
		base = res.NIT[:10]
	}
	if base == "" || !reDigits.MatchString(base) {
		return
	}
	expected := ComputeCheckDigit(base)
	if expected != res.CheckDigit {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "dv",
			Code:    "dv_mismatch",
			Message: "DV no coincide con el dígito calculado (" + expected + ")",
		})
	}
}

// ComputeCheckDigit applies the DIAN modulo-11 algorithm to an
// identification number.
func ComputeCheckDigit(number string) string {
	sum := 0
	for i := 0; i < len(number); i++ {
		d := int(number[len(number)-1-i] - '0')
		if i >= len(dvWeights) {
			break
		}
		sum += d * dvWeights[i]
	}
	r := sum % 11
	switch r {
	case 0:
		return "0"
	case 1:
		return "1"
	default:
		return string(rune('0' + 11 - r))
	}
}

// validateFormNumber checks the canonical 11-digit form number
func (v *RutValidator) validateFormNumber(res *models.RutResult, result *ValidationResult) {
	if res.FormNumber == "" {
		return
	}
	if !reDigits.MatchString(res.FormNumber) || len(res.FormNumber) < 9 || len(res.FormNumber) > 12 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "form_number",
			Code:    "form_number_invalid",
			Actual:  res.FormNumber,
			Message: "Número de formulario debe tener 9-12 dígitos",
		})
		return
	}
	if len(res.FormNumber) != 11 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "form_number",
			Code:    "form_number_length",
			Message: "Número de formulario no tiene la longitud canónica de 11 dígitos",
		})
	}
}

// validateDates checks ISO shapes and that dates are not in the future
func (v *RutValidator) validateDates(res *models.RutResult, result *ValidationResult) {
	check := func(field, value string) {
		if value == "" {
			return
		}
		if !reISODate.MatchString(value) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field,
				Code:    "date_invalid_format",
				Actual:  value,
				Message: "Fecha debe tener formato ISO",
			})
			return
		}
		day := value
		if len(day) > 10 {
			day = day[:10]
		}
		if t, err := time.Parse("2006-01-02", day); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field,
				Code:    "date_invalid",
				Actual:  value,
				Message: "Fecha inválida",
			})
		} else if t.After(time.Now().AddDate(0, 0, 1)) {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   field,
				Code:    "date_in_future",
				Message: "Fecha en el futuro",
			})
		}
	}
	check("issue_date", res.IssueDate)
	check("pdf_generated_at", res.PDFGeneratedAt)
}

// validateContact checks email and postal shapes
func (v *RutValidator) validateContact(res *models.RutResult, result *ValidationResult) {
	if res.Email != "" && !reEmailShape.MatchString(res.Email) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "email",
			Code:    "email_invalid",
			Message: "Correo electrónico con formato sospechoso",
		})
	}
	if res.PostalCode != "" && (len(res.PostalCode) != 4 || !reDigits.MatchString(res.PostalCode)) {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Field:   "postal_code",
			Code:    "postal_invalid",
			Message: "Código postal debe tener 4 dígitos",
		})
	}
}

// validateActivities checks CIIU codes and start dates
func (v *RutValidator) validateActivities(res *models.RutResult, result *ValidationResult) {
	for _, a := range res.EconomicActivities {
		if len(a.Code) != 4 || !reDigits.MatchString(a.Code) {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "economic_activities",
				Code:    "activity_code_invalid",
				Message: "Código CIIU inválido: " + a.Code,
			})
		}
		if a.StartDate != "" && !reISODate.MatchString(a.StartDate) {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Field:   "economic_activities",
				Code:    "activity_date_invalid",
				Message: "Fecha de inicio inválida para actividad " + a.Code,
			})
		}
	}
}
