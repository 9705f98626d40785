package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/extractorCO/rut-extractor-service/internal/models"
	"github.com/extractorCO/rut-extractor-service/internal/rut"
)

// Extractor is the AI fallback for RUT documents the rule pipeline could not
// read. It only ever fills fields that are still empty.
type Extractor struct {
	provider Provider
}

func NewExtractor(provider Provider) *Extractor {
	return &Extractor{provider: provider}
}

// Enrich asks the provider for the fields the pipeline missed and merges
// them into res without overwriting anything already extracted.
func (e *Extractor) Enrich(ctx context.Context, text string, res *models.RutResult) error {
	if e == nil || e.provider == nil {
		return nil
	}
	startTime := time.Now()

	response, err := e.provider.ExtractData(ctx, buildPromptRUT(text))
	if err != nil {
		return fmt.Errorf("AI extraction failed: %w", err)
	}
	log.Printf("[AI] response in %.2fs, length %d", time.Since(startTime).Seconds(), len(response))

	parsed, err := parseResponseRUT(response)
	if err != nil {
		return fmt.Errorf("failed to parse AI response: %w", err)
	}
	mergeMissing(res, parsed)
	return nil
}

func buildPromptRUT(text string) string {
	return fmt.Sprintf(`Eres un EXPERTO en el Registro Único Tributario (RUT) de la DIAN colombiana.
El siguiente texto fue extraído de un PDF del formulario RUT y las posiciones quedaron desordenadas.

## CAMPOS A EXTRAER

Devuelve SOLO JSON válido (sin markdown, sin comentarios):
{
  "formNumber": "número de formulario, 9-12 dígitos, solo dígitos",
  "nit": "Número de Identificación Tributaria, solo dígitos",
  "dv": "dígito de verificación, un solo dígito",
  "documentNumber": "número de cédula, 10 dígitos",
  "fullName": "APELLIDO1 APELLIDO2 NOMBRE1 OTROS, en mayúsculas",
  "email": "correo electrónico o null",
  "address": "dirección principal o null",
  "postalCode": "código postal de 4 dígitos o null"
}

## REGLAS
- Usa null para lo que no aparezca, NUNCA inventes valores.
- El NIT de persona natural suele tener 10-11 dígitos; el último puede ser el DV.
- El nombre sigue el orden: primer apellido, segundo apellido, primer nombre, otros nombres.

## TEXTO DEL DOCUMENTO

%s`, text)
}

// rutResponse is the JSON shape the prompt asks for.
type rutResponse struct {
	FormNumber     string `json:"formNumber"`
	NIT            string `json:"nit"`
	DV             string `json:"dv"`
	DocumentNumber string `json:"documentNumber"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	PostalCode     string `json:"postalCode"`
}

func parseResponseRUT(response string) (*rutResponse, error) {
	cleaned := cleanJSONResponse(response)
	var raw rutResponse
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	return &raw, nil
}

// cleanJSONResponse strips markdown fences and any prose around the JSON
// object.
func cleanJSONResponse(response string) string {
	s := strings.TrimSpace(response)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}
	return strings.TrimSpace(s)
}

func mergeMissing(res *models.RutResult, parsed *rutResponse) {
	setIfEmpty := func(dst *string, v string) {
		if *dst == "" && v != "" && !strings.EqualFold(v, "null") {
			*dst = strings.TrimSpace(v)
		}
	}
	setIfEmpty(&res.FormNumber, parsed.FormNumber)
	setIfEmpty(&res.NIT, parsed.NIT)
	setIfEmpty(&res.CheckDigit, parsed.DV)
	setIfEmpty(&res.DocumentNumber, parsed.DocumentNumber)
	setIfEmpty(&res.Email, parsed.Email)
	setIfEmpty(&res.Address, parsed.Address)
	setIfEmpty(&res.PostalCode, parsed.PostalCode)

	if (res.FullName == nil || res.FullName.Display == "") && parsed.FullName != "" && !strings.EqualFold(parsed.FullName, "null") {
		fn := &models.FullName{Display: strings.ToUpper(strings.TrimSpace(parsed.FullName))}
		rut.DecomposeFullName(fn)
		res.FullName = fn
	}
}
