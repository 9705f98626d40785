package rut

import (
	"log"
	"strings"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

// TextExtractor turns PDF bytes into the raw position-flattened text the
// resolvers work on.
type TextExtractor interface {
	Text(data []byte) (string, error)
}

// AreaExtractor reads fixed page regions as an overlay. Implementations that
// cannot do region reads return an empty Overlay.
type AreaExtractor interface {
	Regions(data []byte) (Overlay, error)
}

// Options tunes parser behavior.
type Options struct {
	// UnconditionalActivityCodes are CIIU codes accepted without nearby
	// classification keywords. Nil means the default set; an explicitly
	// empty slice disables the unconditional pass.
	UnconditionalActivityCodes []string
}

var defaultUnconditionalCodes = []string{"6201"}

// Parser extracts structured RUT fields from a PDF. It is stateless and safe
// for concurrent use.
type Parser struct {
	text   TextExtractor
	area   AreaExtractor
	uncond []string
}

func NewParser(text TextExtractor, area AreaExtractor, opts Options) *Parser {
	uncond := opts.UnconditionalActivityCodes
	if uncond == nil {
		uncond = defaultUnconditionalCodes
	}
	return &Parser{text: text, area: area, uncond: uncond}
}

// stage is one named step of the pipeline. Stages run in declaration order;
// each reads the document views and earlier results and fills its fields.
type stage struct {
	name string
	run  func(p *Parser, doc Document, res *models.RutResult)
}

var stages = []stage{
	{"source", func(_ *Parser, doc Document, res *models.RutResult) {
		res.Source = resolveSource(doc)
	}},
	{"form-number", func(_ *Parser, doc Document, res *models.RutResult) {
		res.FormNumber = resolveFormNumber(doc)
	}},
	{"nit", func(_ *Parser, doc Document, res *models.RutResult) {
		res.NIT = resolveNIT(doc, res.FormNumber)
	}},
	{"check-digit", func(_ *Parser, doc Document, res *models.RutResult) {
		res.CheckDigit = resolveCheckDigit(doc, res.NIT)
	}},
	{"document-number", func(_ *Parser, doc Document, res *models.RutResult) {
		res.DocumentNumber = resolveDocumentNumber(doc, res.NIT, res.FormNumber)
	}},
	{"document-type", func(_ *Parser, doc Document, res *models.RutResult) {
		res.DocumentType = resolveDocumentType(doc, res.DocumentNumber)
	}},
	{"contributor-type", func(_ *Parser, doc Document, res *models.RutResult) {
		res.ContributorType = resolveContributorType(doc, res.DocumentType)
	}},
	{"names", func(_ *Parser, doc Document, res *models.RutResult) {
		res.FullName = resolveFullName(doc)
	}},
	{"email", func(_ *Parser, doc Document, res *models.RutResult) {
		res.Email = resolveEmail(doc)
	}},
	{"address", func(_ *Parser, doc Document, res *models.RutResult) {
		res.Address = resolveAddress(doc)
	}},
	{"geography", func(_ *Parser, doc Document, res *models.RutResult) {
		resolveGeography(doc, res)
	}},
	{"postal-code", func(_ *Parser, doc Document, res *models.RutResult) {
		res.PostalCode = resolvePostalCode(doc)
		if raw := resolveRawPostalOverride(doc.Raw); raw != "" {
			res.PostalCode = raw
		}
	}},
	{"generated-at", func(_ *Parser, doc Document, res *models.RutResult) {
		res.PDFGeneratedAt = extractGeneratedAt(doc)
		res.PDFGeneratedAt = enrichGeneratedWithTime(res.PDFGeneratedAt, doc)
	}},
	{"issue-date", func(_ *Parser, doc Document, res *models.RutResult) {
		res.IssueDate = extractIssueDate(doc)
		if res.IssueDate == "" && res.PDFGeneratedAt != "" {
			d := res.PDFGeneratedAt
			if i := strings.Index(d, "T"); i >= 0 {
				d = d[:i]
			}
			res.IssueDate = d
		}
	}},
	{"activities", func(p *Parser, doc Document, res *models.RutResult) {
		res.EconomicActivities = extractActivities(doc, p.uncond)
	}},
	{"responsibilities", func(_ *Parser, doc Document, res *models.RutResult) {
		res.Responsibilities = resolveResponsibilities(doc)
	}},
	{"dian-sectional", func(_ *Parser, doc Document, res *models.RutResult) {
		if s := resolveDianSectional(doc); s != "" {
			res.Raw["dianSectional"] = s
		}
	}},
}

// Parse extracts every field from the PDF bytes. Extraction never fails as a
// whole; collaborator errors are logged and the respective fields stay empty.
func (p *Parser) Parse(data []byte, filename string) *models.RutResult {
	res := models.NewRutResult()

	raw := ""
	if p.text != nil {
		t, err := p.text.Text(data)
		if err != nil {
			log.Printf("[RUTParser] text extraction failed for %s: %v", filename, err)
		} else {
			raw = t
		}
	}
	p.runStages(Normalize(raw), res)

	if p.area != nil {
		ov, err := p.area.Regions(data)
		if err != nil {
			log.Printf("[RUTParser] region extraction failed for %s: %v", filename, err)
		} else {
			applyOverlay(res, ov)
		}
	}
	return res
}

// ParseText runs the pipeline over already-extracted text, without the
// region overlay.
func (p *Parser) ParseText(raw string) *models.RutResult {
	res := models.NewRutResult()
	p.runStages(Normalize(raw), res)
	return res
}

func (p *Parser) runStages(doc Document, res *models.RutResult) {
	for _, s := range stages {
		s.run(p, doc, res)
	}
}
