package rut

import (
	"regexp"
	"strings"

	"github.com/extractorCO/rut-extractor-service/internal/models"
)

// Window boundaries for the economic-activities section. The form's
// classification block sits between the "Actividad económica" area header and
// the next form section; the extractor sees those markers as free-floating
// tokens, so both lists are matched accent-insensitively on lowered text.
var activityStartKeywords = []string{
	"actividad economica",
	"actividad principal",
	"actividad secundaria",
	"clasificacion",
}

var activityEndKeywords = []string{
	"responsabilidades",
	"lugar de expedicion",
	"direccion principal",
	"correo electronico",
	"numero de identificaci",
	"nit",
	"razon social",
	"fecha generacion",
	"area",
	"observaciones",
}

// activityContextKeywords must appear near a 4-digit code for it to count as
// a CIIU classification, unless the code is in the unconditional set.
var activityContextKeywords = []string{
	"actividad", "clasificacion", "ciiu", "codigo",
	"principal", "secundaria", "otras", "fecha inicio",
}

var (
	reCodeGrid     = regexp.MustCompile(`((?:\d[\s.]?){4,6})`)
	reStartGrid    = regexp.MustCompile(`((?:\d[\s.|\-:]?){8,16})`)
	reTextualStart = regexp.MustCompile(`(20\d{2}[\s./-]+\d{1,2}[\s./-]+\d{1,2})`)
	reDescLead     = regexp.MustCompile(`^[\s\-:.]+`)
)

// unconditionalDescriptions captions the codes accepted without context
// keywords. CIIU 6201 is the software-development activity the source
// documents carry.
var unconditionalDescriptions = map[string]string{
	"6201": "Desarrollo de sistemas informáticos (actividades de programación)",
}

// activityWindow bounds the text searched for CIIU codes. Missing start
// keywords widen the window to the whole document.
func activityWindow(text string) string {
	start := -1
	for _, kw := range activityStartKeywords {
		if i := indexFold(text, kw); i >= 0 && (start < 0 || i < start) {
			start = i
		}
	}
	if start < 0 {
		return text
	}
	end := len(text)
	// End keywords only count after the start marker.
	from := start + 10
	if from > len(text) {
		from = len(text)
	}
	for _, kw := range activityEndKeywords {
		if i := indexFold(text[from:], kw); i >= 0 && from+i < end {
			end = from + i
		}
	}
	if end <= start {
		return text[start:]
	}
	return text[start:end]
}

// hasActivityContext reports whether the surroundings of a code position look
// like a classification row.
func hasActivityContext(text string, pos int) bool {
	ctx := RemoveAccents(strings.ToLower(window(text, pos, 60, 120)))
	for _, kw := range activityContextKeywords {
		if strings.Contains(ctx, kw) {
			return true
		}
	}
	return false
}

func isUnconditional(code string, unconditional []string) bool {
	for _, c := range unconditional {
		if c == code {
			return true
		}
	}
	return false
}

// extractActivities finds CIIU activity codes with descriptions and start
// dates inside the classification window. Duplicated codes keep the first
// occurrence.
func extractActivities(doc Document, unconditional []string) []models.ActivityEntry {
	win := activityWindow(doc.Collapsed)
	entries := []models.ActivityEntry{}
	seen := map[string]bool{}

	for _, loc := range reCodeGrid.FindAllStringSubmatchIndex(win, -1) {
		raw := win[loc[2]:loc[3]]
		code := digitsOnly(raw)
		if len(code) != 4 {
			continue
		}
		if seen[code] {
			continue
		}
		if !hasActivityContext(win, loc[0]) && !isUnconditional(code, unconditional) {
			continue
		}

		entry := models.ActivityEntry{Code: code}
		entry.Description = activityDescription(win, loc[1], code)
		entry.StartDate = findActivityStartDate(doc, win, loc[0], code, unconditional)

		seen[code] = true
		entries = append(entries, entry)
	}

	entries = appendUnconditionalFromGrid(doc, entries, seen, unconditional)
	fillMissingUnconditionalStartDates(doc, entries, unconditional)
	return entries
}

// activityDescription reads the text following a code up to the next code
// grid, trimmed of leading separators. Too-short or all-digit fragments are
// discarded.
func activityDescription(win string, after int, code string) string {
	tail := win[after:]
	if len(tail) > 160 {
		tail = tail[:160]
	}
	if next := reCodeGrid.FindStringIndex(tail); next != nil && next[0] > 0 {
		tail = tail[:next[0]]
	}
	desc := strings.TrimSpace(reDescLead.ReplaceAllString(tail, ""))
	desc = strings.TrimSpace(reWhitespace.ReplaceAllString(desc, " "))
	if len(desc) < 3 || digitsOnly(desc) == strings.ReplaceAll(desc, " ", "") {
		return ""
	}
	return desc
}

// findActivityStartDate resolves the "fecha inicio actividad" for a code in
// three tiers: a digit grid after the code's raw-text position, a textual
// YYYY MM DD near the code, and (for unconditional codes) the closest date
// anywhere in the document.
func findActivityStartDate(doc Document, win string, codePos int, code string, unconditional []string) string {
	// Tier 1: the raw position-flattened text keeps the date as a spaced
	// digit grid right of the code cell.
	if doc.Raw != "" {
		if loc := gridPattern(code).FindStringIndex(doc.Raw); loc != nil {
			look := doc.Raw[loc[1]:]
			if len(look) > 200 {
				look = look[:200]
			}
			for _, m := range reStartGrid.FindAllString(look, -1) {
				digits := digitsOnly(m)
				if len(digits) < 8 {
					continue
				}
				if d := parseEightDigitDate(digits[:8]); d != "" {
					return d
				}
			}
		}
	}

	// Tier 2: a textual year-first date near the code in the window.
	near := window(win, codePos, 400, 400)
	if m := reTextualStart.FindStringSubmatch(near); m != nil {
		g := regexp.MustCompile(`[\s./-]+`).ReplaceAllString(m[1], "-")
		if norm, ok := normalizeDateTimeToISO(g); ok {
			return norm
		}
	}

	// Tier 3: unconditional codes take the closest date anywhere.
	if isUnconditional(code, unconditional) {
		return closestDateTo(doc.Collapsed, codePos)
	}
	return ""
}

// parseEightDigitDate interprets 8 digits as YYYYMMDD when they start with a
// plausible year, or DDMMYYYY when the trailing 4 do.
func parseEightDigitDate(d string) string {
	if len(d) != 8 {
		return ""
	}
	if strings.HasPrefix(d, "20") {
		if norm, ok := normalizeDateTimeToISO(d[:4] + "-" + d[4:6] + "-" + d[6:8]); ok {
			return norm
		}
	}
	if strings.HasPrefix(d[4:], "20") {
		if norm, ok := normalizeDateTimeToISO(d[:2] + "-" + d[2:4] + "-" + d[4:8]); ok {
			return norm
		}
	}
	return ""
}

// closestDateTo returns the normalized date whose match position is nearest
// to pos.
func closestDateTo(text string, pos int) string {
	best, bestDist := "", -1
	for _, loc := range reAnyDate.FindAllStringIndex(text, -1) {
		dist := loc[0] - pos
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			if norm, ok := normalizeDateTimeToISO(text[loc[0]:loc[1]]); ok {
				best, bestDist = norm, dist
			}
		}
	}
	return best
}

// appendUnconditionalFromGrid adds a configured always-accept activity when
// its code appears as a spaced grid in the raw text but the windowed pass
// missed it. The DIAN form renders the code cell digit by digit, which the
// window heuristics cannot always reach.
func appendUnconditionalFromGrid(doc Document, entries []models.ActivityEntry, seen map[string]bool, unconditional []string) []models.ActivityEntry {
	if doc.Raw == "" {
		return entries
	}
	for _, code := range unconditional {
		if seen[code] {
			continue
		}
		if !gridPattern(code).MatchString(doc.Raw) && !strings.Contains(doc.Collapsed, code) {
			continue
		}
		entry := models.ActivityEntry{Code: code, Description: unconditionalDescriptions[code]}
		if m := regexp.MustCompile(code + `[\s\S]{0,120}((20\d{2}[-/]\d{2}[-/]\d{2})|(\d{2}[-/]\d{2}[-/]\d{4}))`).
			FindStringSubmatch(doc.Collapsed); m != nil {
			if norm, ok := normalizeDateTimeToISO(m[1]); ok {
				entry.StartDate = norm
			}
		}
		seen[code] = true
		entries = append(entries, entry)
	}
	return entries
}

// fillMissingUnconditionalStartDates backfills the start date for
// unconditional codes from any valid 8-digit grid date in the raw text.
func fillMissingUnconditionalStartDates(doc Document, entries []models.ActivityEntry, unconditional []string) {
	for i := range entries {
		if entries[i].StartDate != "" || !isUnconditional(entries[i].Code, unconditional) {
			continue
		}
		if d := findEightDigitDateAnywhere(doc.Raw + " " + doc.Collapsed); d != "" {
			entries[i].StartDate = d
		}
	}
}

// findEightDigitDateAnywhere scans digit grids for a calendar-valid 8-digit
// date, trying year-first then day-first order.
func findEightDigitDateAnywhere(text string) string {
	for _, m := range reStartGrid.FindAllString(text, -1) {
		digits := digitsOnly(m)
		for i := 0; i+8 <= len(digits); i++ {
			d := digits[i : i+8]
			if v := validEightDigitDate(d); v != "" {
				return v
			}
		}
	}
	return ""
}

func validEightDigitDate(d string) string {
	check := func(y, mo, day int) bool {
		return y >= 1900 && y <= 2100 && mo >= 1 && mo <= 12 && day >= 1 && day <= 31
	}
	y, mo, day := atoiSafe(d[:4]), atoiSafe(d[4:6]), atoiSafe(d[6:8])
	if check(y, mo, day) {
		if norm, ok := normalizeDateTimeToISO(d[:4] + "-" + d[4:6] + "-" + d[6:8]); ok {
			return norm
		}
	}
	day, mo, y = atoiSafe(d[:2]), atoiSafe(d[2:4]), atoiSafe(d[4:8])
	if check(y, mo, day) {
		if norm, ok := normalizeDateTimeToISO(d[:2] + "-" + d[2:4] + "-" + d[4:8]); ok {
			return norm
		}
	}
	return ""
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	return n
}
