package rut

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Raw date/time spellings accepted by the normalizer. The extractor flattens
// "Fecha generación 2022-04-25 / 15:31:12 p.m." labels into arbitrary nearby
// positions, so every resolver works on bounded windows, never on line
// structure.
var (
	reGeneratedLabel = regexp.MustCompile(`(?i)Fecha\s*generaci[oó]n(?:\s*documento\s*PDF)?[:\s]*([0-9]{4}[-/][0-9]{2}[-/][0-9]{2}(?:[ T]\d{1,2}:\d{2}:\d{2})?|[0-9]{2}[-/][0-9]{2}[-/][0-9]{4}(?:[ T]\d{1,2}:\d{2}:\d{2})?)`)
	reIssueLabel     = regexp.MustCompile(`(?i)Fecha\s*expedici[oó]n[:\s]*([0-9]{2}[-/][0-9]{2}[-/][0-9]{4})`)

	reISODateTime = regexp.MustCompile(`(20\d{2}[-/][0-9]{2}[-/][0-9]{2})[T\s]*(\d{1,2}:\d{2}:\d{2})`)
	reDMYDateTime = regexp.MustCompile(`(\d{2}[-/]\d{2}[-/]\d{4})[T\s]*(\d{1,2}:\d{2}:\d{2})`)
	reDMYDate     = regexp.MustCompile(`\b(\d{2}[-/]\d{2}[-/]\d{4})\b`)
	reYMDDate     = regexp.MustCompile(`\b(20\d{2}[-/]\d{2}[-/]\d{2})\b`)
	reAnyDate     = regexp.MustCompile(`(20\d{2}[-/]\d{2}[-/]\d{2})|(\d{2}[-/]\d{2}[-/]\d{4})`)
	reTimeAMPM    = regexp.MustCompile(`(?i)(\d{1,2}:\d{2}:\d{2})(?:\s*([ap]\.?m\.?))?`)

	reYMDLoose = regexp.MustCompile(`^(20\d{2})-(\d{1,2})-(\d{1,2})$`)
	reDMYLoose = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`)
)

// generatedAtKeywords are the accent-insensitive spellings searched when the
// explicit label regex finds nothing.
var generatedAtKeywords = []string{
	"fecha generaci",
	"fecha generacion",
	"fecha de generaci",
	"fecha generacion documento",
	"fecha generacion pdf",
	"fecha de generacion",
}

// normalizeTimeTo24 converts HH:MM:SS plus an optional AM/PM marker to
// 24-hour form. PM adds 12 to hours below 12; AM zeroes hour 12.
func normalizeTimeTo24(t, ampm string) string {
	parts := strings.Split(t, ":")
	if len(parts) != 3 {
		return t
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return t
	}
	if ampm != "" {
		switch strings.ToUpper(strings.ReplaceAll(ampm, ".", "")) {
		case "PM":
			if hh < 12 {
				hh += 12
			}
		case "AM":
			if hh == 12 {
				hh = 0
			}
		}
	}
	return fmt.Sprintf("%02d:%s:%s", hh, parts[1], parts[2])
}

// padTimeTo24 normalizes a loose time token (optionally missing seconds,
// optionally carrying a trailing AM/PM) to zero-padded 24-hour HH:MM:SS.
func padTimeTo24(t string) string {
	t = strings.TrimSpace(t)
	if m := regexp.MustCompile(`(?i)\b(\d{1,2}:\d{2}(?::\d{2})?)\s*([ap]\.?m\.?)`).FindStringSubmatch(t); m != nil {
		tt := m[1]
		if !regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}$`).MatchString(tt) {
			tt += ":00"
		}
		return normalizeTimeTo24(tt, m[2])
	}
	if regexp.MustCompile(`^\d{1,2}:\d{2}$`).MatchString(t) {
		t += ":00"
	}
	if m := regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`).FindStringSubmatch(t); m != nil {
		hh, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%02d:%s:%s", hh, m[2], m[3])
	}
	return t
}

// normalizeDateTimeToISO converts a raw date (DD-MM-YYYY or YYYY-MM-DD, "/" or
// "-" separated, optional time suffix) to YYYY-MM-DD or YYYY-MM-DDTHH:MM:SS.
func normalizeDateTimeToISO(input string) (string, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", false
	}
	datePart, timePart := s, ""
	if i := strings.IndexAny(s, "T "); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
	}
	datePart = strings.TrimSpace(strings.ReplaceAll(datePart, "/", "-"))

	withTime := func(dateISO string) string {
		if strings.TrimSpace(timePart) != "" {
			return dateISO + "T" + padTimeTo24(timePart)
		}
		return dateISO
	}

	if m := reYMDLoose.FindStringSubmatch(datePart); m != nil {
		mm, _ := strconv.Atoi(m[2])
		dd, _ := strconv.Atoi(m[3])
		return withTime(fmt.Sprintf("%s-%02d-%02d", m[1], mm, dd)), true
	}
	if m := reDMYLoose.FindStringSubmatch(datePart); m != nil {
		dd, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return withTime(fmt.Sprintf("%s-%02d-%02d", m[3], mm, dd)), true
	}

	// Loose scan over the whole string when the shape is embedded in noise.
	if m := regexp.MustCompile(`(20\d{2}[-/]\d{1,2}[-/]\d{1,2})[T\s]*(\d{1,2}:\d{2}:\d{2})`).FindStringSubmatch(s); m != nil {
		return strings.ReplaceAll(m[1], "/", "-") + "T" + padTimeTo24(m[2]), true
	}
	if m := regexp.MustCompile(`(\d{1,2}[-/]\d{1,2}[-/]\d{4})`).FindStringSubmatch(s); m != nil {
		g := strings.ReplaceAll(m[1], "/", "-")
		if md := reDMYLoose.FindStringSubmatch(g); md != nil {
			dd, _ := strconv.Atoi(md[1])
			mm, _ := strconv.Atoi(md[2])
			return fmt.Sprintf("%s-%02d-%02d", md[3], mm, dd), true
		}
	}
	return "", false
}

// findDateTimeNearKeywords searches a bounded window around any of the given
// accent-insensitive keywords for a date (preferring one with a time).
func findDateTimeNearKeywords(text string, keywords []string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, kw := range keywords {
		k := RemoveAccents(strings.ToLower(kw))
		idx := indexFold(text, k)
		if idx < 0 {
			continue
		}
		win := window(text, idx, 120, len(k)+250)
		if m := reISODateTime.FindStringSubmatch(win); m != nil {
			if norm, ok := normalizeDateTimeToISO(m[1] + " " + m[2]); ok {
				return norm, true
			}
		}
		if m := reDMYDateTime.FindStringSubmatch(win); m != nil {
			if norm, ok := normalizeDateTimeToISO(m[1] + " " + m[2]); ok {
				return norm, true
			}
		}
		if m := reAnyDate.FindString(win); m != "" {
			norm, ok := normalizeDateTimeToISO(m)
			if !ok {
				continue
			}
			if t := reTimeAMPM.FindStringSubmatch(win); t != nil {
				clock := normalizeTimeTo24(t[1], t[2])
				dateOnly := norm
				if i := strings.Index(dateOnly, "T"); i >= 0 {
					dateOnly = dateOnly[:i]
				}
				return dateOnly + "T" + clock, true
			}
			return norm, true
		}
	}
	return "", false
}

// extractGeneratedAt resolves the document-generation timestamp through the
// full fallback chain: explicit label, keyword window, then generic
// ISO-datetime / DMY-datetime / bare DMY / bare YMD anywhere.
func extractGeneratedAt(doc Document) string {
	combined := doc.Collapsed + " " + doc.Raw

	if doc.Collapsed != "" {
		if m := reGeneratedLabel.FindStringSubmatch(doc.Collapsed); m != nil {
			if norm, ok := normalizeDateTimeToISO(m[1]); ok {
				return norm
			}
		}
	}
	if found, ok := findDateTimeNearKeywords(combined, generatedAtKeywords); ok {
		return found
	}
	if m := reISODateTime.FindStringSubmatch(combined); m != nil {
		return strings.ReplaceAll(m[1], "/", "-") + "T" + padTimeTo24(m[2])
	}
	if m := reDMYDateTime.FindStringSubmatch(combined); m != nil {
		if norm, ok := normalizeDateTimeToISO(m[1] + " " + m[2]); ok {
			return norm
		}
	}
	if m := reDMYDate.FindStringSubmatch(combined); m != nil {
		if norm, ok := normalizeDateTimeToISO(m[1]); ok {
			return norm
		}
	}
	if m := reYMDDate.FindStringSubmatch(combined); m != nil {
		return strings.ReplaceAll(m[1], "/", "-")
	}
	return ""
}

// extractIssueDate resolves "Fecha expedición" independently of the generation
// timestamp; the caller applies the generation-date fallback afterwards.
func extractIssueDate(doc Document) string {
	if doc.Collapsed != "" {
		if m := reIssueLabel.FindStringSubmatch(doc.Collapsed); m != nil {
			if norm, ok := normalizeDateTimeToISO(m[1]); ok {
				return norm
			}
		}
	}
	if doc.Raw != "" {
		// Digit runs like the form number also match the shape; keep
		// scanning until a candidate is a real calendar date.
		for _, m := range regexp.MustCompile(`(\d{2}[-/\s]?\d{2}[-/\s]?\d{4})`).FindAllStringSubmatch(doc.Raw, -1) {
			g := strings.NewReplacer(" ", "-", "/", "-").Replace(m[1])
			if norm, ok := normalizeDateTimeToISO(g); ok {
				return norm
			}
		}
	}
	return ""
}

// enrichGeneratedWithTime tries to find a more precise clock near the resolved
// date's DD-MM-YYYY textual representation and attaches or replaces the time
// component without duplicating the "T" separator.
func enrichGeneratedWithTime(current string, doc Document) string {
	combined := doc.Collapsed + " " + doc.Raw
	if current == "" {
		if m := regexp.MustCompile(`(?i)(20\d{2}[-/]\d{2}[-/]\d{2})[\sT]*(\d{1,2}:\d{2}:\d{2})(?:\s*([ap]\.?m\.?))?`).FindStringSubmatch(combined); m != nil {
			return strings.ReplaceAll(m[1], "/", "-") + "T" + normalizeTimeTo24(m[2], m[3])
		}
		return current
	}

	dateOnly := current
	if i := strings.Index(current, "T"); i >= 0 {
		dateOnly = current[:i]
	}
	parts := strings.Split(dateOnly, "-")
	if len(parts) != 3 {
		return current
	}
	y, _ := strconv.Atoi(parts[0])
	mo, _ := strconv.Atoi(parts[1])
	d, _ := strconv.Atoi(parts[2])
	dmy := fmt.Sprintf("%02d-%02d-%04d", d, mo, y)

	idx := strings.Index(combined, dmy)
	if idx < 0 {
		idx = strings.Index(combined, strings.ReplaceAll(dmy, "-", "/"))
	}
	if idx >= 0 {
		win := window(combined, idx, 80, 80)
		if m := reTimeAMPM.FindStringSubmatch(win); m != nil {
			if clock := normalizeTimeTo24(m[1], m[2]); clock != "" {
				return dateOnly + "T" + clock
			}
		}
	}
	if strings.Contains(current, "T") {
		return current
	}
	// No nearby clock; take any clock in the text before giving up.
	if m := reTimeAMPM.FindStringSubmatch(combined); m != nil {
		if clock := normalizeTimeTo24(m[1], m[2]); clock != "" {
			return dateOnly + "T" + clock
		}
	}
	return current
}
