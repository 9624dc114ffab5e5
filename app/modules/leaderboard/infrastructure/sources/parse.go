package sources

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	numberRe = regexp.MustCompile(`[-+]?\d+(\.\d+)?`)
)

// normKey canonicalizes a header or candidate name for fuzzy matching:
// trimmed, lowercased, inner whitespace collapsed.
func normKey(s string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

// findColumn resolves a column in headers against a candidate list, exact
// match first, then substring, both case and whitespace insensitive. It
// returns the header as spelled in the export, or "" when nothing matches.
func findColumn(headers []string, candidates []string) string {
	norm := make([]string, len(headers))
	for i, h := range headers {
		norm[i] = normKey(h)
	}
	cands := make([]string, len(candidates))
	for i, c := range candidates {
		cands[i] = normKey(c)
	}

	for i, nh := range norm {
		for _, c := range cands {
			if nh == c {
				return headers[i]
			}
		}
	}
	for i, nh := range norm {
		for _, c := range cands {
			if c != "" && strings.Contains(nh, c) {
				return headers[i]
			}
		}
	}
	return ""
}

var absentValues = map[string]struct{}{
	"na": {}, "n/a": {}, "none": {}, "null": {}, "-": {},
}

// parseFloat extracts the first numeric token from a messy leaderboard cell
// ("0.6845", "0.68 (1)", "1,234.5"). NA-style placeholders and cells with no
// number at all return nil.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, absent := absentValues[strings.ToLower(s)]; absent {
		return nil
	}
	s = strings.ReplaceAll(s, ",", "")
	m := numberRe.FindString(s)
	if m == "" {
		return nil
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &f
}

// dateFormats covers the submission date styles seen across CodaLab and
// CodaBench exports.
var dateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"January 2, 2006",
}

// parseDate parses a leaderboard date in any supported format. ISO-8601 with
// or without offset is tried first.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	iso := strings.Replace(s, "Z", "+00:00", 1)
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999-07:00",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02 15:04:05.999999-07:00",
	} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t, true
		}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// formatDisplayDate renders a date in the site's style, e.g. "Oct. 05, 2021".
// September abbreviates to "Sept." to match the hand-written rows the site
// started with.
func formatDisplayDate(t time.Time) string {
	month := t.Format("Jan")
	if month == "Sep" {
		month = "Sept"
	}
	return month + ". " + t.Format("02, 2006")
}

// dateISO renders the date-only ISO form.
func dateISO(t time.Time) string {
	return t.Format("2006-01-02")
}
