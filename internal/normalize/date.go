package normalize

import (
	"regexp"
	"strings"
	"time"
)

// isoDate is the canonical calendar-date form all parses reduce to.
const isoDate = "2006-01-02"

// dateLayouts is the fixed, ordered list of recognized date formats: strict
// calendar forms first, then feed pubDate layouts, then the common human
// formats. Anything outside this list is left unparsed on purpose —
// guessing silently corrupts calendar data.
var dateLayouts = []string{
	isoDate,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"January 2, 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
}

// dayRangePattern matches a day-in-month range like "21-22" or "21 – 23".
var dayRangePattern = regexp.MustCompile(`(\d{1,2})\s*[-–]\s*\d{1,2}`)

// Date normalizes free-form date text to YYYY-MM-DD. Returns false when the
// text matches none of the recognized formats; callers leave the date absent
// in that case, never defaulting to today.
func Date(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if date, ok := parseLayouts(text); ok {
		return date, true
	}

	// A date range keeps only its first day: "November 21-22, 2025" is
	// indexed under the 21st.
	if collapsed := dayRangePattern.ReplaceAllString(text, "$1"); collapsed != text {
		if date, ok := parseLayouts(collapsed); ok {
			return date, true
		}
	}

	return "", false
}

func parseLayouts(text string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format(isoDate), true
		}
	}
	return "", false
}
