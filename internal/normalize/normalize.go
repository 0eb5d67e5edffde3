// Package normalize converts raw extraction results into canonical records:
// plain-text fields, absolute URLs, ISO calendar dates and stable identity
// keys.
package normalize

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
)

var (
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// CleanText strips markup tags, decodes entities, collapses whitespace runs
// to single spaces and trims the ends.
func CleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ResolveLink resolves a possibly relative link against the source URI. An
// already absolute link is returned unchanged.
func ResolveLink(link, base string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}

	parsed, err := url.Parse(link)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}

	baseURL, err := url.Parse(base)
	if err != nil || !baseURL.IsAbs() {
		return ""
	}
	return baseURL.ResolveReference(parsed).String()
}

// Identity derives the stable identity key for a record: the URL hash when
// present, otherwise a hash of the title so reused sentinel titles cannot
// collide with real URLs.
func Identity(recordURL, title string) string {
	input := recordURL
	if input == "" {
		input = title
	}
	sum := sha1.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Record normalizes one raw record. It returns false when the record must
// be dropped: after cleaning, both a title and an absolute URL are required.
func Record(raw domain.RawRecord, sourceURI string) (domain.Record, bool) {
	title := CleanText(raw.Title)
	recordURL := ResolveLink(raw.Link, sourceURI)
	if title == "" || recordURL == "" {
		return domain.Record{}, false
	}

	rec := domain.Record{
		ID:         Identity(recordURL, title),
		Title:      title,
		URL:        recordURL,
		Source:     raw.Source,
		Federation: raw.Federation,
		Location:   CleanText(raw.LocationText),
		Summary:    CleanText(raw.SummaryText),
	}

	if dateText := CleanText(raw.DateText); dateText != "" {
		if date, ok := Date(dateText); ok {
			rec.Date = date
		} else {
			// Unparseable dates stay absent rather than being guessed;
			// the raw text is kept for operators.
			rec.DateRaw = dateText
		}
	}
	return rec, true
}
