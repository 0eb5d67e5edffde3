// Package extract turns fetched source content into raw candidate records.
//
// Extraction is deliberately tolerant: HTML structures vary by site and by
// deploy, so every field is read through an ordered list of attempts and the
// first non-empty match wins. Producing zero records is not an error; the
// pipeline surfaces it separately so operators can spot structure changes.
package extract

import (
	"fmt"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/fetch"
)

// DefaultMaxPerSource bounds extraction cost per source per run. A safety
// cap, not an error condition.
const DefaultMaxPerSource = 40

// Records extracts raw candidate records from fetched content, at most
// maxPerSource of them, preserving document order.
func Records(content []byte, kind string, src domain.Source, maxPerSource int) ([]domain.RawRecord, error) {
	if maxPerSource <= 0 {
		maxPerSource = DefaultMaxPerSource
	}

	switch kind {
	case fetch.KindXML:
		return feedRecords(content, src, maxPerSource)
	case fetch.KindHTML:
		return htmlRecords(content, src, maxPerSource)
	default:
		return nil, fmt.Errorf("unknown content kind %q for source %s", kind, src.Label)
	}
}
