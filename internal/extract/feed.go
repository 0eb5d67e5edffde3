package extract

import (
	"bytes"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
)

// untitledSentinel replaces a missing title; a record never carries an empty
// title out of the extractor.
const untitledSentinel = "(untitled)"

// feedRecords parses RSS/Atom content into raw records. An item with no
// addressable link is discarded; a missing title falls back to the link
// text, then to the sentinel.
func feedRecords(content []byte, src domain.Source, maxPerSource int) ([]domain.RawRecord, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Label, err)
	}

	records := make([]domain.RawRecord, 0, min(len(feed.Items), maxPerSource))
	for _, item := range feed.Items {
		if len(records) >= maxPerSource {
			break
		}

		link := itemLink(item)
		if link == "" {
			continue
		}

		title := item.Title
		if title == "" {
			title = link
		}
		if title == "" {
			title = untitledSentinel
		}

		summary := item.Description
		if summary == "" {
			summary = item.Content
		}

		records = append(records, domain.RawRecord{
			Source:      src.Label,
			Federation:  src.Federation,
			Title:       title,
			Link:        link,
			DateText:    itemDate(item),
			SummaryText: summary,
		})
	}
	return records, nil
}

func itemLink(item *gofeed.Item) string {
	if item.Link != "" {
		return item.Link
	}
	for _, l := range item.Links {
		if l != "" {
			return l
		}
	}
	return ""
}

// itemDate prefers the raw published text so the normalizer sees the
// source's own formatting; parsed timestamps cover feeds where gofeed
// already decoded a non-standard field.
func itemDate(item *gofeed.Item) string {
	if item.Published != "" {
		return item.Published
	}
	if item.Updated != "" {
		return item.Updated
	}
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC().Format(time.RFC3339)
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC().Format(time.RFC3339)
	}
	return ""
}
