package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
)

// htmlRecords scans an HTML listing page for repeating container blocks and
// reads each field through its ordered selector attempts.
func htmlRecords(content []byte, src domain.Source, maxPerSource int) ([]domain.RawRecord, error) {
	rules := src.HTML
	if rules == nil {
		return nil, fmt.Errorf("html source %s has no extraction rules", src.Label)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", src.Label, err)
	}

	containers := findContainers(doc, rules.Containers)
	if containers == nil {
		return nil, nil
	}

	var records []domain.RawRecord
	containers.EachWithBreak(func(_ int, block *goquery.Selection) bool {
		if len(records) >= maxPerSource {
			return false
		}

		records = append(records, domain.RawRecord{
			Source:       src.Label,
			Federation:   src.Federation,
			Title:        firstText(block, rules.Title),
			Link:         firstHref(block, rules.Link),
			DateText:     firstText(block, rules.Date),
			LocationText: firstText(block, rules.Location),
			SummaryText:  firstText(block, rules.Summary),
		})
		return true
	})
	return records, nil
}

// findContainers tries each container selector in order and returns the
// matches of the first one that yields any.
func findContainers(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if nodes := doc.Find(sel); nodes.Length() > 0 {
			return nodes
		}
	}
	return nil
}

// firstText returns the first non-empty text among the selector attempts.
func firstText(block *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if node := block.Find(sel).First(); node.Length() > 0 {
			if text := strings.TrimSpace(node.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// firstHref returns the first non-empty link target among the selector
// attempts. A selector may match the anchor itself or an element wrapping
// one.
func firstHref(block *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		node := block.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		if href, ok := node.Attr("href"); ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href)
		}
		if anchor := node.Find("a[href]").First(); anchor.Length() > 0 {
			if href, ok := anchor.Attr("href"); ok && strings.TrimSpace(href) != "" {
				return strings.TrimSpace(href)
			}
		}
	}
	return ""
}
