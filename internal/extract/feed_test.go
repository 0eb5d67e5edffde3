package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
)

func rssDoc(items string) []byte {
	return []byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>feed</title>` + items + `</channel></rss>`)
}

func feedSource() domain.Source {
	return domain.Source{
		URI:   "https://barbend.com/feed/",
		Kind:  domain.SourceKindFeed,
		Label: "barbend.com",
	}
}

func TestFeedRecordsRSS(t *testing.T) {
	content := rssDoc(`
		<item>
			<title>Show A</title>
			<link>https://example.com/a</link>
			<description>Recap of show A</description>
			<pubDate>Wed, 21 Nov 2025 10:00:00 GMT</pubDate>
		</item>`)

	records, err := feedRecords(content, feedSource(), DefaultMaxPerSource)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "barbend.com", rec.Source)
	assert.Equal(t, "Show A", rec.Title)
	assert.Equal(t, "https://example.com/a", rec.Link)
	assert.Equal(t, "Wed, 21 Nov 2025 10:00:00 GMT", rec.DateText)
	assert.Equal(t, "Recap of show A", rec.SummaryText)
}

func TestFeedRecordsAtom(t *testing.T) {
	content := []byte(`<?xml version="1.0"?>
		<feed xmlns="http://www.w3.org/2005/Atom">
			<title>channel</title>
			<entry>
				<title>Video drop</title>
				<link href="https://youtube.com/watch?v=1"/>
				<updated>2025-11-21T10:00:00Z</updated>
			</entry>
		</feed>`)

	records, err := feedRecords(content, feedSource(), DefaultMaxPerSource)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Video drop", records[0].Title)
	assert.Equal(t, "https://youtube.com/watch?v=1", records[0].Link)
	assert.NotEmpty(t, records[0].DateText)
}

func TestFeedRecordsMissingLinkDiscarded(t *testing.T) {
	content := rssDoc(`
		<item><title>no target</title></item>
		<item><title>ok</title><link>https://example.com/ok</link></item>`)

	records, err := feedRecords(content, feedSource(), DefaultMaxPerSource)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ok", records[0].Title)
}

func TestFeedRecordsMissingTitleFallsBackToLink(t *testing.T) {
	content := rssDoc(`<item><link>https://example.com/untitled</link></item>`)

	records, err := feedRecords(content, feedSource(), DefaultMaxPerSource)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://example.com/untitled", records[0].Title)
}

func TestFeedRecordsCap(t *testing.T) {
	var items strings.Builder
	for i := range 10 {
		fmt.Fprintf(&items, `<item><title>n%d</title><link>https://example.com/%d</link></item>`, i, i)
	}

	records, err := feedRecords(rssDoc(items.String()), feedSource(), 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "n0", records[0].Title)
}

func TestFeedRecordsBadXML(t *testing.T) {
	_, err := feedRecords([]byte("<html><body>not a feed</body></html>"), feedSource(), DefaultMaxPerSource)
	assert.Error(t, err)
}
