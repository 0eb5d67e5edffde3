package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/fetch"
	"github.com/ironfeed-hq/ironfeed/internal/index"
	"github.com/ironfeed-hq/ironfeed/pkg/httpclient"
)

// fakeResponse and fakeClient stand in for the resty-backed client so tests
// stay fully offline.
type fakeResponse struct {
	status      int
	body        []byte
	contentType string
}

func (r *fakeResponse) StatusCode() int { return r.status }
func (r *fakeResponse) Body() []byte    { return r.body }

func (r *fakeResponse) Header(name string) string {
	if name == "Content-Type" {
		return r.contentType
	}
	return ""
}

type fakeClient struct {
	responses map[string]*fakeResponse
}

func (c *fakeClient) Get(_ context.Context, url string, _ map[string]string) (httpclient.Response, error) {
	resp, ok := c.responses[url]
	if !ok {
		return nil, fmt.Errorf("no route for %s", url)
	}
	return resp, nil
}

// fakeStore records upserts and can be told to fail.
type fakeStore struct {
	mu       sync.Mutex
	upserted []domain.Record
	failWith error
}

func (s *fakeStore) EnsureIndex(context.Context, string) error { return s.failWith }

func (s *fakeStore) Upsert(_ context.Context, _ string, records []domain.Record) (index.UpsertResult, error) {
	if s.failWith != nil {
		return index.UpsertResult{}, s.failWith
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserted = append(s.upserted, records...)
	return index.UpsertResult{Accepted: len(records), TaskUID: 7}, nil
}

func (s *fakeStore) Get(context.Context, string, string) (domain.Record, error) {
	return domain.Record{}, index.ErrNotFound
}

func (s *fakeStore) Search(context.Context, string, string, int64) (index.SearchResult, error) {
	return index.SearchResult{}, nil
}

func rssBody(items string) []byte {
	return fmt.Appendf(nil, `<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>%s</channel></rss>`, items)
}

func feedSource(uri, label string) domain.Source {
	return domain.Source{URI: uri, Kind: domain.SourceKindFeed, Label: label}
}

func htmlSource(uri, label string) domain.Source {
	return domain.Source{
		URI:   uri,
		Kind:  domain.SourceKindHTML,
		Label: label,
		HTML: &domain.HTMLRules{
			Containers: []string{"article"},
			Title:      []string{"h3 a"},
			Link:       []string{"h3 a"},
			Date:       []string{".event-date"},
		},
	}
}

func newTestPipeline(client httpclient.Client, store index.Store) *Pipeline {
	fetcher := fetch.New(client, nil)
	return New(fetcher, store, nil, nil, 0, 0)
}

func TestRunSourceFailureDoesNotAbortSiblings(t *testing.T) {
	client := &fakeClient{responses: map[string]*fakeResponse{
		"https://a.example/feed": {
			status:      200,
			contentType: "application/rss+xml",
			body:        rssBody(`<item><title>A One</title><link>https://a.example/1</link></item>`),
		},
		"https://b.example/feed": {status: 503, contentType: "text/html", body: []byte("maintenance")},
		"https://c.example/feed": {
			status:      200,
			contentType: "application/rss+xml",
			body:        rssBody(`<item><title>C One</title><link>https://c.example/1</link></item>`),
		},
	}}
	store := &fakeStore{}
	p := newTestPipeline(client, store)

	srcs := []domain.Source{
		feedSource("https://a.example/feed", "a.example"),
		feedSource("https://b.example/feed", "b.example"),
		feedSource("https://c.example/feed", "c.example"),
	}

	summary, err := p.Run(context.Background(), srcs, "bodybuilding")
	require.NoError(t, err)

	assert.True(t, summary.OK)
	assert.Equal(t, 3, summary.SourcesConfigured)
	assert.Equal(t, 2, summary.SourcesSucceeded)
	assert.Equal(t, 2, summary.RecordsIndexed)
	require.Len(t, summary.Errors, 1)
	assert.Equal(t, "b.example", summary.Errors[0].Source)
	assert.Contains(t, summary.Errors[0].Message, "503")
	assert.Len(t, store.upserted, 2)
}

func TestRunDeduplicatesAcrossSources(t *testing.T) {
	// Both sources describe https://example.com/a; the feed source comes
	// first in the list, so its rendition wins.
	client := &fakeClient{responses: map[string]*fakeResponse{
		"https://example.com/feed": {
			status:      200,
			contentType: "application/rss+xml",
			body: rssBody(`<item>
				<title>Mr Olympia 2025</title>
				<link>https://example.com/a</link>
				<pubDate>Fri, 21 Nov 2025 10:00:00 +0000</pubDate>
			</item>`),
		},
		"https://example.com/shows": {
			status:      200,
			contentType: "text/html",
			body: []byte(`<html><body><article>
				<h3><a href="/a">Mr Olympia 2025 (listing)</a></h3>
				<span class="event-date">November 21, 2025</span>
			</article></body></html>`),
		},
	}}
	store := &fakeStore{}
	p := newTestPipeline(client, store)

	srcs := []domain.Source{
		feedSource("https://example.com/feed", "example.com feed"),
		htmlSource("https://example.com/shows", "example.com shows"),
	}

	summary, err := p.Run(context.Background(), srcs, "bodybuilding")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.RecordsExtracted)
	assert.Equal(t, 1, summary.RecordsDuplicate)
	assert.Equal(t, 1, summary.RecordsIndexed)

	require.Len(t, store.upserted, 1)
	rec := store.upserted[0]
	assert.Equal(t, "https://example.com/a", rec.URL)
	assert.Equal(t, "Mr Olympia 2025", rec.Title)
	assert.Equal(t, "2025-11-21", rec.Date)
}

func TestRunIdempotent(t *testing.T) {
	client := &fakeClient{responses: map[string]*fakeResponse{
		"https://a.example/feed": {
			status:      200,
			contentType: "application/rss+xml",
			body:        rssBody(`<item><title>Stable</title><link>https://a.example/1</link></item>`),
		},
	}}
	store := &fakeStore{}
	p := newTestPipeline(client, store)
	srcs := []domain.Source{feedSource("https://a.example/feed", "a.example")}

	first, err := p.Run(context.Background(), srcs, "bodybuilding")
	require.NoError(t, err)
	second, err := p.Run(context.Background(), srcs, "bodybuilding")
	require.NoError(t, err)

	assert.Equal(t, first.RecordsIndexed, second.RecordsIndexed)
	require.Len(t, store.upserted, 2)
	// Re-running yields the same identity, so the store sees an upsert of
	// the identical document rather than a new one.
	assert.Equal(t, store.upserted[0].ID, store.upserted[1].ID)
}

func TestRunReportsEmptySources(t *testing.T) {
	client := &fakeClient{responses: map[string]*fakeResponse{
		"https://example.com/shows": {
			status:      200,
			contentType: "text/html",
			body:        []byte(`<html><body><div class="redesigned">nothing matches</div></body></html>`),
		},
	}}
	store := &fakeStore{}
	p := newTestPipeline(client, store)
	srcs := []domain.Source{htmlSource("https://example.com/shows", "example.com shows")}

	summary, err := p.Run(context.Background(), srcs, "shows")
	require.NoError(t, err)

	assert.True(t, summary.OK)
	assert.Equal(t, 1, summary.SourcesSucceeded)
	assert.Empty(t, summary.Errors)
	assert.Equal(t, []string{"example.com shows"}, summary.EmptySources)
	assert.Empty(t, store.upserted)
}

func TestRunStoreFailureFailsRun(t *testing.T) {
	client := &fakeClient{responses: map[string]*fakeResponse{
		"https://a.example/feed": {
			status:      200,
			contentType: "application/rss+xml",
			body:        rssBody(`<item><title>A</title><link>https://a.example/1</link></item>`),
		},
	}}
	store := &fakeStore{failWith: &index.Error{Err: errors.New("connection refused")}}
	p := newTestPipeline(client, store)
	srcs := []domain.Source{feedSource("https://a.example/feed", "a.example")}

	summary, err := p.Run(context.Background(), srcs, "bodybuilding")
	require.Error(t, err)
	assert.False(t, summary.OK)
	assert.Zero(t, summary.RecordsIndexed)
}

func TestRunNoSources(t *testing.T) {
	store := &fakeStore{}
	p := newTestPipeline(&fakeClient{responses: map[string]*fakeResponse{}}, store)

	summary, err := p.Run(context.Background(), nil, "bodybuilding")
	require.NoError(t, err)
	assert.True(t, summary.OK)
	assert.Zero(t, summary.SourcesConfigured)
	assert.NotEmpty(t, summary.RunID)
}
