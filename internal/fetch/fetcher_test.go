package fetch

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/pkg/httpclient"
)

type stubResponse struct {
	status      int
	body        []byte
	contentType string
}

func (r *stubResponse) StatusCode() int { return r.status }
func (r *stubResponse) Body() []byte    { return r.body }

func (r *stubResponse) Header(name string) string {
	if name == "Content-Type" {
		return r.contentType
	}
	return ""
}

type stubClient struct {
	resp *stubResponse
	err  error
}

func (c *stubClient) Get(context.Context, string, map[string]string) (httpclient.Response, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

func TestFetchOK(t *testing.T) {
	body := []byte(`<?xml version="1.0"?><rss></rss>`)
	f := New(&stubClient{resp: &stubResponse{status: 200, body: body, contentType: "application/rss+xml"}}, nil)

	res, err := f.Fetch(context.Background(), domain.Source{URI: "https://a.example/feed", Label: "a.example"})
	require.NoError(t, err)
	assert.Equal(t, KindXML, res.Kind)
	assert.Equal(t, body, res.Body)
}

func TestFetchNon200(t *testing.T) {
	f := New(&stubClient{resp: &stubResponse{status: 503, body: []byte("down"), contentType: "text/html"}}, nil)

	_, err := f.Fetch(context.Background(), domain.Source{URI: "https://b.example", Label: "b.example"})
	require.Error(t, err)

	var fetchErr *Error
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, 503, fetchErr.Status)
	assert.Equal(t, "b.example", fetchErr.Source)
}

func TestFetchTransportError(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	f := New(&stubClient{err: cause}, nil)

	_, err := f.Fetch(context.Background(), domain.Source{URI: "https://c.example", Label: "c.example"})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestFetchTruncatesOversizedBody(t *testing.T) {
	huge := bytes.Repeat([]byte("x"), maxBodyBytes+100)
	f := New(&stubClient{resp: &stubResponse{status: 200, body: huge, contentType: "text/html"}}, nil)

	res, err := f.Fetch(context.Background(), domain.Source{URI: "https://d.example", Label: "d.example"})
	require.NoError(t, err)
	assert.Len(t, res.Body, maxBodyBytes)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"rss content type", "application/rss+xml; charset=utf-8", "whatever", KindXML},
		{"atom content type", "application/atom+xml", "whatever", KindXML},
		{"html content type", "text/html; charset=utf-8", "<?xml version=\"1.0\"?>", KindHTML},
		{"xml declaration sniffed", "application/octet-stream", "<?xml version=\"1.0\"?><rss/>", KindXML},
		{"rss tag sniffed", "", "  \n<rss version=\"2.0\">", KindXML},
		{"atom feed tag sniffed", "", "<feed xmlns=\"http://www.w3.org/2005/Atom\">", KindXML},
		{"rdf tag sniffed case insensitive", "", "<RDF:rdf>", KindXML},
		{"bom then xml", "", "\uFEFF<?xml version=\"1.0\"?>", KindXML},
		{"plain html", "", "<!DOCTYPE html><html>", KindHTML},
		{"empty body defaults to html", "", "", KindHTML},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := detectKind(tc.contentType, []byte(tc.body))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResponseSnippet(t *testing.T) {
	assert.Equal(t, "<empty>", responseSnippet(nil))
	assert.Equal(t, "short", responseSnippet([]byte("  short \n")))

	long := strings.Repeat("a", 600)
	snippet := responseSnippet([]byte(long))
	assert.Len(t, snippet, 512+3)
	assert.True(t, strings.HasSuffix(snippet, "..."))
}
