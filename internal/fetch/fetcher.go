package fetch

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/logger"
	"github.com/ironfeed-hq/ironfeed/pkg/httpclient"
)

// Content kinds detected for a fetched body.
const (
	KindXML  = "xml"
	KindHTML = "html"
)

const maxBodyBytes = 4 << 20 // 4 MiB

// Result is a successfully fetched source body plus its detected kind.
type Result struct {
	Body []byte
	Kind string
}

// Error is a recoverable, per-source fetch failure. One source failing must
// never abort fetching of its siblings.
type Error struct {
	Source string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.Source, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Fetcher retrieves raw source content with a bounded timeout and an
// identifying client header. No retries; retry policy belongs to the caller.
type Fetcher struct {
	client httpclient.Client
	log    logger.Logger
}

// New creates a Fetcher with the given HTTP client and logger.
func New(client httpclient.Client, log logger.Logger) *Fetcher {
	if client == nil {
		client = httpclient.NewRestyClient(15 * time.Second)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Fetcher{client: client, log: log}
}

// Fetch retrieves one source and detects whether the body is XML or HTML.
// Detection uses the response headers and then the leading bytes, never the
// URL shape alone: a .xml path can still 404 into an HTML error page.
func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (Result, error) {
	resp, err := f.client.Get(ctx, src.URI, nil)
	if err != nil {
		return Result{}, &Error{Source: src.Label, Err: err}
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		f.log.WarnObj("source fetch returned non-200", "fetch_status_error", map[string]any{
			"source": src.Label,
			"status": resp.StatusCode(),
			"body":   responseSnippet(body),
		})
		return Result{}, &Error{Source: src.Label, Status: resp.StatusCode()}
	}

	if len(body) > maxBodyBytes {
		f.log.InfoObj("source body truncated", "fetch_truncation", map[string]any{
			"source":   src.Label,
			"original": len(body),
			"kept":     maxBodyBytes,
		})
		body = body[:maxBodyBytes]
	}

	return Result{Body: body, Kind: detectKind(resp.Header("Content-Type"), body)}, nil
}

// detectKind classifies a body as XML or HTML.
func detectKind(contentType string, body []byte) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "xml"):
		return KindXML
	case strings.Contains(ct, "html"):
		return KindHTML
	}

	lead := bytes.TrimLeft(body, " \t\r\n\uFEFF")
	for _, prefix := range []string{"<?xml", "<rss", "<feed", "<rdf"} {
		if len(lead) >= len(prefix) && strings.EqualFold(string(lead[:len(prefix)]), prefix) {
			return KindXML
		}
	}
	return KindHTML
}

// responseSnippet returns a truncated snippet of the response body for logging.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
