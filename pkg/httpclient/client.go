package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// UserAgent identifies this service to the sites it scrapes.
	UserAgent = "ironfeed-ingest/1.0 (+https://github.com/ironfeed-hq/ironfeed)"

	maxRedirects = 5
)

// Response is the subset of an HTTP response the pipeline needs.
type Response interface {
	StatusCode() int
	Body() []byte
	Header(name string) string
}

// Client issues single GET requests with a bounded timeout.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

type restyClient struct {
	client *resty.Client
}

// NewRestyClient returns a Client tuned for scraping: fixed timeout, capped
// redirects and an identifying User-Agent.
func NewRestyClient(timeout time.Duration) Client {
	c := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects)).
		SetHeader("User-Agent", UserAgent)
	return &restyClient{client: c}
}

func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := c.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponse{resp: resp}, nil
}

type restyResponse struct {
	resp *resty.Response
}

func (r *restyResponse) StatusCode() int { return r.resp.StatusCode() }
func (r *restyResponse) Body() []byte    { return r.resp.Body() }

func (r *restyResponse) Header(name string) string {
	return r.resp.Header().Get(name)
}
