package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// httpPublisher posts run events as JSON to a configured webhook.
type httpPublisher struct {
	id     string
	typ    string
	cfg    HTTPPublisherConfig
	client *resty.Client
	log    Logger
}

// newHTTPPublisher creates an HTTP sink publisher.
func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}

	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second)

	return &httpPublisher{
		id:     cfg.ID,
		typ:    cfg.Type,
		cfg:    *cfg.HTTP,
		client: client,
		log:    ensureLogger(log),
	}, nil
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return p.typ }

// Publish delivers the run event to the configured URL. Any 2xx status
// counts as delivered.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(evt)
	for k, v := range p.cfg.Headers {
		req.SetHeader(k, v)
	}

	resp, err := req.Execute(p.cfg.Method, p.cfg.URL)
	if err != nil {
		p.log.ErrorObj("http publisher send failed", "publisher_http_error", map[string]any{
			"error": err.Error(),
		})
		return fmt.Errorf("post event to %s: %w", p.cfg.URL, err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return fmt.Errorf("http sink %s returned status %d", p.cfg.URL, resp.StatusCode())
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"status": resp.StatusCode(),
	})
	return nil
}
