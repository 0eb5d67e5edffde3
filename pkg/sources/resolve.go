package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ironfeed-hq/ironfeed/internal/cache"
	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/logger"
	"github.com/ironfeed-hq/ironfeed/pkg/httpclient"
)

const (
	youtubeFeedURL     = "https://www.youtube.com/feeds/videos.xml?channel_id=%s"
	youtubeCacheBucket = "youtube_channels"
)

// Channel ids surface in a few different spots in a channel page depending
// on the rendering path; all are tried in order.
var channelIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"channelId":"(UC[0-9A-Za-z_-]+)"`),
	regexp.MustCompile(`itemprop="channelId"\s+content="(UC[0-9A-Za-z_-]+)"`),
	regexp.MustCompile(`data-channel-external-id="(UC[0-9A-Za-z_-]+)"`),
}

// Resolver turns declared source URIs, including the yt:/reddit: shorthands,
// into fetchable sources with labels. Resolved YouTube channel ids are
// cached so handles are not re-resolved every run.
type Resolver struct {
	client httpclient.Client
	cache  *cache.Bolt
	log    logger.Logger
}

// NewResolver builds a Resolver. The cache may be nil.
func NewResolver(client httpclient.Client, c *cache.Bolt, log logger.Logger) *Resolver {
	if client == nil {
		client = httpclient.NewRestyClient(15 * time.Second)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Resolver{client: client, cache: c, log: log}
}

// Resolve maps each declared source to a fetchable one, preserving order.
// Sources that cannot be resolved are dropped and reported; they never abort
// the rest of the list.
func (r *Resolver) Resolve(ctx context.Context, declared []domain.Source) ([]domain.Source, []domain.SourceError) {
	out := make([]domain.Source, 0, len(declared))
	var errs []domain.SourceError

	for _, src := range declared {
		resolved, err := r.resolveOne(ctx, src)
		if err != nil {
			errs = append(errs, domain.SourceError{Source: src.URI, Message: err.Error()})
			r.log.WarnObj("source resolution failed", "source_resolve_error", map[string]any{
				"uri":   src.URI,
				"error": err.Error(),
			})
			continue
		}
		out = append(out, resolved)
	}
	return out, errs
}

func (r *Resolver) resolveOne(ctx context.Context, src domain.Source) (domain.Source, error) {
	uri := src.URI

	switch {
	case strings.HasPrefix(uri, "yt:UC"):
		id := strings.TrimPrefix(uri, "yt:")
		src.URI = fmt.Sprintf(youtubeFeedURL, id)
		if src.Label == "" {
			src.Label = "youtube:" + id
		}
		return src, nil

	case strings.HasPrefix(uri, "yt:@"):
		handle := strings.TrimPrefix(uri, "yt:@")
		id, err := r.channelID(ctx, handle)
		if err != nil {
			return domain.Source{}, err
		}
		src.URI = fmt.Sprintf(youtubeFeedURL, id)
		if src.Label == "" {
			src.Label = "youtube:@" + handle
		}
		return src, nil

	case strings.HasPrefix(uri, "reddit:r/"):
		sub := strings.TrimPrefix(uri, "reddit:r/")
		if sub == "" {
			return domain.Source{}, fmt.Errorf("reddit shorthand %q has no subreddit", uri)
		}
		src.URI = fmt.Sprintf("https://www.reddit.com/r/%s/.rss", sub)
		if src.Label == "" {
			src.Label = "reddit:" + sub
		}
		return src, nil
	}

	u, err := url.Parse(uri)
	if err != nil || !u.IsAbs() {
		return domain.Source{}, fmt.Errorf("source uri %q is not an absolute URL", uri)
	}
	src.URI = u.String()
	if src.Label == "" {
		src.Label = labelFor(src.URI)
	}
	return src, nil
}

// channelID resolves a YouTube handle to its UC channel id, consulting the
// cache first.
func (r *Resolver) channelID(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(handle, "@")
	if handle == "" {
		return "", fmt.Errorf("youtube handle is empty")
	}

	if r.cache != nil {
		if id, ok, err := r.cache.Get(youtubeCacheBucket, handle); err == nil && ok {
			return id, nil
		}
	}

	resp, err := r.client.Get(ctx, "https://www.youtube.com/@"+handle, nil)
	if err != nil {
		return "", fmt.Errorf("fetch youtube channel page: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("youtube channel page for @%s returned status %d", handle, resp.StatusCode())
	}

	body := resp.Body()
	for _, pattern := range channelIDPatterns {
		if m := pattern.FindSubmatch(body); m != nil {
			id := string(m[1])
			if r.cache != nil {
				if err := r.cache.Put(youtubeCacheBucket, handle, id); err != nil {
					r.log.WarnObj("channel id cache write failed", "youtube_cache_error", map[string]any{
						"handle": handle,
						"error":  err.Error(),
					})
				}
			}
			return id, nil
		}
	}
	return "", fmt.Errorf("no channel id found for youtube handle @%s", handle)
}
