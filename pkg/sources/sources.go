package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
)

// configFile represents the structure of a sources configuration file.
type configFile struct {
	Sources []SourceConfig `json:"sources" yaml:"sources"`
}

// SourceConfig represents a single source entry declared in config files.
// URI accepts plain URLs plus the shorthands "yt:@handle", "yt:UCxxxx" and
// "reddit:r/sub".
type SourceConfig struct {
	URI        string      `json:"uri" yaml:"uri"`
	Kind       string      `json:"kind" yaml:"kind"`
	Label      string      `json:"label" yaml:"label"`
	Federation string      `json:"federation" yaml:"federation"`
	HTML       *HTMLConfig `json:"html" yaml:"html"`
}

// HTMLConfig holds the ordered selector attempts for an HTML listing source.
type HTMLConfig struct {
	Containers []string `json:"containers" yaml:"containers"`
	Title      []string `json:"title" yaml:"title"`
	Link       []string `json:"link" yaml:"link"`
	Date       []string `json:"date" yaml:"date"`
	Location   []string `json:"location" yaml:"location"`
	Summary    []string `json:"summary" yaml:"summary"`
}

// Selector defaults for HTML sources that declare no rules. Covers the
// federation schedule page layouts seen in the wild (tribe-events,
// fusion-portfolio and plain article cards).
var defaultHTMLRules = domain.HTMLRules{
	Containers: []string{"article", ".tribe-events-list-event", ".fusion-portfolio-content", "li.event"},
	Title:      []string{".tribe-events-list-event-title a", ".event-title a", "h2 a", "h3 a", "h2", "h3"},
	Link:       []string{".tribe-events-list-event-title a", "h2 a", "h3 a", "a"},
	Date:       []string{".event-date", ".tribe-event-date-start", "time"},
	Location:   []string{".event-location", ".event-city", ".tribe-events-venue-details"},
	Summary:    []string{".tribe-events-list-event-description", "p"},
}

// Load reads source declarations from a YAML/JSON file, in declaration
// order. Order matters downstream: the deduplicator keeps the first
// occurrence of an identity key.
func Load(path string) ([]domain.Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(raw)))

	cfg, err := parseSourcesFile(expanded, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(cfg.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	out := make([]domain.Source, 0, len(cfg.Sources))
	for i := range cfg.Sources {
		sc := sanitizeSourceConfig(cfg.Sources[i])
		if err := validateSourceConfig(sc); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		out = append(out, toDomain(sc))
	}
	return out, nil
}

// parseSourcesFile attempts to decode the sources file content.
func parseSourcesFile(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var cfg configFile
		if err := d.fn(data, &cfg); err == nil {
			return cfg, nil
		}
	}

	return configFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

// sanitizeSourceConfig trims and normalizes the source config fields.
func sanitizeSourceConfig(sc SourceConfig) SourceConfig {
	sc.URI = strings.TrimSpace(sc.URI)
	sc.Kind = strings.ToLower(strings.TrimSpace(sc.Kind))
	sc.Label = strings.TrimSpace(sc.Label)
	sc.Federation = strings.TrimSpace(sc.Federation)

	if sc.Kind == "" {
		sc.Kind = domain.SourceKindFeed
	}
	if sc.HTML != nil {
		h := *sc.HTML
		h.Containers = trimAll(h.Containers)
		h.Title = trimAll(h.Title)
		h.Link = trimAll(h.Link)
		h.Date = trimAll(h.Date)
		h.Location = trimAll(h.Location)
		h.Summary = trimAll(h.Summary)
		sc.HTML = &h
	}
	return sc
}

func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validateSourceConfig checks that required fields are present.
func validateSourceConfig(sc SourceConfig) error {
	if sc.URI == "" {
		return errors.New("uri is required")
	}
	switch sc.Kind {
	case domain.SourceKindFeed, domain.SourceKindHTML:
	default:
		return fmt.Errorf("kind %q not supported for source %q", sc.Kind, sc.URI)
	}
	if sc.Kind == domain.SourceKindHTML && isShorthand(sc.URI) {
		return fmt.Errorf("shorthand %q cannot be an html source", sc.URI)
	}
	return nil
}

func toDomain(sc SourceConfig) domain.Source {
	src := domain.Source{
		URI:        sc.URI,
		Kind:       sc.Kind,
		Label:      sc.Label,
		Federation: sc.Federation,
	}
	if sc.Kind == domain.SourceKindHTML {
		rules := defaultHTMLRules
		if h := sc.HTML; h != nil {
			if len(h.Containers) > 0 {
				rules.Containers = h.Containers
			}
			if len(h.Title) > 0 {
				rules.Title = h.Title
			}
			if len(h.Link) > 0 {
				rules.Link = h.Link
			}
			if len(h.Date) > 0 {
				rules.Date = h.Date
			}
			if len(h.Location) > 0 {
				rules.Location = h.Location
			}
			if len(h.Summary) > 0 {
				rules.Summary = h.Summary
			}
		}
		src.HTML = &rules
	}
	return src
}

// isShorthand reports whether uri is one of the feed shorthands rather than
// a fetchable URL.
func isShorthand(uri string) bool {
	return strings.HasPrefix(uri, "yt:") || strings.HasPrefix(uri, "reddit:")
}

// labelFor derives a human-readable label from a resolved URL.
func labelFor(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}
