package domain

// Domain contains core models shared across the ingestion pipeline.

const (
	// SourceKindFeed marks an RSS/Atom feed source.
	SourceKindFeed = "feed"
	// SourceKindHTML marks an HTML listing-page source.
	SourceKindHTML = "html"
)

// Source is one configured origin of records, immutable during a run.
type Source struct {
	URI        string
	Kind       string
	Label      string
	Federation string
	HTML       *HTMLRules
}

// HTMLRules describes how records are cut out of an HTML listing page.
// Each field holds an ordered list of selector attempts; the first attempt
// yielding a non-empty value wins.
type HTMLRules struct {
	Containers []string
	Title      []string
	Link       []string
	Date       []string
	Location   []string
	Summary    []string
}

// RawRecord is one unprocessed extraction result. Text fields may still
// contain markup, relative links and free-form dates.
type RawRecord struct {
	Source       string
	Federation   string
	Title        string
	Link         string
	DateText     string
	LocationText string
	SummaryText  string
}

// Record is the canonical, normalized output unit keyed by ID.
type Record struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Source     string `json:"source"`
	Date       string `json:"date,omitempty"`
	DateRaw    string `json:"dateRaw,omitempty"`
	Location   string `json:"location,omitempty"`
	Summary    string `json:"summary,omitempty"`
	Federation string `json:"federation,omitempty"`
}

// SourceError names a source that failed during a run.
type SourceError struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// Summary is the result of one full ingestion run, returned to the trigger
// caller and never persisted here.
type Summary struct {
	OK                bool           `json:"ok"`
	RunID             string         `json:"runId"`
	Index             string         `json:"index"`
	SourcesConfigured int            `json:"sourcesConfigured"`
	SourcesSucceeded  int            `json:"sourcesSucceeded"`
	RecordsExtracted  int            `json:"recordsExtracted"`
	RecordsDropped    int            `json:"recordsDropped"`
	RecordsDuplicate  int            `json:"recordsDuplicate"`
	RecordsIndexed    int            `json:"recordsIndexed"`
	RecordsNew        int            `json:"recordsNew"`
	PerSource         map[string]int `json:"perSource"`
	EmptySources      []string       `json:"emptySources,omitempty"`
	Errors            []SourceError  `json:"errors"`
	TaskUID           int64          `json:"taskUid,omitempty"`
}
