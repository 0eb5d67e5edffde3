// Package index submits normalized records to the external document store
// and exposes its lookup and search operations.
package index

import (
	"context"
	"errors"
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/logger"
)

// ErrNotFound is returned by Get when no document has the given id.
var ErrNotFound = errors.New("document not found")

// Error is a store-level failure. Unlike per-source fetch errors it is
// fatal for a run: a rejected bulk submission means nothing was durably
// indexed.
type Error struct {
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("document store: %v", e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// UpsertResult reports a bulk submission. The store is asynchronous:
// acceptance does not mean the records are searchable yet, only that the
// task referenced by TaskUID was queued.
type UpsertResult struct {
	Accepted int
	TaskUID  int64
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Hits           []any  `json:"hits"`
	EstimatedTotal int64  `json:"estimatedTotalHits"`
	Query          string `json:"query"`
}

// Store is the document-store surface the pipeline and server depend on.
// Production uses Meilisearch; tests substitute fakes.
type Store interface {
	EnsureIndex(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, records []domain.Record) (UpsertResult, error)
	Get(ctx context.Context, name, id string) (domain.Record, error)
	Search(ctx context.Context, name, query string, limit int64) (SearchResult, error)
}

// Meili is the Meilisearch-backed Store.
type Meili struct {
	client meilisearch.ServiceManager
	log    logger.Logger
}

// NewMeili builds a Store talking to the configured Meilisearch host.
func NewMeili(host, apiKey string, log logger.Logger) (*Meili, error) {
	if host == "" {
		return nil, &Error{Err: errors.New("meilisearch host is not configured")}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Meili{
		client: meilisearch.New(host, meilisearch.WithAPIKey(apiKey)),
		log:    log,
	}, nil
}

// EnsureIndex creates the index with primary key "id" if it does not exist.
func (m *Meili) EnsureIndex(ctx context.Context, name string) error {
	if _, err := m.client.GetIndexWithContext(ctx, name); err == nil {
		return nil
	}

	if _, err := m.client.CreateIndexWithContext(ctx, &meilisearch.IndexConfig{
		Uid:        name,
		PrimaryKey: "id",
	}); err != nil {
		return &Error{Err: fmt.Errorf("create index %s: %w", name, err)}
	}

	m.log.InfoObj("created document store index", "index_created", map[string]any{
		"index": name,
	})
	return nil
}

// Upsert submits records keyed by id in a single bulk call; the store owns
// its own internal batching. Records are expected to already satisfy the
// non-empty title/url invariant, checked here only as a defensive assertion.
func (m *Meili) Upsert(ctx context.Context, name string, records []domain.Record) (UpsertResult, error) {
	if len(records) == 0 {
		return UpsertResult{}, nil
	}

	for _, rec := range records {
		if rec.ID == "" || rec.Title == "" || rec.URL == "" {
			return UpsertResult{}, &Error{Err: fmt.Errorf("record %q violates invariant (empty id, title or url)", rec.ID)}
		}
	}

	task, err := m.client.Index(name).UpdateDocumentsWithContext(ctx, records, "id")
	if err != nil {
		return UpsertResult{}, &Error{Err: fmt.Errorf("upsert %d records into %s: %w", len(records), name, err)}
	}

	return UpsertResult{Accepted: len(records), TaskUID: task.TaskUID}, nil
}

// Get fetches one document by id.
func (m *Meili) Get(ctx context.Context, name, id string) (domain.Record, error) {
	var rec domain.Record
	err := m.client.Index(name).GetDocumentWithContext(ctx, id, nil, &rec)
	if err != nil {
		var mErr *meilisearch.Error
		if errors.As(err, &mErr) && mErr.StatusCode == 404 {
			return domain.Record{}, ErrNotFound
		}
		return domain.Record{}, &Error{Err: fmt.Errorf("get document %s/%s: %w", name, id, err)}
	}
	return rec, nil
}

// Search runs a plain full-text query against one index.
func (m *Meili) Search(ctx context.Context, name, query string, limit int64) (SearchResult, error) {
	resp, err := m.client.Index(name).SearchWithContext(ctx, query, &meilisearch.SearchRequest{
		Limit: limit,
	})
	if err != nil {
		return SearchResult{}, &Error{Err: fmt.Errorf("search %s: %w", name, err)}
	}

	return SearchResult{
		Hits:           resp.Hits,
		EstimatedTotal: resp.EstimatedTotalHits,
		Query:          query,
	}, nil
}
