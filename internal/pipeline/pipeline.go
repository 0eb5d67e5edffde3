// Package pipeline orchestrates one ingestion run: bounded parallel fetches,
// per-source extraction and normalization, cross-source deduplication and a
// single bulk submission to the document store.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironfeed-hq/ironfeed/internal/cache"
	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/extract"
	"github.com/ironfeed-hq/ironfeed/internal/fetch"
	"github.com/ironfeed-hq/ironfeed/internal/index"
	"github.com/ironfeed-hq/ironfeed/internal/logger"
	"github.com/ironfeed-hq/ironfeed/internal/normalize"
)

const defaultFetchWorkers = 5

// Pipeline runs ingestion for a configured source list against one index.
type Pipeline struct {
	fetcher      *fetch.Fetcher
	store        index.Store
	cache        *cache.Bolt
	log          logger.Logger
	workers      int
	maxPerSource int
}

// New builds a Pipeline. The store is required; cache may be nil, in which
// case the summary reports zero new records.
func New(fetcher *fetch.Fetcher, store index.Store, c *cache.Bolt, log logger.Logger, workers, maxPerSource int) *Pipeline {
	if fetcher == nil {
		fetcher = fetch.New(nil, log)
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if workers <= 0 {
		workers = defaultFetchWorkers
	}
	if maxPerSource <= 0 {
		maxPerSource = extract.DefaultMaxPerSource
	}
	return &Pipeline{
		fetcher:      fetcher,
		store:        store,
		cache:        c,
		log:          log,
		workers:      workers,
		maxPerSource: maxPerSource,
	}
}

// sourceResult is the outcome of fetch+extract+normalize for one source.
// Sources never share mutable state; results are merged only after all
// workers settle.
type sourceResult struct {
	records   []domain.Record
	extracted int
	dropped   int
	err       error
}

// Run executes one full ingestion run. Per-source failures are aggregated
// into the summary; only a store-level failure makes the run itself fail,
// in which case the returned error is non-nil and summary.OK is false.
func (p *Pipeline) Run(ctx context.Context, srcs []domain.Source, indexName string) (domain.Summary, error) {
	summary := domain.Summary{
		RunID:             uuid.NewString(),
		Index:             indexName,
		SourcesConfigured: len(srcs),
		PerSource:         make(map[string]int, len(srcs)),
		Errors:            []domain.SourceError{},
	}

	results := p.processAll(ctx, srcs)

	// Merge preserves source-list order, then within-source document order.
	// The deduplicator's first-wins rule depends on this.
	var merged []domain.Record
	for i, src := range srcs {
		res := results[i]
		if res.err != nil {
			summary.Errors = append(summary.Errors, domain.SourceError{
				Source:  src.Label,
				Message: res.err.Error(),
			})
			continue
		}

		summary.SourcesSucceeded++
		summary.RecordsExtracted += res.extracted
		summary.RecordsDropped += res.dropped
		summary.PerSource[src.Label] += len(res.records)

		if res.extracted == 0 {
			// Distinct from a fetch failure: the source answered but no
			// container matched, which usually means its structure changed.
			summary.EmptySources = append(summary.EmptySources, src.Label)
			p.log.WarnObj("source yielded zero records", "extract_empty", map[string]any{
				"source": src.Label,
				"index":  indexName,
			})
		}

		merged = append(merged, res.records...)
	}

	deduped, duplicates := Dedupe(merged)
	summary.RecordsDuplicate = duplicates

	if err := p.submit(ctx, indexName, deduped, &summary); err != nil {
		summary.OK = false
		return summary, err
	}

	summary.OK = true
	p.log.InfoObj("ingestion run completed", "run_completed", map[string]any{
		"run_id":    summary.RunID,
		"index":     indexName,
		"sources":   summary.SourcesConfigured,
		"succeeded": summary.SourcesSucceeded,
		"extracted": summary.RecordsExtracted,
		"indexed":   summary.RecordsIndexed,
		"new":       summary.RecordsNew,
		"errors":    len(summary.Errors),
	})
	return summary, nil
}

// processAll fans fetch+extract+normalize out over a bounded worker pool,
// one independent result slot per source.
func (p *Pipeline) processAll(ctx context.Context, srcs []domain.Source) []sourceResult {
	out := make([]sourceResult, len(srcs))
	if len(srcs) == 0 {
		return out
	}

	workerCount := min(len(srcs), p.workers)
	jobCh := make(chan int)
	var wg sync.WaitGroup

	for range workerCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				if ctx.Err() != nil {
					out[idx] = sourceResult{err: ctx.Err()}
					continue
				}
				out[idx] = p.processOne(ctx, srcs[idx])
			}
		}()
	}

	for idx := range srcs {
		jobCh <- idx
	}
	close(jobCh)

	wg.Wait()
	return out
}

// processOne runs the per-source leg of the pipeline. Extraction and
// normalization are pure transformations over the fetched body.
func (p *Pipeline) processOne(ctx context.Context, src domain.Source) sourceResult {
	fetched, err := p.fetcher.Fetch(ctx, src)
	if err != nil {
		return sourceResult{err: err}
	}

	raw, err := extract.Records(fetched.Body, fetched.Kind, src, p.maxPerSource)
	if err != nil {
		return sourceResult{err: err}
	}

	res := sourceResult{extracted: len(raw)}
	for _, r := range raw {
		rec, ok := normalize.Record(r, src.URI)
		if !ok {
			res.dropped++
			continue
		}
		res.records = append(res.records, rec)
	}
	return res
}

// submit performs the run's single bulk upsert and fills in the indexing
// counters. A store failure here is fatal for the run.
func (p *Pipeline) submit(ctx context.Context, indexName string, records []domain.Record, summary *domain.Summary) error {
	if len(records) == 0 {
		return nil
	}

	if err := p.store.EnsureIndex(ctx, indexName); err != nil {
		return err
	}

	result, err := p.store.Upsert(ctx, indexName, records)
	if err != nil {
		return err
	}
	summary.RecordsIndexed = result.Accepted
	summary.TaskUID = result.TaskUID

	if p.cache != nil {
		ids := make([]string, len(records))
		for i, rec := range records {
			ids[i] = rec.ID
		}
		fresh, err := p.cache.MarkSeen("seen_"+indexName, ids, time.Now())
		if err != nil {
			p.log.WarnObj("seen cache update failed", "seen_cache_error", map[string]any{
				"index": indexName,
				"error": err.Error(),
			})
		} else {
			summary.RecordsNew = fresh
		}
	}
	return nil
}
