package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ironfeed-hq/ironfeed/internal/cache"
	"github.com/ironfeed-hq/ironfeed/internal/config"
	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/fetch"
	"github.com/ironfeed-hq/ironfeed/internal/index"
	"github.com/ironfeed-hq/ironfeed/internal/logger"
	"github.com/ironfeed-hq/ironfeed/internal/pipeline"
	"github.com/ironfeed-hq/ironfeed/pkg/httpclient"
	"github.com/ironfeed-hq/ironfeed/pkg/publishers"
	"github.com/ironfeed-hq/ironfeed/pkg/sources"
)

// app holds the wired dependencies shared by all subcommands.
type app struct {
	cfg      config.Config
	log      logger.Logger
	store    index.Store
	cache    *cache.Bolt
	pipe     *pipeline.Pipeline
	resolver *sources.Resolver
	pubs     []publishers.Publisher
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	if err := cfg.ValidateStore(); err != nil {
		return nil, err
	}

	store, err := index.NewMeili(cfg.MeiliHost, cfg.MeiliAPIKey, log)
	if err != nil {
		return nil, err
	}

	var c *cache.Bolt
	if cfg.CachePath != "" {
		if c, err = cache.Open(cfg.CachePath); err != nil {
			return nil, err
		}
	}

	client := httpclient.NewRestyClient(cfg.FetchTimeout)
	fetcher := fetch.New(client, log)
	pipe := pipeline.New(fetcher, store, c, log, cfg.FetchWorkers, cfg.MaxPerSource)
	resolver := sources.NewResolver(client, c, log)

	var pubs []publishers.Publisher
	if cfg.PublishersFile != "" {
		reg, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			return nil, err
		}
		pubs, err = publishers.BuildAll(ctx, publishers.DefaultRegistry(), reg.Enabled(), log)
		if err != nil {
			return nil, err
		}
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		cache:    c,
		pipe:     pipe,
		resolver: resolver,
		pubs:     pubs,
	}, nil
}

func (a *app) close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
}

// runIngest performs one full run for the given source file and index, prints
// the summary as JSON and fails only on a store-level error.
func (a *app) runIngest(ctx context.Context, sourcesFile, indexName string) error {
	declared, err := sources.Load(sourcesFile)
	if err != nil {
		return err
	}

	resolved, resolveErrs := a.resolver.Resolve(ctx, declared)

	summary, runErr := a.pipe.Run(ctx, resolved, indexName)
	summary.SourcesConfigured = len(declared)
	summary.Errors = append(resolveErrs, summary.Errors...)

	publishers.PublishAll(ctx, a.pubs, publishers.EventFromSummary(summary), a.log)

	if runErr != nil {
		summary.Errors = append(summary.Errors, domain.SourceError{
			Source:  "document-store",
			Message: runErr.Error(),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return err
	}
	return runErr
}
