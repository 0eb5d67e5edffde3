// Package server exposes the operator-facing HTTP surface: ingestion
// triggers and thin search pass-throughs.
package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ironfeed-hq/ironfeed/internal/config"
	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/index"
	"github.com/ironfeed-hq/ironfeed/internal/logger"
	"github.com/ironfeed-hq/ironfeed/pkg/publishers"
	"github.com/ironfeed-hq/ironfeed/pkg/sources"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 100
	showsListLimit     = 500
)

// Runner executes one ingestion run against an index.
type Runner interface {
	Run(ctx context.Context, srcs []domain.Source, indexName string) (domain.Summary, error)
}

// Server wires the HTTP routes to the pipeline and the document store.
type Server struct {
	cfg      config.Config
	store    index.Store
	runner   Runner
	resolver *sources.Resolver
	pubs     []publishers.Publisher
	log      logger.Logger
}

// New builds a Server.
func New(cfg config.Config, store index.Store, runner Runner, resolver *sources.Resolver, pubs []publishers.Publisher, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Server{
		cfg:      cfg,
		store:    store,
		runner:   runner,
		resolver: resolver,
		pubs:     pubs,
		log:      log,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies(nil)

	router.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	ingest := s.guarded(func(c *gin.Context) {
		s.handleIngest(c, s.cfg.SourcesFile, s.cfg.NewsIndex)
	})
	router.GET("/api/ingest", ingest)
	router.POST("/api/ingest", ingest)

	ingestShows := s.guarded(func(c *gin.Context) {
		s.handleIngest(c, s.cfg.ShowSourcesFile, s.cfg.ShowsIndex)
	})
	router.GET("/api/ingest-shows", ingestShows)
	router.POST("/api/ingest-shows", ingestShows)

	router.GET("/api/search", s.handleSearch)
	router.GET("/api/shows", s.handleShows)

	return router
}

// guarded compares the request token against the configured ingest secret
// in constant time. No configured secret means the trigger routes stay shut.
func (s *Server) guarded(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if s.cfg.IngestSecret == "" || token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.IngestSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		next(c)
	}
}

// handleIngest loads and resolves the source list, runs the pipeline and
// returns the run summary. Store-level failures return 502 with ok:false;
// per-source failures keep the run ok and are listed in the summary.
func (s *Server) handleIngest(c *gin.Context, sourcesFile, indexName string) {
	declared, err := sources.Load(sourcesFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	resolved, resolveErrs := s.resolver.Resolve(ctx, declared)

	summary, runErr := s.runner.Run(ctx, resolved, indexName)
	summary.SourcesConfigured = len(declared)
	summary.Errors = append(resolveErrs, summary.Errors...)

	publishers.PublishAll(ctx, s.pubs, publishers.EventFromSummary(summary), s.log)

	if runErr != nil {
		summary.Errors = append(summary.Errors, domain.SourceError{
			Source:  "document-store",
			Message: runErr.Error(),
		})
		c.JSON(http.StatusBadGateway, summary)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// handleSearch proxies a full-text query to the news index. An empty query
// yields an empty result, not an error.
func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusOK, index.SearchResult{Hits: []any{}})
		return
	}

	limit := int64(defaultSearchLimit)
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n <= maxSearchLimit {
			limit = n
		}
	}

	result, err := s.store.Search(c.Request.Context(), s.cfg.NewsIndex, query, limit)
	if err != nil {
		s.log.ErrorObj("search failed", "search_error", map[string]any{"error": err.Error()})
		c.JSON(http.StatusBadGateway, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleShows returns the shows index contents for the calendar view.
func (s *Server) handleShows(c *gin.Context) {
	result, err := s.store.Search(c.Request.Context(), s.cfg.ShowsIndex, "", showsListLimit)
	if err != nil {
		s.log.ErrorObj("shows fetch failed", "shows_error", map[string]any{"error": err.Error()})
		c.JSON(http.StatusBadGateway, gin.H{"error": "shows fetch failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
