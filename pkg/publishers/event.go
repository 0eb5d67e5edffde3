package publishers

import (
	"context"
	"time"

	"github.com/ironfeed-hq/ironfeed/internal/domain"
	"github.com/ironfeed-hq/ironfeed/internal/logger"
)

// Event is the run-completion notification delivered to configured sinks
// after each ingestion run.
type Event struct {
	RunID             string    `json:"run_id"`
	Index             string    `json:"index"`
	OK                bool      `json:"ok"`
	SourcesConfigured int       `json:"sources_configured"`
	SourcesSucceeded  int       `json:"sources_succeeded"`
	RecordsIndexed    int       `json:"records_indexed"`
	RecordsNew        int       `json:"records_new"`
	SourceFailures    int       `json:"source_failures"`
	TaskUID           int64     `json:"task_uid,omitempty"`
	CompletedAt       time.Time `json:"completed_at"`
}

// EventFromSummary converts an ingestion summary to its notification event.
func EventFromSummary(s domain.Summary) Event {
	return Event{
		RunID:             s.RunID,
		Index:             s.Index,
		OK:                s.OK,
		SourcesConfigured: s.SourcesConfigured,
		SourcesSucceeded:  s.SourcesSucceeded,
		RecordsIndexed:    s.RecordsIndexed,
		RecordsNew:        s.RecordsNew,
		SourceFailures:    len(s.Errors),
		TaskUID:           s.TaskUID,
		CompletedAt:       time.Now().UTC(),
	}
}

// Publisher delivers run events to one configured sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Logger is the logging surface publishers report through.
type Logger = logger.Logger

func ensureLogger(log Logger) Logger {
	if log == nil {
		return logger.NopLogger{}
	}
	return log
}

// PublishAll delivers the event to every publisher, logging failures rather
// than propagating them: a broken sink must not fail an otherwise good run.
func PublishAll(ctx context.Context, pubs []Publisher, evt Event, log Logger) {
	log = ensureLogger(log)
	for _, pub := range pubs {
		if pub == nil {
			continue
		}
		if err := pub.Publish(ctx, evt); err != nil {
			log.ErrorObj("run event publish failed", "publisher_error", map[string]any{
				"publisher_id": pub.ID(),
				"type":         pub.Type(),
				"run_id":       evt.RunID,
				"error":        err.Error(),
			})
			continue
		}
		log.DebugObj("run event published", "publisher_delivery", map[string]any{
			"publisher_id": pub.ID(),
			"run_id":       evt.RunID,
		})
	}
}
