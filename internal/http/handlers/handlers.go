package handlers

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tbourn/go-dining-concierge/internal/dialog"
	"github.com/tbourn/go-dining-concierge/internal/domain"
	"github.com/tbourn/go-dining-concierge/internal/services"
)

// Conversation answers one front-end utterance.
type Conversation interface {
	Converse(ctx context.Context, sessionID, text string) (string, error)
}

// Ingestion runs the ingestion jobs on demand.
type Ingestion interface {
	RebuildIndex(ctx context.Context) (services.IndexStats, error)
	IngestSource(ctx context.Context, location string) (services.SourceStats, error)
}

// IndexLister lists search index entries.
type IndexLister interface {
	All(ctx context.Context, limit int) ([]domain.SearchIndexEntry, error)
}

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handlers groups the endpoints. Nil dependencies disable the routes that
// need them.
type Handlers struct {
	Conversation Conversation
	Dialog       dialog.Handler
	Ingestion    Ingestion
	Index        IndexLister

	// DefaultLocation is used by source ingestion when none is given.
	DefaultLocation string
	// ReadyChecks maps dependency names to their probes.
	ReadyChecks map[string]Pinger

	jobs          sync.WaitGroup
	sourceRunning atomic.Bool
	onSourceDone  func(services.SourceStats, error)
}
