// Package generation is the orchestration facade: it resolves candidates
// from the capability registry, runs the fallback chain, and keeps a short
// in-memory history of outcomes for diagnostics.
package generation

import (
	"context"
	"time"

	"github.com/pixelforge-ai/generation-api/internal/domain/catalog"
	"github.com/pixelforge-ai/generation-api/internal/domain/chain"
	"github.com/pixelforge-ai/generation-api/internal/domain/task"
)

// Request is one generation ask from the HTTP layer.
type Request struct {
	Kind    string
	Payload task.Payload

	// Models optionally restricts the candidate chain to the given model
	// ids, in the given order. Ids not currently available are dropped.
	Models []string

	// Timeout overrides the default execution deadline. Values above the
	// configured cap are clamped; zero means the default.
	Timeout time.Duration
}

// Record is one completed execution: the chain result stamped with a
// generation id.
type Record struct {
	ID        string        `json:"id"`
	Kind      task.Kind     `json:"task"`
	Result    *chain.Result `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
}

// Catalog is the slice of the capability registry the service consumes.
type Catalog interface {
	EnsureFresh(ctx context.Context, maxAge time.Duration) (*catalog.Snapshot, error)
}

// History keeps recent records for diagnostic lookup. Implementations are
// bounded and in-memory; eviction or a restart loses records.
type History interface {
	Put(rec *Record)
	Get(id string) (*Record, bool)
}
