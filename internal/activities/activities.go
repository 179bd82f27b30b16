// Package activities implements the workflow stage collaborators: research
// aggregation (in-process or delegated), drafting, scoring, revision, and
// progress publication. Per-call failures degrade into state content so the
// workflow loop always reaches a terminal state.
package activities

import (
	"sync"

	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/a2a"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/aggregator"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/progress"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/scoring"
)

// Activities holds the injected stage collaborators.
type Activities struct {
	aggregator *aggregator.Aggregator
	remote     *a2a.Client // nil unless research is delegated
	llm        scoring.CompletionClient
	scorer     *scoring.Engine
	progress   *progress.Store // nil store is a no-op sink
	logger     *zap.Logger

	// runStarts maps run id to wall-clock start, observed when the run's
	// terminal progress record is published.
	runStarts sync.Map
}

// NewActivities wires the stage collaborators together. remote may be nil
// (research runs in-process); store may be nil (no progress sink).
func NewActivities(
	agg *aggregator.Aggregator,
	remote *a2a.Client,
	llm scoring.CompletionClient,
	scorer *scoring.Engine,
	store *progress.Store,
	logger *zap.Logger,
) *Activities {
	return &Activities{
		aggregator: agg,
		remote:     remote,
		llm:        llm,
		scorer:     scorer,
		progress:   store,
		logger:     logger,
	}
}
