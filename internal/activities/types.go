package activities

import (
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/scoring"
)

// ResearchInput is the input for the research stage.
type ResearchInput struct {
	RunID       string
	CompanyName string
	Ticker      string
	UseCache    bool
}

// ResearchResult carries the aggregated bundle plus provenance.
type ResearchResult struct {
	Bundle        *bundle.ResearchBundle
	DataSource    bundle.DataSource
	SourcesFailed []string
	Error         string // delegation failure, absorbed not fatal
}

// DraftInput is the input for the Analyst stage.
type DraftInput struct {
	CompanyName   string
	StrategyFocus string
	Bundle        *bundle.ResearchBundle
}

// DraftResult is the Analyst output. A drafting failure is recorded in
// the draft text itself, never as an activity error.
type DraftResult struct {
	Draft    string
	Provider string
	Failed   bool
}

// ScoreInput is the input for the Critic stage.
type ScoreInput struct {
	Draft            string
	StrategyFocus    string
	SourcesAvailable []string
}

// ScoreResult is the Critic output.
type ScoreResult struct {
	Score    float64
	Critique string
	Provider string
	Details  *scoring.Report
}

// ReviseInput is the input for the Editor stage.
type ReviseInput struct {
	Draft         string
	Critique      string
	StrategyFocus string
}

// ReviseResult is the Editor output. When the revision collaborator fails,
// Draft echoes the input unchanged and Revised is false.
type ReviseResult struct {
	Draft    string
	Provider string
	Revised  bool
}

// PublishProgressInput is the per-transition progress observation.
type PublishProgressInput struct {
	RunID         string
	Status        string
	CurrentStep   string
	RevisionCount int
	Score         float64
}
