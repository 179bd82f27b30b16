package workflows

import (
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
)

// AnalysisInput starts one analysis run.
type AnalysisInput struct {
	CompanyName   string
	StrategyFocus string
	Ticker        string // optional; derived from CompanyName when empty
	UseCache      bool

	// Loop tuning; zero values take the configured defaults.
	ScoreThreshold float64
	MaxRevisions   int
}

// AnalysisState is the single mutable record threaded through every stage
// and returned when the run terminates.
type AnalysisState struct {
	CompanyName   string                 `json:"company_name"`
	StrategyFocus string                 `json:"strategy_focus"`
	Bundle        *bundle.ResearchBundle `json:"research_bundle,omitempty"`
	DraftReport   string                 `json:"draft_report"`
	Critique      string                 `json:"critique"`
	Score         float64                `json:"score"`
	RevisionCount int                    `json:"revision_count"`
	ProviderUsed  string                 `json:"provider_used"`
	DataSource    bundle.DataSource      `json:"data_source"`
	SourcesFailed []string               `json:"sources_failed"`
}

// StatusSnapshot answers the workflow's status query.
type StatusSnapshot struct {
	CurrentStep   string  `json:"current_step"`
	RevisionCount int     `json:"revision_count"`
	Score         float64 `json:"score"`
}

// Loop defaults: terminate once the score clears 7, or after the fourth
// Critic evaluation (revision budget of 3).
const (
	DefaultScoreThreshold = 7.0
	DefaultMaxRevisions   = 3
)
