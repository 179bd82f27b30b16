package constants

// Activity names used for workflow registration and execution.
// Using constants eliminates magic strings and ensures consistency.
const (
	// Stage activities
	ResearchActivity    = "Research"
	DraftReportActivity = "DraftReport"
	ScoreDraftActivity  = "ScoreDraft"
	ReviseDraftActivity = "ReviseDraft"

	// Progress sink
	PublishProgressActivity = "PublishProgress"
)

// Workflow stage names surfaced through the progress sink and the status
// query, matching the agent roles of the analysis loop.
const (
	StageResearcher = "Researcher"
	StageAnalyst    = "Analyst"
	StageCritic     = "Critic"
	StageEditor     = "Editor"
)
