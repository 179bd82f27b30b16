package workflows

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/activities"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/constants"
)

// StatusQuery is the query name answering with a StatusSnapshot.
const StatusQuery = "status"

// AnalysisWorkflow runs the self-correcting SWOT analysis loop:
// Researcher gathers data, Analyst drafts, Critic scores, and Editor
// revises until the score clears the threshold or the revision budget is
// exhausted. Stage failures degrade into state content (error drafts,
// empty bundles, neutral scores); only an invalid input fails the run.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (AnalysisState, error) {
	logger := workflow.GetLogger(ctx)

	if input.CompanyName == "" {
		return AnalysisState{}, errors.New("company name is required")
	}
	if input.StrategyFocus == "" {
		input.StrategyFocus = "Cost Leadership"
	}
	threshold := input.ScoreThreshold
	if threshold <= 0 {
		threshold = DefaultScoreThreshold
	}
	maxRevisions := input.MaxRevisions
	if maxRevisions <= 0 {
		maxRevisions = DefaultMaxRevisions
	}

	runID := workflow.GetInfo(ctx).WorkflowExecution.ID
	state := AnalysisState{
		CompanyName:   input.CompanyName,
		StrategyFocus: input.StrategyFocus,
		DataSource:    bundle.DataSourceLive,
		SourcesFailed: []string{},
	}

	currentStep := constants.StageResearcher
	err := workflow.SetQueryHandler(ctx, StatusQuery, func() (StatusSnapshot, error) {
		return StatusSnapshot{
			CurrentStep:   currentStep,
			RevisionCount: state.RevisionCount,
			Score:         state.Score,
		}, nil
	})
	if err != nil {
		logger.Warn("Failed to register status query handler", "error", err)
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 3 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger.Info("Starting analysis",
		"company", input.CompanyName,
		"strategy_focus", input.StrategyFocus,
	)

	// Researcher: aggregate from sources or delegate remotely. A failed or
	// wholly empty bundle still moves the run forward; missing data is a
	// content weakness, not a workflow error.
	currentStep = constants.StageResearcher
	publishProgress(ctx, runID, currentStep, &state, "running")

	var research activities.ResearchResult
	err = workflow.ExecuteActivity(ctx, constants.ResearchActivity, activities.ResearchInput{
		RunID:       runID,
		CompanyName: input.CompanyName,
		Ticker:      input.Ticker,
		UseCache:    input.UseCache,
	}).Get(ctx, &research)
	if err != nil {
		logger.Warn("Research stage failed, proceeding with empty bundle", "error", err)
		state.Bundle = emptyBundle(input)
	} else {
		state.Bundle = research.Bundle
		state.DataSource = research.DataSource
		state.SourcesFailed = research.SourcesFailed
		if state.SourcesFailed == nil {
			state.SourcesFailed = []string{}
		}
	}

	// Analyst: first draft. Drafting errors surface as the draft text and
	// score accordingly.
	currentStep = constants.StageAnalyst
	publishProgress(ctx, runID, currentStep, &state, "running")

	var draft activities.DraftResult
	err = workflow.ExecuteActivity(ctx, constants.DraftReportActivity, activities.DraftInput{
		CompanyName:   input.CompanyName,
		StrategyFocus: input.StrategyFocus,
		Bundle:        state.Bundle,
	}).Get(ctx, &draft)
	if err != nil {
		logger.Warn("Draft stage failed", "error", err)
		state.DraftReport = "Error generating analysis: " + err.Error()
	} else {
		state.DraftReport = draft.Draft
		state.ProviderUsed = draft.Provider
	}

	// Critic/Editor loop. The loop itself is the retry mechanism: a bad or
	// error draft keeps being revised until the budget runs out.
	for {
		currentStep = constants.StageCritic
		publishProgress(ctx, runID, currentStep, &state, "running")

		var score activities.ScoreResult
		err = workflow.ExecuteActivity(ctx, constants.ScoreDraftActivity, activities.ScoreInput{
			Draft:            state.DraftReport,
			StrategyFocus:    input.StrategyFocus,
			SourcesAvailable: sourcesAvailable(state.Bundle),
		}).Get(ctx, &score)
		if err != nil {
			logger.Warn("Scoring stage failed, assuming lowest score", "error", err)
			state.Score = 1
			state.Critique = "Scoring unavailable: " + err.Error()
		} else {
			state.Score = score.Score
			state.Critique = score.Critique
		}

		logger.Info("Critic evaluated draft",
			"score", state.Score,
			"revision_count", state.RevisionCount,
		)

		if state.Score >= threshold || state.RevisionCount >= maxRevisions {
			break
		}

		currentStep = constants.StageEditor
		publishProgress(ctx, runID, currentStep, &state, "running")

		var revised activities.ReviseResult
		err = workflow.ExecuteActivity(ctx, constants.ReviseDraftActivity, activities.ReviseInput{
			Draft:         state.DraftReport,
			Critique:      state.Critique,
			StrategyFocus: input.StrategyFocus,
		}).Get(ctx, &revised)
		if err != nil {
			logger.Warn("Revision stage failed, keeping draft", "error", err)
		} else {
			state.DraftReport = revised.Draft
			if revised.Provider != "" {
				state.ProviderUsed = revised.Provider
			}
		}
		// A failed revision still consumes budget; the loop must terminate.
		state.RevisionCount++
	}

	currentStep = "completed"
	publishProgress(ctx, runID, currentStep, &state, "completed")

	logger.Info("Analysis complete",
		"company", state.CompanyName,
		"score", state.Score,
		"revisions", state.RevisionCount,
	)
	return state, nil
}

// publishProgress schedules a best-effort progress observation. Sink
// errors never affect the run.
func publishProgress(ctx workflow.Context, runID, step string, state *AnalysisState, status string) {
	po := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	pctx := workflow.WithActivityOptions(ctx, po)
	_ = workflow.ExecuteActivity(pctx, constants.PublishProgressActivity, activities.PublishProgressInput{
		RunID:         runID,
		Status:        status,
		CurrentStep:   step,
		RevisionCount: state.RevisionCount,
		Score:         state.Score,
	}).Get(pctx, nil)
}

func sourcesAvailable(b *bundle.ResearchBundle) []string {
	if b == nil {
		return nil
	}
	return b.SourcesAvailable
}

func emptyBundle(input AnalysisInput) *bundle.ResearchBundle {
	return &bundle.ResearchBundle{
		Ticker:           input.Ticker,
		CompanyName:      input.CompanyName,
		SourcesAvailable: []string{},
		SourcesFailed:    []string{},
		Metrics:          map[string]*bundle.SourceResult{},
	}
}
