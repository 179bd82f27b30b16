package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/activities"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/constants"
)

// stageStubs wires scripted stand-ins for every stage activity and records
// what the workflow asked of them.
type stageStubs struct {
	scores []float64 // consumed per Critic call; last value repeats

	researchCalls int
	draftCalls    int
	scoreCalls    int
	reviseCalls   int
	draftInputs   []activities.DraftInput
	progress      []activities.PublishProgressInput
}

func (s *stageStubs) register(env *testsuite.TestWorkflowEnvironment) {
	env.RegisterActivityWithOptions(func(_ context.Context, in activities.ResearchInput) (activities.ResearchResult, error) {
		s.researchCalls++
		return activities.ResearchResult{
			Bundle: &bundle.ResearchBundle{
				Ticker:           "TSLA",
				CompanyName:      in.CompanyName,
				SourcesAvailable: []string{"financials", "macro"},
				SourcesFailed:    []string{"news"},
			},
			DataSource:    bundle.DataSourceLive,
			SourcesFailed: []string{"news"},
		}, nil
	}, activity.RegisterOptions{Name: constants.ResearchActivity})

	env.RegisterActivityWithOptions(func(_ context.Context, in activities.DraftInput) (activities.DraftResult, error) {
		s.draftCalls++
		s.draftInputs = append(s.draftInputs, in)
		return activities.DraftResult{Draft: "draft v1", Provider: "groq"}, nil
	}, activity.RegisterOptions{Name: constants.DraftReportActivity})

	env.RegisterActivityWithOptions(func(_ context.Context, in activities.ScoreInput) (activities.ScoreResult, error) {
		idx := s.scoreCalls
		if idx >= len(s.scores) {
			idx = len(s.scores) - 1
		}
		s.scoreCalls++
		return activities.ScoreResult{
			Score:    s.scores[idx],
			Critique: "needs more citations",
		}, nil
	}, activity.RegisterOptions{Name: constants.ScoreDraftActivity})

	env.RegisterActivityWithOptions(func(_ context.Context, in activities.ReviseInput) (activities.ReviseResult, error) {
		s.reviseCalls++
		return activities.ReviseResult{Draft: in.Draft + " (revised)", Provider: "groq", Revised: true}, nil
	}, activity.RegisterOptions{Name: constants.ReviseDraftActivity})

	env.RegisterActivityWithOptions(func(_ context.Context, in activities.PublishProgressInput) error {
		s.progress = append(s.progress, in)
		return nil
	}, activity.RegisterOptions{Name: constants.PublishProgressActivity})
}

func newEnv(t *testing.T) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(AnalysisWorkflow)
	return env
}

func TestAnalysisWorkflowPassesFirstEvaluation(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{8.5}}
	stubs.register(env)

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla", StrategyFocus: "Differentiation"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, 8.5, state.Score)
	assert.Equal(t, 0, state.RevisionCount)
	assert.Equal(t, "draft v1", state.DraftReport)
	assert.Equal(t, 1, stubs.scoreCalls)
	assert.Equal(t, 0, stubs.reviseCalls)
}

func TestAnalysisWorkflowRevisesUntilThreshold(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{5.0, 6.0, 7.5}}
	stubs.register(env)

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla"})

	require.True(t, env.IsWorkflowCompleted())
	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, 7.5, state.Score)
	assert.Equal(t, 2, state.RevisionCount)
	assert.Equal(t, 3, stubs.scoreCalls)
	assert.Equal(t, 2, stubs.reviseCalls)
	assert.Equal(t, "draft v1 (revised) (revised)", state.DraftReport)
}

func TestAnalysisWorkflowExhaustsRevisionBudget(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{3.0}}
	stubs.register(env)

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla"})

	require.True(t, env.IsWorkflowCompleted())
	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	// A never-improving draft gets exactly four evaluations: the initial
	// one plus one per revision in the budget of three.
	assert.Equal(t, 4, stubs.scoreCalls)
	assert.Equal(t, 3, stubs.reviseCalls)
	assert.Equal(t, DefaultMaxRevisions, state.RevisionCount)
	assert.Equal(t, 3.0, state.Score)
}

func TestAnalysisWorkflowHonorsCustomLoopBounds(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{4.0}}
	stubs.register(env)

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{
		CompanyName:    "Tesla",
		ScoreThreshold: 9.5,
		MaxRevisions:   1,
	})

	require.True(t, env.IsWorkflowCompleted())
	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, 2, stubs.scoreCalls)
	assert.Equal(t, 1, state.RevisionCount)
}

func TestAnalysisWorkflowRequiresCompanyName(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{8.0}}
	stubs.register(env)

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{})

	require.True(t, env.IsWorkflowCompleted())
	err := env.GetWorkflowError()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company name is required")
	assert.Equal(t, 0, stubs.researchCalls)
}

func TestAnalysisWorkflowDefaultsStrategyFocus(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{9.0}}
	stubs.register(env)

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla"})

	require.True(t, env.IsWorkflowCompleted())
	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, "Cost Leadership", state.StrategyFocus)
	require.NotEmpty(t, stubs.draftInputs)
	assert.Equal(t, "Cost Leadership", stubs.draftInputs[0].StrategyFocus)
}

func TestAnalysisWorkflowResearchFailureDegrades(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{8.0}}
	stubs.register(env)
	env.OnActivity(constants.ResearchActivity, mock.Anything, mock.Anything).
		Return(activities.ResearchResult{}, errors.New("all sources unreachable"))

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla", Ticker: "TSLA"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	require.NotNil(t, state.Bundle)
	assert.Empty(t, state.Bundle.SourcesAvailable)
	assert.Equal(t, "TSLA", state.Bundle.Ticker)
	assert.Equal(t, 8.0, state.Score)
	assert.Equal(t, 1, stubs.draftCalls, "drafting proceeds on an empty bundle")
}

func TestAnalysisWorkflowScoringFailureAssumesLowest(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{8.0}}
	stubs.register(env)
	env.OnActivity(constants.ScoreDraftActivity, mock.Anything, mock.Anything).
		Return(activities.ScoreResult{}, errors.New("judge offline"))

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, 1.0, state.Score)
	assert.Contains(t, state.Critique, "Scoring unavailable")
	// Lowest score never clears the threshold, so the budget still bounds
	// the loop.
	assert.Equal(t, DefaultMaxRevisions, state.RevisionCount)
	assert.Equal(t, DefaultMaxRevisions, stubs.reviseCalls)
}

func TestAnalysisWorkflowRevisionFailureConsumesBudget(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{4.0}}
	stubs.register(env)
	env.OnActivity(constants.ReviseDraftActivity, mock.Anything, mock.Anything).
		Return(activities.ReviseResult{}, errors.New("providers exhausted"))

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, "draft v1", state.DraftReport, "failed revision keeps the draft")
	assert.Equal(t, DefaultMaxRevisions, state.RevisionCount)
	assert.Equal(t, 4, stubs.scoreCalls)
}

func TestAnalysisWorkflowPublishesProgress(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{5.0, 8.0}}
	stubs.register(env)

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla"})

	require.True(t, env.IsWorkflowCompleted())
	require.NotEmpty(t, stubs.progress)

	first := stubs.progress[0]
	assert.Equal(t, constants.StageResearcher, first.CurrentStep)
	assert.Equal(t, "running", first.Status)

	last := stubs.progress[len(stubs.progress)-1]
	assert.Equal(t, "completed", last.CurrentStep)
	assert.Equal(t, "completed", last.Status)

	var steps []string
	for _, p := range stubs.progress {
		steps = append(steps, p.CurrentStep)
	}
	assert.Contains(t, steps, constants.StageAnalyst)
	assert.Contains(t, steps, constants.StageCritic)
	assert.Contains(t, steps, constants.StageEditor)
}

func TestAnalysisWorkflowStatusQuery(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{8.0}}
	stubs.register(env)

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla"})
	require.True(t, env.IsWorkflowCompleted())

	val, err := env.QueryWorkflow(StatusQuery)
	require.NoError(t, err)
	var snap StatusSnapshot
	require.NoError(t, val.Get(&snap))
	assert.Equal(t, "completed", snap.CurrentStep)
	assert.Equal(t, 8.0, snap.Score)
}

func TestAnalysisWorkflowProgressSinkFailureIsIgnored(t *testing.T) {
	env := newEnv(t)
	stubs := &stageStubs{scores: []float64{8.0}}
	stubs.register(env)
	env.OnActivity(constants.PublishProgressActivity, mock.Anything, mock.Anything).
		Return(errors.New("redis down"))

	env.ExecuteWorkflow(AnalysisWorkflow, AnalysisInput{CompanyName: "Tesla"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var state AnalysisState
	require.NoError(t, env.GetWorkflowResult(&state))
	assert.Equal(t, 8.0, state.Score)
}
