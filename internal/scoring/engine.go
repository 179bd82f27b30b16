package scoring

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Report is the full scoring output: both sub-scores, the combined final
// score, and the assembled critique text.
type Report struct {
	Deterministic DeterministicResult `json:"deterministic"`
	Judge         JudgeResult         `json:"llm"`
	FinalScore    float64             `json:"final_score"`
	Critique      string              `json:"critique"`
}

// Engine combines deterministic structural checks with the qualitative
// judgment into one 1-10 score.
type Engine struct {
	client CompletionClient
	logger *zap.Logger
}

// NewEngine builds a scoring engine around a completion collaborator.
func NewEngine(client CompletionClient, logger *zap.Logger) *Engine {
	return &Engine{client: client, logger: logger}
}

// Score evaluates a draft. It always produces a final score in [1,10],
// even when every check and the judge fail simultaneously.
func (e *Engine) Score(ctx context.Context, report, strategyFocus string, sourcesAvailable []string) *Report {
	det := RunDeterministicChecks(report, sourcesAvailable)
	e.logger.Debug("Deterministic checks complete",
		zap.Int("raw", det.TotalScore),
		zap.Float64("normalized", det.Normalized),
	)

	judge := RunJudgeEvaluation(ctx, e.client, report, strategyFocus, e.logger)
	e.logger.Debug("Judge evaluation complete",
		zap.Int("score", judge.Score),
		zap.String("provider", judge.Provider),
		zap.Bool("error", judge.Error),
	)

	final := det.Normalized + float64(judge.Score)
	final = math.Min(math.Max(final, 1), 10)
	final = math.Round(final*10) / 10

	return &Report{
		Deterministic: det,
		Judge:         judge,
		FinalScore:    final,
		Critique:      buildCritique(det, judge),
	}
}

// buildCritique renders the human-readable critique: the deterministic
// block first, then the qualitative block.
func buildCritique(det DeterministicResult, judge JudgeResult) string {
	parts := []string{
		det.summary(),
		"",
		fmt.Sprintf("LLM Evaluation (%d/6 pts):", judge.Score),
		fmt.Sprintf("  %s", judge.Reasoning),
	}
	return strings.Join(parts, "\n")
}
