package activities

import (
	"context"

	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/metrics"
)

// ScoreDraft runs the Critic stage. The scoring engine never fails: judge
// errors fall back to the neutral qualitative score, so the result is
// always a defined score in [1,10].
func (a *Activities) ScoreDraft(ctx context.Context, in ScoreInput) (ScoreResult, error) {
	report := a.scorer.Score(ctx, in.Draft, in.StrategyFocus, in.SourcesAvailable)

	a.logger.Info("Critic scored draft",
		zap.Float64("score", report.FinalScore),
		zap.Float64("deterministic", report.Deterministic.Normalized),
		zap.Int("qualitative", report.Judge.Score),
		zap.Bool("judge_error", report.Judge.Error),
	)
	metrics.FinalScores.Observe(report.FinalScore)

	return ScoreResult{
		Score:    report.FinalScore,
		Critique: report.Critique,
		Provider: report.Judge.Provider,
		Details:  report,
	}, nil
}
