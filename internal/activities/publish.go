package activities

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/metrics"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/progress"
)

// PublishProgress writes a stage-transition observation to the progress
// store. Sink failures are logged and swallowed; observations are
// best-effort and never block the run.
func (a *Activities) PublishProgress(ctx context.Context, in PublishProgressInput) error {
	if in.Status == progress.StatusCompleted || in.Status == progress.StatusError {
		metrics.AnalysesCompleted.WithLabelValues(in.Status).Inc()
		metrics.RevisionsPerAnalysis.Observe(float64(in.RevisionCount))
		if start, ok := a.runStarts.LoadAndDelete(in.RunID); ok {
			metrics.AnalysisDuration.Observe(time.Since(start.(time.Time)).Seconds())
		}
	}

	err := a.progress.Set(ctx, in.RunID, progress.Progress{
		Status:        in.Status,
		CurrentStep:   in.CurrentStep,
		RevisionCount: in.RevisionCount,
		Score:         in.Score,
	})
	if err != nil {
		a.logger.Warn("Progress publish failed",
			zap.String("run_id", in.RunID),
			zap.String("step", in.CurrentStep),
			zap.Error(err),
		)
	}
	return nil
}
