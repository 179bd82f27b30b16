package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CompletionClient is the opaque text-completion collaborator. It returns
// the completion text, a label for the provider that answered, and an error.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string) (text string, provider string, err error)
}

// judgeRubric is the fixed qualitative rubric. The collaborator must answer
// with strict JSON; anything else falls back to the neutral score.
const judgeRubric = `
You are a strategy evaluator. Given a SWOT analysis, score it on a scale of 1 to 6.

Scoring Criteria:
1. Strategic Alignment (0-2 pts): Does the analysis align with the given strategic focus?
2. Insight Quality (0-2 pts): Are insights actionable and specific (not generic)?
3. Logical Consistency (0-2 pts): Are S/O clearly positive and W/T clearly negative? No contradictions?

Respond in this JSON format only, no other text:
{
  "score": <int 1-6>,
  "strategic_alignment": <0-2>,
  "insight_quality": <0-2>,
  "logical_consistency": <0-2>,
  "reasoning": "<string>"
}
`

// neutralJudgeScore substitutes for the qualitative sub-score whenever the
// collaborator fails or answers with unparseable output.
const neutralJudgeScore = 3

// JudgeResult is the qualitative sub-score with its named components.
type JudgeResult struct {
	Score              int    `json:"score"`
	StrategicAlignment int    `json:"strategic_alignment"`
	InsightQuality     int    `json:"insight_quality"`
	LogicalConsistency int    `json:"logical_consistency"`
	Reasoning          string `json:"reasoning"`
	Provider           string `json:"provider"`
	Error              bool   `json:"error"`
}

// RunJudgeEvaluation asks the completion collaborator to score the draft
// against the rubric. It never fails: collaborator errors and malformed
// JSON both yield the neutral score with the error flag set.
func RunJudgeEvaluation(ctx context.Context, client CompletionClient, report, strategyFocus string, logger *zap.Logger) JudgeResult {
	prompt := fmt.Sprintf("SWOT Draft:\n%s\n\nStrategic Focus: %s\n%s", report, strategyFocus, judgeRubric)

	text, provider, err := client.Complete(ctx, prompt)
	if err != nil {
		logger.Warn("Judge evaluation failed", zap.Error(err))
		return JudgeResult{
			Score:     neutralJudgeScore,
			Reasoning: fmt.Sprintf("LLM evaluation failed: %v", err),
			Provider:  provider,
			Error:     true,
		}
	}

	parsed, perr := parseJudgeJSON(text)
	if perr != nil {
		logger.Warn("Judge returned unparseable output",
			zap.String("provider", provider),
			zap.Error(perr),
		)
		return JudgeResult{
			Score:     neutralJudgeScore,
			Reasoning: fmt.Sprintf("JSON parsing failed: %v", perr),
			Provider:  provider,
			Error:     true,
		}
	}

	parsed.Score = clampInt(parsed.Score, 1, 6)
	parsed.Provider = provider
	if parsed.Reasoning == "" {
		parsed.Reasoning = "No reasoning provided"
	}
	return parsed
}

// parseJudgeJSON extracts the JSON object between the first '{' and the
// last '}' so judges that wrap their answer in prose still parse.
func parseJudgeJSON(text string) (JudgeResult, error) {
	content := strings.TrimSpace(text)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return JudgeResult{}, fmt.Errorf("no JSON object in response")
	}
	content = content[start : end+1]

	var result JudgeResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return JudgeResult{}, err
	}
	if result.Score == 0 {
		result.Score = neutralJudgeScore
	}
	return result, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
