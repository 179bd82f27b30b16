package activities

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const revisePromptTemplate = `
Revise this SWOT draft based on the following critique:

Draft:
%s

Critique:
%s

Strategic Focus: %s
Context: %s

Please improve the draft by:
1. Adding specific facts and numbers if missing
2. Ensuring all 4 SWOT sections are present and complete
3. Making sure strengths/opportunities are distinct from weaknesses/threats
4. Aligning with the %s strategic focus

Return only the improved SWOT analysis in the same format.
`

// ReviseDraft runs the Editor stage. When the revision collaborator fails
// the existing draft is kept unchanged; either way the pass consumes one
// unit of the revision budget (counted by the workflow).
func (a *Activities) ReviseDraft(ctx context.Context, in ReviseInput) (ReviseResult, error) {
	prompt := fmt.Sprintf(revisePromptTemplate,
		in.Draft, in.Critique, in.StrategyFocus, StrategyContext(in.StrategyFocus), in.StrategyFocus)

	text, provider, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("Revision failed, keeping existing draft", zap.Error(err))
		return ReviseResult{Draft: in.Draft, Revised: false}, nil
	}

	return ReviseResult{Draft: text, Provider: provider, Revised: true}, nil
}
