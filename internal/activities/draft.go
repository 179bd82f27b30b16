package activities

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

const draftPromptTemplate = `
Use the following data to draft a SWOT analysis of %s.

Strategic Focus: %s
Context: %s

Data:
%s

Return only the SWOT in this format:
- Strengths:
- Weaknesses:
- Opportunities:
- Threats:
`

// DraftReport runs the Analyst stage. A collaborator failure becomes the
// draft text itself; the workflow scores it poorly and keeps moving
// instead of halting.
func (a *Activities) DraftReport(ctx context.Context, in DraftInput) (DraftResult, error) {
	raw, err := json.Marshal(in.Bundle)
	if err != nil {
		raw = []byte("{}")
	}
	prompt := fmt.Sprintf(draftPromptTemplate,
		in.CompanyName, in.StrategyFocus, StrategyContext(in.StrategyFocus), string(raw))

	text, provider, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		a.logger.Warn("Draft generation failed",
			zap.String("company", in.CompanyName),
			zap.Error(err),
		)
		return DraftResult{
			Draft:  fmt.Sprintf("Error generating analysis: %v", err),
			Failed: true,
		}, nil
	}

	return DraftResult{Draft: text, Provider: provider}, nil
}
