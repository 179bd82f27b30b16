package activities

// Strategic lenses accepted by the analysis workflow.
const (
	StrategyCostLeadership  = "Cost Leadership"
	StrategyDifferentiation = "Differentiation"
	StrategyFocusNiche      = "Focus/Niche"
)

var strategyContexts = map[string]string{
	StrategyCostLeadership: "Compete by achieving the lowest cost structure in the " +
		"industry: operational efficiency, economies of scale, supply chain " +
		"optimization, and price-based competitive advantage.",
	StrategyDifferentiation: "Compete by offering unique products or services that " +
		"command premium pricing: brand strength, innovation, quality, and " +
		"customer experience as the basis of advantage.",
	StrategyFocusNiche: "Compete by dominating a narrow market segment: deep " +
		"specialization, tailored offerings, and defensibility within the niche " +
		"rather than broad market share.",
}

// StrategyContext returns the lens description embedded in Analyst and
// Editor prompts. Unknown lenses fall back to Cost Leadership, matching
// the workflow's default focus.
func StrategyContext(focus string) string {
	if ctx, ok := strategyContexts[focus]; ok {
		return ctx
	}
	return strategyContexts[StrategyCostLeadership]
}
