package activities

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/metrics"
)

// tickerOverrides maps well-known company names to their symbols. Anything
// absent falls back to the uppercased first word of the company name.
var tickerOverrides = map[string]string{
	"tesla":      "TSLA",
	"apple":      "AAPL",
	"microsoft":  "MSFT",
	"amazon":     "AMZN",
	"alphabet":   "GOOGL",
	"google":     "GOOGL",
	"meta":       "META",
	"nvidia":     "NVDA",
	"netflix":    "NFLX",
	"salesforce": "CRM",
}

// ResolveTicker derives a ticker symbol from a company name.
func ResolveTicker(companyName string) string {
	name := strings.ToLower(strings.TrimSpace(companyName))
	if t, ok := tickerOverrides[name]; ok {
		return t
	}
	fields := strings.Fields(strings.TrimSpace(companyName))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// Research gathers the research bundle, either by in-process fan-out or by
// delegating to the A2A worker when one is configured. Remote failures of
// any kind degrade to an empty bundle; the workflow proceeds regardless.
func (a *Activities) Research(ctx context.Context, in ResearchInput) (ResearchResult, error) {
	metrics.AnalysesStarted.Inc()
	a.runStarts.Store(in.RunID, time.Now())

	ticker := in.Ticker
	if ticker == "" {
		ticker = ResolveTicker(in.CompanyName)
	}

	if a.remote != nil {
		b, err := a.remote.Delegate(ctx, in.CompanyName, ticker)
		if err != nil {
			a.logger.Warn("Delegated research failed, proceeding with empty bundle",
				zap.String("company", in.CompanyName),
				zap.Error(err),
			)
			empty := &bundle.ResearchBundle{
				Ticker:           strings.ToUpper(ticker),
				CompanyName:      in.CompanyName,
				SourcesAvailable: []string{},
				SourcesFailed:    []string{},
				Metrics:          map[string]*bundle.SourceResult{},
				GeneratedAt:      time.Now().UTC(),
			}
			return ResearchResult{
				Bundle:     empty,
				DataSource: bundle.DataSourceA2A,
				Error:      err.Error(),
			}, nil
		}
		return ResearchResult{
			Bundle:        b,
			DataSource:    bundle.DataSourceA2A,
			SourcesFailed: b.SourcesFailed,
		}, nil
	}

	b := a.aggregator.Aggregate(ctx, ticker, in.CompanyName, in.UseCache)
	source := bundle.DataSourceLive
	if b.CacheInfo != nil && b.CacheInfo.Cached {
		source = bundle.DataSourceCached
	}
	return ResearchResult{
		Bundle:        b,
		DataSource:    source,
		SourcesFailed: b.SourcesFailed,
	}, nil
}
