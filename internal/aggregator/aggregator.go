// Package aggregator fans a research request out to every registered
// source concurrently and merges the results into one bundle. Partial
// failure is normal: a failed source degrades to an error entry in the
// bundle, never an aggregation error.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/cache"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/metrics"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/sources"
)

// BundleCache is the slice of the cache the aggregator needs. A nil cache
// disables the consult/write path entirely.
type BundleCache interface {
	Get(ctx context.Context, ticker string) (*bundle.ResearchBundle, error)
	Put(ctx context.Context, b *bundle.ResearchBundle, ttl time.Duration) error
}

// Aggregator coordinates the fan-out across the source registry.
type Aggregator struct {
	registry *sources.Registry
	cache    BundleCache
	ttl      time.Duration
	logger   *zap.Logger
}

// New builds an aggregator over a registry. cache may be nil.
func New(registry *sources.Registry, c BundleCache, ttl time.Duration, logger *zap.Logger) *Aggregator {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Aggregator{
		registry: registry,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
	}
}

type fetchOutcome struct {
	source string
	result *bundle.SourceResult
	err    error
}

// Aggregate gathers data from every registered source. It never returns an
// error: total failure yields a bundle with an empty SourcesAvailable list
// and every source's error captured in Metrics.
func (a *Aggregator) Aggregate(ctx context.Context, ticker, companyName string, useCache bool) *bundle.ResearchBundle {
	if useCache && a.cache != nil {
		if cached, err := a.cache.Get(ctx, ticker); err != nil {
			a.logger.Warn("Cache lookup failed, falling through to live fetch",
				zap.String("ticker", ticker),
				zap.Error(err),
			)
		} else if cached != nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			a.logger.Info("Cache hit", zap.String("ticker", ticker))
			return cached
		} else {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	names := a.registry.Registered()
	a.logger.Info("Fetching research data",
		zap.String("ticker", ticker),
		zap.String("company", companyName),
		zap.Int("sources", len(names)),
	)

	req := sources.FetchRequest{Ticker: ticker, CompanyName: companyName}
	outcomes := make(chan fetchOutcome, len(names))
	var wg sync.WaitGroup
	for _, name := range names {
		fetcher, ok := a.registry.Lookup(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(name string, f sources.Fetcher) {
			defer wg.Done()
			result, err := safeFetch(ctx, f, req)
			outcomes <- fetchOutcome{source: name, result: result, err: err}
		}(name, fetcher)
	}
	wg.Wait()
	close(outcomes)

	byName := make(map[string]fetchOutcome, len(names))
	for o := range outcomes {
		byName[o.source] = o
	}

	b := &bundle.ResearchBundle{
		Ticker:           strings.ToUpper(ticker),
		CompanyName:      companyName,
		SourcesAvailable: []string{},
		SourcesFailed:    []string{},
		Metrics:          make(map[string]*bundle.SourceResult, len(names)),
		GeneratedAt:      time.Now().UTC(),
	}

	// Classification walks the canonical order so bundle membership is
	// stable regardless of completion order.
	for _, name := range names {
		o := byName[name]
		switch {
		case o.err != nil:
			b.SourcesFailed = append(b.SourcesFailed, name)
			b.Metrics[name] = &bundle.SourceResult{Source: name, Error: o.err.Error()}
			metrics.SourceFetches.WithLabelValues(name, "error").Inc()
			a.logger.Warn("Source fetch failed",
				zap.String("source", name),
				zap.Error(o.err),
			)
		case o.result.Failed():
			b.SourcesFailed = append(b.SourcesFailed, name)
			b.Metrics[name] = o.result
			metrics.SourceFetches.WithLabelValues(name, "error").Inc()
			a.logger.Warn("Source returned error result",
				zap.String("source", name),
				zap.String("error", o.result.Error),
			)
		default:
			b.SourcesAvailable = append(b.SourcesAvailable, name)
			b.Metrics[name] = o.result
			metrics.SourceFetches.WithLabelValues(name, "ok").Inc()
		}
	}

	b.AggregatedSWOT = unionSWOT(b)
	metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("Research complete",
		zap.String("ticker", b.Ticker),
		zap.Int("available", len(b.SourcesAvailable)),
		zap.Int("failed", len(b.SourcesFailed)),
	)

	// A bundle with zero usable sources is never cached.
	if a.cache != nil && !b.Empty() {
		if err := a.cache.Put(ctx, b, a.ttl); err != nil {
			a.logger.Warn("Cache write failed",
				zap.String("ticker", b.Ticker),
				zap.Error(err),
			)
		}
	}

	return b
}

// safeFetch converts a fetcher panic into an ordinary fetch error so one
// misbehaving integration cannot take down the fan-out.
func safeFetch(ctx context.Context, f sources.Fetcher, req sources.FetchRequest) (result *bundle.SourceResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("fetcher panic: %v", r)
		}
	}()
	return f.Fetch(ctx, req)
}

// unionSWOT concatenates each available source's partial SWOT summary,
// category by category, preserving item order within a source and source
// order across sources. Duplicates are kept deliberately.
func unionSWOT(b *bundle.ResearchBundle) bundle.SWOTSummary {
	var agg bundle.SWOTSummary
	for _, name := range b.SourcesAvailable {
		result := b.Metrics[name]
		if result == nil || result.SWOT == nil {
			continue
		}
		agg.Strengths = append(agg.Strengths, result.SWOT.Strengths...)
		agg.Weaknesses = append(agg.Weaknesses, result.SWOT.Weaknesses...)
		agg.Opportunities = append(agg.Opportunities, result.SWOT.Opportunities...)
		agg.Threats = append(agg.Threats, result.SWOT.Threats...)
	}
	return agg
}
