package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/sources"
)

// memCache is a map-backed BundleCache for tests.
type memCache struct {
	mu      sync.Mutex
	bundles map[string]*bundle.ResearchBundle
	puts    int
}

func newMemCache() *memCache {
	return &memCache{bundles: make(map[string]*bundle.ResearchBundle)}
}

func (m *memCache) Get(_ context.Context, ticker string) (*bundle.ResearchBundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bundles[ticker]
	if !ok {
		return nil, nil
	}
	copied := *b
	copied.CacheInfo = &bundle.CacheInfo{Cached: true, ExpiresAt: time.Now().Add(time.Hour)}
	return &copied, nil
}

func (m *memCache) Put(_ context.Context, b *bundle.ResearchBundle, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[b.Ticker] = b
	m.puts++
	return nil
}

func okFetcher(name string, swot *bundle.SWOTSummary) sources.Fetcher {
	return sources.FetcherFunc(func(_ context.Context, _ sources.FetchRequest) (*bundle.SourceResult, error) {
		return &bundle.SourceResult{Source: name, SWOT: swot}, nil
	})
}

func errFetcher(err error) sources.Fetcher {
	return sources.FetcherFunc(func(_ context.Context, _ sources.FetchRequest) (*bundle.SourceResult, error) {
		return nil, err
	})
}

func buildRegistry(t *testing.T, fetchers map[string]sources.Fetcher) *sources.Registry {
	t.Helper()
	registry := sources.NewRegistry(zap.NewNop())
	for name, f := range fetchers {
		registry.Register(name, f)
	}
	return registry
}

func TestAggregatePartitionsSources(t *testing.T) {
	registry := buildRegistry(t, map[string]sources.Fetcher{
		sources.SourceFinancials: okFetcher("financials", &bundle.SWOTSummary{Strengths: []string{"strong revenue"}}),
		sources.SourceVolatility: errFetcher(errors.New("connect: refused")),
		sources.SourceMacro:      okFetcher("macro", &bundle.SWOTSummary{Opportunities: []string{"rate cuts expected"}}),
		sources.SourceValuation: sources.FetcherFunc(func(_ context.Context, _ sources.FetchRequest) (*bundle.SourceResult, error) {
			// Error carried in the result body, not as a transport error.
			return &bundle.SourceResult{Source: "valuation", Error: "upstream 503"}, nil
		}),
	})
	agg := New(registry, nil, time.Hour, zap.NewNop())

	b := agg.Aggregate(context.Background(), "tsla", "Tesla", false)

	require.NotNil(t, b)
	assert.Equal(t, "TSLA", b.Ticker)
	assert.Equal(t, "Tesla", b.CompanyName)
	assert.Equal(t, []string{"financials", "macro"}, b.SourcesAvailable)
	assert.Equal(t, []string{"volatility", "valuation"}, b.SourcesFailed)

	// Every configured source appears exactly once across the two lists.
	assert.Len(t, append(b.SourcesAvailable, b.SourcesFailed...), 4)
	assert.Contains(t, b.Metrics["volatility"].Error, "refused")
	assert.Contains(t, b.Metrics["valuation"].Error, "503")
}

func TestAggregateTotalFailureStillReturnsBundle(t *testing.T) {
	registry := buildRegistry(t, map[string]sources.Fetcher{
		sources.SourceFinancials: errFetcher(errors.New("down")),
		sources.SourceNews:       errFetcher(errors.New("down")),
	})
	c := newMemCache()
	agg := New(registry, c, time.Hour, zap.NewNop())

	b := agg.Aggregate(context.Background(), "TSLA", "Tesla", false)

	require.NotNil(t, b)
	assert.Empty(t, b.SourcesAvailable)
	assert.Equal(t, []string{"financials", "news"}, b.SourcesFailed)
	assert.True(t, b.Empty())
	assert.Equal(t, 0, c.puts, "empty bundles must never be cached")
}

func TestAggregateSWOTUnionPreservesSourceOrder(t *testing.T) {
	registry := buildRegistry(t, map[string]sources.Fetcher{
		sources.SourceFinancials: okFetcher("financials", &bundle.SWOTSummary{
			Strengths:  []string{"revenue growth"},
			Weaknesses: []string{"thin margins"},
		}),
		sources.SourceSentiment: okFetcher("sentiment", &bundle.SWOTSummary{
			Strengths: []string{"bullish retail sentiment", "revenue growth"},
			Threats:   []string{"sentiment reversal risk"},
		}),
	})
	agg := New(registry, nil, time.Hour, zap.NewNop())

	b := agg.Aggregate(context.Background(), "TSLA", "Tesla", false)

	// financials precedes sentiment in canonical order, and duplicates
	// across sources are kept.
	assert.Equal(t, []string{"revenue growth", "bullish retail sentiment", "revenue growth"}, b.AggregatedSWOT.Strengths)
	assert.Equal(t, []string{"thin margins"}, b.AggregatedSWOT.Weaknesses)
	assert.Equal(t, []string{"sentiment reversal risk"}, b.AggregatedSWOT.Threats)
	assert.Empty(t, b.AggregatedSWOT.Opportunities)
}

func TestAggregateCacheHitShortCircuits(t *testing.T) {
	calls := 0
	registry := buildRegistry(t, map[string]sources.Fetcher{
		sources.SourceFinancials: sources.FetcherFunc(func(_ context.Context, _ sources.FetchRequest) (*bundle.SourceResult, error) {
			calls++
			return &bundle.SourceResult{Source: "financials", SWOT: &bundle.SWOTSummary{Strengths: []string{"cash rich"}}}, nil
		}),
	})
	c := newMemCache()
	agg := New(registry, c, time.Hour, zap.NewNop())

	first := agg.Aggregate(context.Background(), "TSLA", "Tesla", true)
	require.False(t, first.Empty())
	assert.Nil(t, first.CacheInfo)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, c.puts)

	second := agg.Aggregate(context.Background(), "TSLA", "Tesla", true)
	require.NotNil(t, second.CacheInfo)
	assert.True(t, second.CacheInfo.Cached)
	assert.Equal(t, 1, calls, "cache hit must not trigger live fetches")
}

func TestAggregateBypassesCacheWhenDisabled(t *testing.T) {
	calls := 0
	registry := buildRegistry(t, map[string]sources.Fetcher{
		sources.SourceFinancials: sources.FetcherFunc(func(_ context.Context, _ sources.FetchRequest) (*bundle.SourceResult, error) {
			calls++
			return &bundle.SourceResult{Source: "financials", SWOT: &bundle.SWOTSummary{}}, nil
		}),
	})
	c := newMemCache()
	agg := New(registry, c, time.Hour, zap.NewNop())

	agg.Aggregate(context.Background(), "TSLA", "Tesla", false)
	agg.Aggregate(context.Background(), "TSLA", "Tesla", false)

	assert.Equal(t, 2, calls)
	// Fresh results are still written so later cached runs can use them.
	assert.Equal(t, 2, c.puts)
}

func TestAggregateCacheFailureDegradesToLive(t *testing.T) {
	registry := buildRegistry(t, map[string]sources.Fetcher{
		sources.SourceFinancials: okFetcher("financials", &bundle.SWOTSummary{Strengths: []string{"ok"}}),
	})
	agg := New(registry, failingCache{}, time.Hour, zap.NewNop())

	b := agg.Aggregate(context.Background(), "TSLA", "Tesla", true)

	require.NotNil(t, b)
	assert.Equal(t, []string{"financials"}, b.SourcesAvailable)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (*bundle.ResearchBundle, error) {
	return nil, errors.New("cache offline")
}

func (failingCache) Put(context.Context, *bundle.ResearchBundle, time.Duration) error {
	return errors.New("cache offline")
}

func TestAggregateRecoversFetcherPanic(t *testing.T) {
	registry := buildRegistry(t, map[string]sources.Fetcher{
		sources.SourceFinancials: okFetcher("financials", &bundle.SWOTSummary{Strengths: []string{"solid"}}),
		sources.SourceNews: sources.FetcherFunc(func(_ context.Context, _ sources.FetchRequest) (*bundle.SourceResult, error) {
			panic("nil map write")
		}),
	})
	agg := New(registry, nil, time.Hour, zap.NewNop())

	b := agg.Aggregate(context.Background(), "TSLA", "Tesla", false)

	assert.Equal(t, []string{"financials"}, b.SourcesAvailable)
	assert.Equal(t, []string{"news"}, b.SourcesFailed)
	assert.Contains(t, b.Metrics["news"].Error, "panic")
}
