// Package sources declares the research source registry. The six basket
// integrations are external collaborators; this package only fixes their
// names, the fetch contract, and per-source politeness limits.
package sources

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
)

// Canonical source names, in aggregation order.
const (
	SourceFinancials = "financials"
	SourceVolatility = "volatility"
	SourceMacro      = "macro"
	SourceValuation  = "valuation"
	SourceNews       = "news"
	SourceSentiment  = "sentiment"
)

// Names returns the fixed source set in canonical order.
func Names() []string {
	return []string{
		SourceFinancials,
		SourceVolatility,
		SourceMacro,
		SourceValuation,
		SourceNews,
		SourceSentiment,
	}
}

// FetchRequest carries the identifiers a fetcher may need. Ticker-only
// sources ignore CompanyName; the macro source ignores both.
type FetchRequest struct {
	Ticker      string
	CompanyName string
}

// Fetcher is the sole contract the aggregator relies on. Implementations
// are expected to bound their own execution time; a non-nil error or a
// result carrying an error string both classify the source as failed.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*bundle.SourceResult, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req FetchRequest) (*bundle.SourceResult, error)

func (f FetcherFunc) Fetch(ctx context.Context, req FetchRequest) (*bundle.SourceResult, error) {
	return f(ctx, req)
}

// Registry maps source names to fetch capabilities. It is built once at
// process start and read-only afterwards, so lookups need no locking.
type Registry struct {
	fetchers map[string]Fetcher
	logger   *zap.Logger
}

// Option configures fetcher registration.
type Option func(*entryOpts)

type entryOpts struct {
	limit   rate.Limit
	burst   int
	timeout time.Duration
}

// WithRateLimit wraps the fetcher with a token-bucket limiter.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(o *entryOpts) {
		o.limit = limit
		o.burst = burst
	}
}

// WithTimeout bounds each fetch with its own deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *entryOpts) { o.timeout = d }
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		fetchers: make(map[string]Fetcher),
		logger:   logger,
	}
}

// Register installs a fetcher under a canonical source name. Registering
// the same name twice replaces the earlier entry.
func (r *Registry) Register(name string, f Fetcher, opts ...Option) {
	o := entryOpts{timeout: 30 * time.Second}
	for _, apply := range opts {
		apply(&o)
	}
	if o.limit > 0 {
		f = &limitedFetcher{inner: f, limiter: rate.NewLimiter(o.limit, o.burst)}
	}
	if o.timeout > 0 {
		f = &boundedFetcher{inner: f, timeout: o.timeout}
	}
	r.fetchers[name] = f
	r.logger.Debug("Registered source fetcher", zap.String("source", name))
}

// Lookup returns the fetcher registered under name.
func (r *Registry) Lookup(name string) (Fetcher, bool) {
	f, ok := r.fetchers[name]
	return f, ok
}

// Registered returns registered source names in canonical order, with any
// non-canonical names appended alphabetically.
func (r *Registry) Registered() []string {
	var names []string
	seen := make(map[string]bool, len(r.fetchers))
	for _, n := range Names() {
		if _, ok := r.fetchers[n]; ok {
			names = append(names, n)
			seen[n] = true
		}
	}
	var extra []string
	for n := range r.fetchers {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

// limitedFetcher enforces a per-source request rate. The wait respects the
// caller's context so an abandoned run never blocks on a token.
type limitedFetcher struct {
	inner   Fetcher
	limiter *rate.Limiter
}

func (l *limitedFetcher) Fetch(ctx context.Context, req FetchRequest) (*bundle.SourceResult, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.inner.Fetch(ctx, req)
}

// boundedFetcher imposes a per-fetch deadline independent of siblings.
type boundedFetcher struct {
	inner   Fetcher
	timeout time.Duration
}

func (b *boundedFetcher) Fetch(ctx context.Context, req FetchRequest) (*bundle.SourceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.inner.Fetch(ctx, req)
}
