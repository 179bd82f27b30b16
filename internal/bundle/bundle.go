// Package bundle defines the research data model shared by the aggregator,
// the cache, the A2A client, and the workflow activities.
package bundle

import (
	"encoding/json"
	"time"
)

// DataSource labels where a bundle came from.
type DataSource string

const (
	DataSourceLive   DataSource = "live"
	DataSourceCached DataSource = "cached"
	DataSourceA2A    DataSource = "a2a"
)

// SWOTSummary holds partial SWOT items contributed by one source, or the
// aggregated union across all sources.
type SWOTSummary struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// SourceResult is the raw structured result of one source fetch. A result
// with a non-empty Error field counts as a failed source even when the
// fetcher itself returned no transport error.
type SourceResult struct {
	Source  string                 `json:"source,omitempty"`
	Error   string                 `json:"error,omitempty"`
	SWOT    *SWOTSummary           `json:"swot_summary,omitempty"`
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// Failed reports whether this result should be classified as a failure.
func (r *SourceResult) Failed() bool {
	return r == nil || r.Error != ""
}

// ResearchBundle is the merged output of one aggregation pass over all
// configured sources. SourcesAvailable and SourcesFailed always partition
// the configured source set.
type ResearchBundle struct {
	Ticker           string                   `json:"ticker"`
	CompanyName      string                   `json:"company_name"`
	SourcesAvailable []string                 `json:"sources_available"`
	SourcesFailed    []string                 `json:"sources_failed"`
	Metrics          map[string]*SourceResult `json:"metrics"`
	AggregatedSWOT   SWOTSummary              `json:"aggregated_swot"`
	GeneratedAt      time.Time                `json:"generated_at"`

	// CacheInfo is populated only on bundles served from the cache.
	CacheInfo *CacheInfo `json:"_cache_info,omitempty"`
}

// CacheInfo annotates a bundle retrieved from the cache.
type CacheInfo struct {
	Cached    bool      `json:"cached"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Empty reports whether no source produced usable data.
func (b *ResearchBundle) Empty() bool {
	return b == nil || len(b.SourcesAvailable) == 0
}

// MarshalForStorage encodes the bundle for the cache, stripping cache
// metadata so a stored bundle never carries stale annotations.
func (b *ResearchBundle) MarshalForStorage() ([]byte, error) {
	stripped := *b
	stripped.CacheInfo = nil
	return json.Marshal(&stripped)
}
