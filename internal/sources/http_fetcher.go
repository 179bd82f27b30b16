package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/vn6295337/strategy-agent/go/orchestrator/internal/bundle"
)

// HTTPFetcher adapts a basket HTTP endpoint to the Fetcher contract. The
// endpoint is expected to answer GET <base>?ticker=X&company=Y with a JSON
// SourceResult body; a body carrying an "error" field is passed through so
// the aggregator classifies it as a failed source rather than a transport
// error.
type HTTPFetcher struct {
	source  string
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPFetcher builds a fetcher for one basket endpoint. The http.Client
// should carry its own timeout; per-fetch deadlines come from registry
// options.
func NewHTTPFetcher(source, baseURL string, client *http.Client, logger *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		source:  source,
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

func (h *HTTPFetcher) Fetch(ctx context.Context, req FetchRequest) (*bundle.SourceResult, error) {
	q := url.Values{}
	if req.Ticker != "" {
		q.Set("ticker", req.Ticker)
	}
	if req.CompanyName != "" {
		q.Set("company", req.CompanyName)
	}
	target := h.baseURL
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", h.source, err)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", h.source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch %s: status %d: %s", h.source, resp.StatusCode, string(body))
	}

	var result bundle.SourceResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", h.source, err)
	}
	if result.Source == "" {
		result.Source = h.source
	}
	return &result, nil
}
