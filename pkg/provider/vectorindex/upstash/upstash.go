// Package upstash provides a vectorindex.Provider backed by the Upstash
// Vector REST API. Upstash Vector indexes are provisioned out-of-band (via
// the Upstash console or control-plane API), so EnsureIndex is a no-op here
// — there is no index-lifecycle endpoint analogous to Pinecone's.
package upstash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const (
	defaultBatchSize = 100
	defaultTopK      = 5
	batchPause       = 500 * time.Millisecond
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements vectorindex.Provider using the Upstash Vector REST
// API.
type Provider struct {
	restURL    string
	token      string
	httpClient *http.Client
}

// New constructs a new Upstash Provider. restURL and token come from the
// index's REST credentials in the Upstash console.
func New(restURL, token string, opts ...Option) (*Provider, error) {
	if restURL == "" || token == "" {
		return nil, fmt.Errorf("upstash: %w", vectorindex.ErrProviderNotConfigured)
	}
	p := &Provider{
		restURL:    restURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func (p *Provider) doJSON(ctx context.Context, path string, reqBody, respBody interface{}) error {
	var body io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("upstash: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.restURL+path, body)
	if err != nil {
		return fmt.Errorf("upstash: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstash: http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("upstash: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("upstash: unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	if respBody != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, respBody); err != nil {
			return fmt.Errorf("upstash: decode response: %w", err)
		}
	}
	return nil
}

// EnsureIndex is a no-op: Upstash Vector indexes are provisioned
// out-of-band and carry a fixed dimension set at creation time.
func (p *Provider) EnsureIndex(ctx context.Context, name string, dim int) error {
	return nil
}

type upsertVectorWire struct {
	ID       string            `json:"id"`
	Vector   []float32         `json:"vector"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upstashResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

// Upsert writes vectors in batches of opts.BatchSize (default 100),
// pausing batchPause between batches.
func (p *Provider) Upsert(ctx context.Context, vectors []types.Vector, opts vectorindex.UpsertOptions) error {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	path := "/upsert"
	if opts.Namespace != "" {
		path = "/upsert/" + opts.Namespace
	}

	for start := 0; start < len(vectors); start += batchSize {
		end := start + batchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		batch := vectors[start:end]
		wire := make([]upsertVectorWire, len(batch))
		for i, v := range batch {
			wire[i] = upsertVectorWire{ID: v.ID, Vector: v.Values, Metadata: v.Metadata}
		}

		var resp upstashResponse
		if err := p.doJSON(ctx, path, wire, &resp); err != nil {
			return &types.BatchUploadError{BatchIndex: start / batchSize, Err: err}
		}
		if resp.Error != "" {
			return &types.BatchUploadError{BatchIndex: start / batchSize, Err: fmt.Errorf("upstash: %s", resp.Error)}
		}

		if end < len(vectors) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(batchPause):
			}
		}
	}
	return nil
}

type queryRequest struct {
	Vector         []float32         `json:"vector"`
	TopK           int               `json:"topK"`
	Filter         string            `json:"filter,omitempty"`
	IncludeMetadata bool             `json:"includeMetadata"`
}

type queryMatch struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Query returns the topK nearest matches, ordered by decreasing score.
// Upstash's Filter field takes a SQL-like string expression; opts.Filter's
// map is joined into an AND-ed equality expression.
func (p *Provider) Query(ctx context.Context, vector []float32, opts vectorindex.QueryOptions) ([]types.Match, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	req := queryRequest{Vector: vector, TopK: topK, IncludeMetadata: true}
	if len(opts.Filter) > 0 {
		req.Filter = buildFilterExpr(opts.Filter)
	}

	path := "/query"
	if opts.Namespace != "" {
		path = "/query/" + opts.Namespace
	}

	var resp struct {
		Result []queryMatch `json:"result"`
		Error  string       `json:"error"`
	}
	if err := p.doJSON(ctx, path, req, &resp); err != nil {
		return nil, fmt.Errorf("upstash: query: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("upstash: query: %s", resp.Error)
	}

	matches := make([]types.Match, len(resp.Result))
	for i, m := range resp.Result {
		matches[i] = types.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	return matches, nil
}

func buildFilterExpr(filter map[string]string) string {
	expr := ""
	for k, v := range filter {
		if expr != "" {
			expr += " AND "
		}
		expr += fmt.Sprintf("%s = '%s'", k, v)
	}
	return expr
}

// DeleteAll removes every vector in namespace by resetting the index.
func (p *Provider) DeleteAll(ctx context.Context, namespace string) error {
	path := "/reset"
	if namespace != "" {
		path = "/reset/" + namespace
	}
	var resp upstashResponse
	if err := p.doJSON(ctx, path, nil, &resp); err != nil {
		return fmt.Errorf("upstash: delete all: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("upstash: delete all: %s", resp.Error)
	}
	return nil
}

// DeleteMany removes the vectors identified by ids from namespace.
func (p *Provider) DeleteMany(ctx context.Context, ids []string, namespace string) error {
	path := "/delete"
	if namespace != "" {
		path = "/delete/" + namespace
	}
	var resp upstashResponse
	if err := p.doJSON(ctx, path, map[string][]string{"ids": ids}, &resp); err != nil {
		return fmt.Errorf("upstash: delete many: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("upstash: delete many: %s", resp.Error)
	}
	return nil
}

type infoResponse struct {
	Result struct {
		VectorCount   int     `json:"vectorCount"`
		PendingCount  int     `json:"pendingVectorCount"`
		Dimension     int     `json:"dimension"`
		IndexSize     float64 `json:"indexSize"`
		Namespaces    map[string]struct {
			VectorCount int `json:"vectorCount"`
		} `json:"namespaces"`
	} `json:"result"`
	Error string `json:"error"`
}

// Describe returns index-level and namespace-level statistics.
func (p *Provider) Describe(ctx context.Context, name string) (*vectorindex.IndexStats, error) {
	var resp infoResponse
	if err := p.doJSON(ctx, "/info", nil, &resp); err != nil {
		return nil, fmt.Errorf("upstash: describe: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("upstash: describe: %s", resp.Error)
	}

	stats := &vectorindex.IndexStats{
		Dimension:        resp.Result.Dimension,
		TotalVectorCount: resp.Result.VectorCount,
		Namespaces:       make(map[string]vectorindex.NamespaceStats, len(resp.Result.Namespaces)),
	}
	for ns, counts := range resp.Result.Namespaces {
		stats.Namespaces[ns] = vectorindex.NamespaceStats{VectorCount: counts.VectorCount}
	}
	return stats, nil
}

// Ensure Provider implements vectorindex.Provider at compile time.
var _ vectorindex.Provider = (*Provider)(nil)
