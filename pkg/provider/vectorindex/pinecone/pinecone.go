// Package pinecone provides a vectorindex.Provider backed by the Pinecone
// REST API. There is no official Pinecone Go SDK in wide use, so this is a
// direct REST client following the same net/http + encoding/json idiom as
// the project's other hand-rolled provider clients.
package pinecone

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
	controlPlaneBaseURL = "https://api.pinecone.io"
	defaultBatchSize    = 100
	defaultTopK         = 5
	batchPause          = 500 * time.Millisecond
	indexWarmup         = 60 * time.Second
)

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithDataPlaneURL overrides the per-index data-plane host normally
// discovered via DescribeIndex. Set this to skip that lookup in tests.
func WithDataPlaneURL(url string) Option {
	return func(p *Provider) {
		p.dataPlaneURL = url
	}
}

// WithCloudRegion overrides the default serverless AWS us-east-1 placement
// used by EnsureIndex.
func WithCloudRegion(cloud, region string) Option {
	return func(p *Provider) {
		p.cloud = cloud
		p.region = region
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements vectorindex.Provider using the Pinecone REST API.
type Provider struct {
	apiKey       string
	dataPlaneURL string
	cloud        string
	region       string
	httpClient   *http.Client
}

// New constructs a new Pinecone Provider.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("pinecone: %w", vectorindex.ErrProviderNotConfigured)
	}
	p := &Provider{
		apiKey:     apiKey,
		cloud:      "aws",
		region:     "us-east-1",
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

func (p *Provider) doJSON(ctx context.Context, method, url string, reqBody, respBody interface{}) (*http.Response, error) {
	var body io.Reader
	if reqBody != nil {
		raw, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("pinecone: marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("pinecone: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", p.apiKey)
	req.Header.Set("X-Pinecone-API-Version", "2024-10")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinecone: http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pinecone: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return resp, fmt.Errorf("pinecone: unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	if respBody != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, respBody); err != nil {
			return resp, fmt.Errorf("pinecone: decode response: %w", err)
		}
	}
	return resp, nil
}

type listIndexesResponse struct {
	Indexes []struct {
		Name string `json:"name"`
		Host string `json:"host"`
	} `json:"indexes"`
}

type createIndexRequest struct {
	Name   string `json:"name"`
	Dimension int `json:"dimension"`
	Metric string `json:"metric"`
	Spec   struct {
		Serverless struct {
			Cloud  string `json:"cloud"`
			Region string `json:"region"`
		} `json:"serverless"`
	} `json:"spec"`
}

// EnsureIndex lists indexes and creates name with a serverless AWS
// us-east-1 spec (by default) if absent, then waits for it to warm up
// before returning.
func (p *Provider) EnsureIndex(ctx context.Context, name string, dim int) error {
	var list listIndexesResponse
	if _, err := p.doJSON(ctx, http.MethodGet, controlPlaneBaseURL+"/indexes", nil, &list); err != nil {
		return fmt.Errorf("pinecone: list indexes: %w", err)
	}
	for _, idx := range list.Indexes {
		if idx.Name == name {
			if p.dataPlaneURL == "" {
				p.dataPlaneURL = "https://" + idx.Host
			}
			return nil
		}
	}

	req := createIndexRequest{Name: name, Dimension: dim, Metric: "cosine"}
	req.Spec.Serverless.Cloud = p.cloud
	req.Spec.Serverless.Region = p.region

	var created struct {
		Host string `json:"host"`
	}
	if _, err := p.doJSON(ctx, http.MethodPost, controlPlaneBaseURL+"/indexes", req, &created); err != nil {
		return fmt.Errorf("pinecone: create index: %w", err)
	}
	if p.dataPlaneURL == "" {
		p.dataPlaneURL = "https://" + created.Host
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(indexWarmup):
	}
	return nil
}

type vectorWire struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type upsertRequest struct {
	Vectors   []vectorWire `json:"vectors"`
	Namespace string       `json:"namespace,omitempty"`
}

// Upsert writes vectors in batches of opts.BatchSize (default 100),
// pausing batchPause between batches.
func (p *Provider) Upsert(ctx context.Context, vectors []types.Vector, opts vectorindex.UpsertOptions) error {
	if p.dataPlaneURL == "" {
		return fmt.Errorf("pinecone: %w", vectorindex.ErrIndexNotFound)
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	for start := 0; start < len(vectors); start += batchSize {
		end := start + batchSize
		if end > len(vectors) {
			end = len(vectors)
		}
		batch := vectors[start:end]
		wire := make([]vectorWire, len(batch))
		for i, v := range batch {
			wire[i] = vectorWire{ID: v.ID, Values: v.Values, Metadata: v.Metadata}
		}

		if _, err := p.doJSON(ctx, http.MethodPost, p.dataPlaneURL+"/vectors/upsert",
			upsertRequest{Vectors: wire, Namespace: opts.Namespace}, nil); err != nil {
			return &types.BatchUploadError{BatchIndex: start / batchSize, Err: err}
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
	Vector          []float32         `json:"vector"`
	TopK            int               `json:"topK"`
	Namespace       string            `json:"namespace,omitempty"`
	Filter          map[string]string `json:"filter,omitempty"`
	IncludeMetadata bool              `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []struct {
		ID       string            `json:"id"`
		Score    float64           `json:"score"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK nearest matches, ordered by decreasing score.
func (p *Provider) Query(ctx context.Context, vector []float32, opts vectorindex.QueryOptions) ([]types.Match, error) {
	if p.dataPlaneURL == "" {
		return nil, fmt.Errorf("pinecone: %w", vectorindex.ErrIndexNotFound)
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	req := queryRequest{Vector: vector, TopK: topK, Namespace: opts.Namespace, IncludeMetadata: true}
	if len(opts.Filter) > 0 {
		req.Filter = opts.Filter
	}

	var resp queryResponse
	if _, err := p.doJSON(ctx, http.MethodPost, p.dataPlaneURL+"/query", req, &resp); err != nil {
		return nil, fmt.Errorf("pinecone: query: %w", err)
	}

	matches := make([]types.Match, len(resp.Matches))
	for i, m := range resp.Matches {
		matches[i] = types.Match{ID: m.ID, Score: m.Score, Metadata: m.Metadata}
	}
	return matches, nil
}

type deleteRequest struct {
	IDs       []string `json:"ids,omitempty"`
	DeleteAll bool     `json:"deleteAll,omitempty"`
	Namespace string   `json:"namespace,omitempty"`
}

// DeleteAll removes every vector in namespace.
func (p *Provider) DeleteAll(ctx context.Context, namespace string) error {
	if p.dataPlaneURL == "" {
		return fmt.Errorf("pinecone: %w", vectorindex.ErrIndexNotFound)
	}
	_, err := p.doJSON(ctx, http.MethodPost, p.dataPlaneURL+"/vectors/delete",
		deleteRequest{DeleteAll: true, Namespace: namespace}, nil)
	if err != nil {
		return fmt.Errorf("pinecone: delete all: %w", err)
	}
	return nil
}

// DeleteMany removes the vectors identified by ids from namespace.
func (p *Provider) DeleteMany(ctx context.Context, ids []string, namespace string) error {
	if p.dataPlaneURL == "" {
		return fmt.Errorf("pinecone: %w", vectorindex.ErrIndexNotFound)
	}
	_, err := p.doJSON(ctx, http.MethodPost, p.dataPlaneURL+"/vectors/delete",
		deleteRequest{IDs: ids, Namespace: namespace}, nil)
	if err != nil {
		return fmt.Errorf("pinecone: delete many: %w", err)
	}
	return nil
}

type describeResponse struct {
	Dimension        int     `json:"dimension"`
	TotalVectorCount int     `json:"totalVectorCount"`
	IndexFullness    float64 `json:"indexFullness"`
	Namespaces       map[string]struct {
		VectorCount int `json:"vectorCount"`
		RecordCount int `json:"recordCount"`
	} `json:"namespaces"`
}

// Describe returns index-level and namespace-level statistics. recordCount
// is authoritative over vectorCount when both are present.
func (p *Provider) Describe(ctx context.Context, name string) (*vectorindex.IndexStats, error) {
	if p.dataPlaneURL == "" {
		return nil, fmt.Errorf("pinecone: %w", vectorindex.ErrIndexNotFound)
	}
	var resp describeResponse
	if _, err := p.doJSON(ctx, http.MethodPost, p.dataPlaneURL+"/describe_index_stats", map[string]string{}, &resp); err != nil {
		return nil, fmt.Errorf("pinecone: describe: %w", err)
	}

	stats := &vectorindex.IndexStats{
		Dimension:        resp.Dimension,
		TotalVectorCount: resp.TotalVectorCount,
		IndexFullness:    resp.IndexFullness,
		Namespaces:       make(map[string]vectorindex.NamespaceStats, len(resp.Namespaces)),
	}
	for ns, counts := range resp.Namespaces {
		stats.Namespaces[ns] = vectorindex.NamespaceStats{
			RecordCount: counts.RecordCount,
			VectorCount: counts.VectorCount,
		}
	}
	return stats, nil
}

// Ensure Provider implements vectorindex.Provider at compile time.
var _ vectorindex.Provider = (*Provider)(nil)
