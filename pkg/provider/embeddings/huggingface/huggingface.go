// Package huggingface provides an embeddings provider backed by the
// HuggingFace Inference API's feature-extraction endpoint.
//
// HuggingFace publishes no official Go SDK, so this provider speaks the REST
// API directly over net/http, following the same request/response shape as
// any other hosted feature-extraction model (intfloat/multilingual-e5-large,
// sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2,
// ibm-granite/granite-embedding-278m-multilingual, ...).
//
// Example usage:
//
//	p, err := huggingface.New("hf_xxx", "intfloat/multilingual-e5-large")
//	vec, err := p.Embed(ctx, "query: こんにちは")
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings"
)

// DefaultBaseURL is the HuggingFace Inference API base URL.
const DefaultBaseURL = "https://api-inference.huggingface.co/pipeline/feature-extraction"

// Ensure Provider implements the embeddings.Provider interface at compile time.
var _ embeddings.Provider = (*Provider)(nil)

// Provider implements embeddings.Provider using the HuggingFace Inference
// API. Provider is safe for concurrent use.
type Provider struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
	dimensions int
}

// config holds optional configuration collected from functional options.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Provider.
type Option func(*config)

// WithBaseURL overrides the default HuggingFace Inference API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new HuggingFace embeddings Provider. apiKey and model must
// not be empty; model selects both the hosted model and, via [modelDimensions],
// the fixed vector length this provider reports.
func New(apiKey, model string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("huggingface embeddings: apiKey must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("huggingface embeddings: model must not be empty")
	}

	cfg := &config{baseURL: DefaultBaseURL}
	for _, o := range opts {
		o(cfg)
	}

	httpClient := &http.Client{}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	return &Provider{
		baseURL:    strings.TrimRight(cfg.baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
		dimensions: modelDimensions(model),
	}, nil
}

type embedRequest struct {
	Inputs  []string               `json:"inputs"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// Embed implements embeddings.Provider. The caller applies any
// model-specific prefix (e.g. E5's "query: ") before calling Embed.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.callEmbed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("huggingface embeddings: embed: %w", err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("huggingface embeddings: embed: empty response")
	}
	return vecs[0], nil
}

// EmbedBatch implements embeddings.Provider. HuggingFace's feature-extraction
// endpoint accepts a list of inputs natively, so this issues a single request.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := p.callEmbed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("huggingface embeddings: embed batch: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("huggingface embeddings: embed batch: expected %d embeddings, got %d", len(texts), len(vecs))
	}
	return vecs, nil
}

// Dimensions implements embeddings.Provider.
func (p *Provider) Dimensions() int {
	return p.dimensions
}

// ModelID implements embeddings.Provider.
func (p *Provider) ModelID() string {
	return p.model
}

func (p *Provider) callEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{
		Inputs:  texts,
		Options: map[string]interface{}{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/"+p.model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	// The feature-extraction pipeline returns one vector per input when the
	// model pools to a single sentence embedding (as every model in our
	// table does): a JSON array of arrays of float32.
	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return vectors, nil
}

// modelDimensions returns the fixed output dimension for the model table
// named in the embedding component's design: multilingual-e5-{large,base,
// small}, paraphrase-multilingual, and ibm-granite multilingual.
func modelDimensions(model string) int {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "multilingual-e5-large"):
		return 1024
	case strings.Contains(lower, "multilingual-e5-base"):
		return 768
	case strings.Contains(lower, "multilingual-e5-small"):
		return 384
	case strings.Contains(lower, "paraphrase-multilingual"):
		return 384
	case strings.Contains(lower, "granite-embedding") || strings.Contains(lower, "ibm-granite"):
		return 768
	default:
		return 768
	}
}

// RequiresQueryPrefix reports whether model expects the E5-style "query: "
// prefix prepended to text before embedding.
func RequiresQueryPrefix(model string) bool {
	return strings.Contains(strings.ToLower(model), "e5-")
}
