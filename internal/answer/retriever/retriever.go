// Package retriever embeds a user query and retrieves the top matching
// chunks from the vector index, normalising them into typed sources.
package retriever

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const defaultTopK = 5

// Option configures a Retriever.
type Option func(*Retriever)

// WithTopK overrides the default 5-result retrieval size.
func WithTopK(n int) Option {
	return func(r *Retriever) { r.topK = n }
}

// WithNamespace scopes retrieval to a single vector-index namespace.
// Defaults to the empty (default) namespace.
func WithNamespace(ns string) Option {
	return func(r *Retriever) { r.namespace = ns }
}

// Retriever turns a query string into ranked, normalised Sources.
type Retriever struct {
	embedder  embeddings.Provider
	index     vectorindex.Provider
	namespace string
	topK      int
}

// New builds a Retriever against the given embedding and vector-index
// providers.
func New(embedder embeddings.Provider, index vectorindex.Provider, opts ...Option) *Retriever {
	r := &Retriever{embedder: embedder, index: index, topK: defaultTopK}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Retrieve embeds query, queries the vector index for the configured
// namespace and topK, and returns normalised Sources ordered by decreasing
// relevance. No thresholding is applied; callers decide whether matches are
// relevant enough to use.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]types.Source, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retriever: embed query: %w", err)
	}

	matches, err := r.index.Query(ctx, vector, vectorindex.QueryOptions{
		Namespace: r.namespace,
		TopK:      r.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("retriever: query index: %w", err)
	}

	sources := make([]types.Source, len(matches))
	for i, m := range matches {
		sources[i] = normaliseMatch(m)
	}
	return sources, nil
}

func normaliseMatch(m types.Match) types.Source {
	return types.Source{
		Text:           m.Metadata["content"],
		Timestamp:      m.Metadata["startTime"],
		Topic:          m.Metadata["topic"],
		RelevanceScore: roundScore(m.Score),
	}
}

// roundScore rounds a similarity score to four decimal places for stable
// JSON output without implying false precision.
func roundScore(score float64) float64 {
	scaled := strconv.FormatFloat(score, 'f', 4, 64)
	v, err := strconv.ParseFloat(scaled, 64)
	if err != nil {
		return score
	}
	return v
}
