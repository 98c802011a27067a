// Package ingestcli provides the façade functions behind the ragctl
// command-line tool: one-shot transcript ingestion, namespace maintenance,
// and index introspection, each a thin wrapper around [pipeline.Orchestrator]
// and the vector-index provider.
package ingestcli

import (
	"context"
	"fmt"

	"github.com/kotodama-ai/transcript-rag/internal/ingest/pipeline"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

// Deps bundles the providers every façade function needs.
type Deps struct {
	Embedder embeddings.Provider
	Index    vectorindex.Provider
}

// knownEmbeddingModels lists the model names each embedding provider
// supports, for the "models" subcommand.
var knownEmbeddingModels = map[string][]string{
	"openai": {
		"text-embedding-3-small",
		"text-embedding-3-large",
		"text-embedding-ada-002",
	},
	"huggingface": {
		"multilingual-e5-large",
		"intfloat/multilingual-e5-base",
		"sentence-transformers/all-MiniLM-L6-v2",
	},
}

// ProcessTranscript runs the full seven-stage pipeline against the subtitle
// file at path, uploading the resulting embeddings to the default namespace.
func ProcessTranscript(ctx context.Context, d Deps, path string, opts ...pipeline.Option) (*pipeline.Result, error) {
	orch := pipeline.New(d.Embedder, d.Index, opts...)
	res, err := orch.Run(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("ingestcli: process %q: %w", path, err)
	}
	return res, nil
}

// ProcessWithNamespace is [ProcessTranscript] with the vector-index
// namespace pinned to namespace, overriding any namespace set via opts.
func ProcessWithNamespace(ctx context.Context, d Deps, path, namespace string, opts ...pipeline.Option) (*pipeline.Result, error) {
	opts = append(opts, pipeline.WithNamespace(namespace))
	return ProcessTranscript(ctx, d, path, opts...)
}

// ReuploadEmbeddings re-uploads a previously computed set of embedded chunks
// without re-running the parse/clean/extract/chunk/embed stages. Useful
// after a vector-index migration or an accidental DeleteAll.
func ReuploadEmbeddings(ctx context.Context, d Deps, embedded []types.EmbeddedChunk, transcriptName string, opts ...pipeline.Option) (int, error) {
	orch := pipeline.New(d.Embedder, d.Index, opts...)
	n, err := orch.UploadEmbeddings(ctx, embedded, transcriptName)
	if err != nil {
		return 0, fmt.Errorf("ingestcli: reupload %q: %w", transcriptName, err)
	}
	return n, nil
}

// CleanupNamespace deletes every vector in namespace. Irreversible.
func CleanupNamespace(ctx context.Context, d Deps, namespace string) error {
	if err := d.Index.DeleteAll(ctx, namespace); err != nil {
		return fmt.Errorf("ingestcli: cleanup namespace %q: %w", namespace, err)
	}
	return nil
}

// DescribeIndex returns vector count, dimension, and per-namespace stats for
// the named index.
func DescribeIndex(ctx context.Context, d Deps, indexName string) (*vectorindex.IndexStats, error) {
	stats, err := d.Index.Describe(ctx, indexName)
	if err != nil {
		return nil, fmt.Errorf("ingestcli: describe index %q: %w", indexName, err)
	}
	return stats, nil
}

// ListEmbeddingModels returns the known model names for the given embedding
// provider, or nil if the provider name is not recognised.
func ListEmbeddingModels(providerName string) []string {
	models := knownEmbeddingModels[providerName]
	if models == nil {
		return nil
	}
	out := make([]string, len(models))
	copy(out, models)
	return out
}
