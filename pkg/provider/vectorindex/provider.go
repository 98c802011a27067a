// Package vectorindex defines the Provider interface for remote vector
// index backends used by the ingestion pipeline's upload step and the
// answering core's retrieval step.
package vectorindex

import (
	"context"
	"errors"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

// ErrProviderNotConfigured is returned by a provider constructor when
// required credentials are missing.
var ErrProviderNotConfigured = errors.New("vectorindex: provider not configured")

// ErrIndexNotFound is returned when an operation targets an index that does
// not exist and EnsureIndex was never called.
var ErrIndexNotFound = errors.New("vectorindex: index not found")

// UpsertOptions configures a batched Upsert call.
type UpsertOptions struct {
	Namespace string
	BatchSize int // defaults to 100 when zero
}

// QueryOptions configures a Query call.
type QueryOptions struct {
	Namespace string
	TopK      int // defaults to 5 when zero
	Filter    map[string]string
}

// NamespaceStats reports the vector count for one namespace, as returned by
// Describe. Providers report the count under whichever of RecordCount or
// VectorCount their wire format uses; callers should read RecordCount when
// non-zero and fall back to VectorCount otherwise.
type NamespaceStats struct {
	RecordCount int
	VectorCount int
}

// IndexStats is the normalised response of Describe.
type IndexStats struct {
	Dimension        int
	TotalVectorCount int
	Namespaces       map[string]NamespaceStats
	IndexFullness    float64
}

// Provider is the abstraction over any remote vector index backend.
type Provider interface {
	// EnsureIndex creates the named index with the given dimension if it
	// does not already exist. Implementations that require no explicit
	// index lifecycle (e.g. a namespace-only KV-backed index) may treat
	// this as a no-op.
	EnsureIndex(ctx context.Context, name string, dim int) error

	// Upsert writes vectors to the index in batches, pausing between
	// batches. Returns a *types.BatchUploadError identifying the first
	// failing batch on failure.
	Upsert(ctx context.Context, vectors []types.Vector, opts UpsertOptions) error

	// Query returns the topK nearest matches to vector, ordered by
	// decreasing score.
	Query(ctx context.Context, vector []float32, opts QueryOptions) ([]types.Match, error)

	// DeleteAll removes every vector in namespace.
	DeleteAll(ctx context.Context, namespace string) error

	// DeleteMany removes the vectors identified by ids from namespace.
	DeleteMany(ctx context.Context, ids []string, namespace string) error

	// Describe returns index-level and namespace-level statistics.
	Describe(ctx context.Context, name string) (*IndexStats, error)
}
