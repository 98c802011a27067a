// Package mock provides a test double for the vectorindex.Provider
// interface.
package mock

import (
	"context"
	"sync"

	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

// UpsertCall records a single invocation of Upsert.
type UpsertCall struct {
	Vectors []types.Vector
	Opts    vectorindex.UpsertOptions
}

// QueryCall records a single invocation of Query.
type QueryCall struct {
	Vector []float32
	Opts   vectorindex.QueryOptions
}

// Provider is a mock implementation of vectorindex.Provider.
type Provider struct {
	mu sync.Mutex

	EnsureIndexErr error

	UpsertErr error

	QueryResult []types.Match
	QueryErr    error

	DeleteAllErr  error
	DeleteManyErr error

	DescribeResult *vectorindex.IndexStats
	DescribeErr    error

	UpsertCalls []UpsertCall
	QueryCalls  []QueryCall
}

// EnsureIndex records nothing and returns EnsureIndexErr.
func (p *Provider) EnsureIndex(ctx context.Context, name string, dim int) error {
	return p.EnsureIndexErr
}

// Upsert records the call and returns UpsertErr.
func (p *Provider) Upsert(ctx context.Context, vectors []types.Vector, opts vectorindex.UpsertOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.UpsertCalls = append(p.UpsertCalls, UpsertCall{Vectors: vectors, Opts: opts})
	return p.UpsertErr
}

// Query records the call and returns QueryResult, QueryErr.
func (p *Provider) Query(ctx context.Context, vector []float32, opts vectorindex.QueryOptions) ([]types.Match, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.QueryCalls = append(p.QueryCalls, QueryCall{Vector: vector, Opts: opts})
	return p.QueryResult, p.QueryErr
}

// DeleteAll returns DeleteAllErr.
func (p *Provider) DeleteAll(ctx context.Context, namespace string) error {
	return p.DeleteAllErr
}

// DeleteMany returns DeleteManyErr.
func (p *Provider) DeleteMany(ctx context.Context, ids []string, namespace string) error {
	return p.DeleteManyErr
}

// Describe returns DescribeResult, DescribeErr.
func (p *Provider) Describe(ctx context.Context, name string) (*vectorindex.IndexStats, error) {
	return p.DescribeResult, p.DescribeErr
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.UpsertCalls = nil
	p.QueryCalls = nil
}

// Ensure Provider implements vectorindex.Provider at compile time.
var _ vectorindex.Provider = (*Provider)(nil)
