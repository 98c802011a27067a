// Package pipeline runs the seven ingestion stages (subtitle parsing through
// vector-index upload) in sequence, reporting progress and optionally
// persisting each stage's output as a numbered JSON artefact.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/kotodama-ai/transcript-rag/internal/ingest/chunk"
	"github.com/kotodama-ai/transcript-rag/internal/ingest/clean"
	"github.com/kotodama-ai/transcript-rag/internal/ingest/knowledge"
	"github.com/kotodama-ai/transcript-rag/internal/ingest/reconstruct"
	"github.com/kotodama-ai/transcript-rag/internal/ingest/subtitle"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const (
	totalStages        = 7
	defaultEmbedBatch  = 50
	defaultEmbedFanOut = 8
	defaultUpsertBatch = 100
)

var stageNames = [totalStages]string{
	"parse", "reconstruct", "clean", "extractKnowledge", "chunk", "embed", "upload",
}

// ProgressEvent reports the completion of one stage.
type ProgressEvent struct {
	StageIndex  int // 1-based
	TotalStages int
	StageName   string
	Percentage  float64
	Elapsed     time.Duration
}

// ProgressFunc receives a ProgressEvent after each stage completes.
type ProgressFunc func(ProgressEvent)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithArtifactDir enables writing numbered intermediate JSON artefacts
// (01-segments.json ... 06-embeddings.json) to dir. Disabled by default.
func WithArtifactDir(dir string) Option {
	return func(o *Orchestrator) { o.artifactDir = dir }
}

// WithProgress registers a callback invoked after every stage.
func WithProgress(fn ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = fn }
}

// WithNamespace sets the vector-index namespace used for upload. Defaults to
// the empty (default) namespace.
func WithNamespace(ns string) Option {
	return func(o *Orchestrator) { o.namespace = ns }
}

// WithIndexName sets the vector-index name passed to EnsureIndex/Describe.
// Defaults to "transcripts".
func WithIndexName(name string) Option {
	return func(o *Orchestrator) { o.indexName = name }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// Result carries every intermediate stage output, so a failure partway
// through still leaves prior stages' results inspectable by the caller.
type Result struct {
	Segments        []types.Segment
	Paragraphs      []types.Paragraph
	CleanedParas    []types.CleanedParagraph
	KnowledgeObjs   []types.KnowledgeObject
	Chunks          []types.Chunk
	EmbeddedChunks  []types.EmbeddedChunk
	UploadedVectors int
}

// Orchestrator runs the seven-stage ingestion pipeline end to end.
type Orchestrator struct {
	parser        *subtitle.Parser
	reconstructor *reconstruct.Reconstructor
	cleaner       *clean.Cleaner
	extractor     *knowledge.Extractor
	chunker       *chunk.Chunker
	embedder      embeddings.Provider
	index         vectorindex.Provider

	namespace   string
	indexName   string
	artifactDir string
	progress    ProgressFunc
	logger      *slog.Logger
}

// New builds an Orchestrator. embedder and index are required; every other
// stage uses the package defaults unless overridden via Option.
func New(embedder embeddings.Provider, index vectorindex.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		parser:        subtitle.New(nil),
		reconstructor: reconstruct.New(),
		cleaner:       clean.New(),
		extractor:     knowledge.New(embedder),
		chunker:       chunk.New(),
		embedder:      embedder,
		index:         index,
		indexName:     "transcripts",
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes all seven stages against the subtitle file at path. The
// transcript name recorded in upload metadata is path's basename without its
// extension.
func (o *Orchestrator) Run(ctx context.Context, path string) (*Result, error) {
	transcriptName := transcriptNameFromPath(path)
	start := time.Now()
	res := &Result{}

	segments, err := o.runStage(ctx, start, 1, func() (any, error) {
		return o.parser.ParseFile(path)
	})
	if err != nil {
		return res, err
	}
	res.Segments = segments.([]types.Segment)
	if err := o.writeArtifact(1, "segments", res.Segments); err != nil {
		return res, err
	}

	paragraphs, err := o.runStage(ctx, start, 2, func() (any, error) {
		return o.reconstructor.Reconstruct(res.Segments), nil
	})
	if err != nil {
		return res, err
	}
	res.Paragraphs = paragraphs.([]types.Paragraph)
	if err := o.writeArtifact(2, "paragraphs", res.Paragraphs); err != nil {
		return res, err
	}

	cleaned, err := o.runStage(ctx, start, 3, func() (any, error) {
		out := make([]types.CleanedParagraph, len(res.Paragraphs))
		for i, p := range res.Paragraphs {
			out[i] = o.cleaner.Clean(p)
		}
		return out, nil
	})
	if err != nil {
		return res, err
	}
	res.CleanedParas = cleaned.([]types.CleanedParagraph)
	if err := o.writeArtifact(3, "cleaned", res.CleanedParas); err != nil {
		return res, err
	}

	knowledgeObjs, err := o.runStage(ctx, start, 4, func() (any, error) {
		return o.extractor.Extract(ctx, res.CleanedParas)
	})
	if err != nil {
		return res, err
	}
	res.KnowledgeObjs = knowledgeObjs.([]types.KnowledgeObject)
	if err := o.writeArtifact(4, "knowledge", res.KnowledgeObjs); err != nil {
		return res, err
	}

	chunks, err := o.runStage(ctx, start, 5, func() (any, error) {
		return o.chunker.Chunk(res.KnowledgeObjs)
	})
	if err != nil {
		return res, err
	}
	res.Chunks = chunks.([]types.Chunk)
	if err := o.writeArtifact(5, "chunks", res.Chunks); err != nil {
		return res, err
	}

	embedded, err := o.runStage(ctx, start, 6, func() (any, error) {
		return o.embedChunks(ctx, res.Chunks)
	})
	if err != nil {
		return res, err
	}
	res.EmbeddedChunks = embedded.([]types.EmbeddedChunk)
	if err := o.writeArtifact(6, "embeddings", res.EmbeddedChunks); err != nil {
		return res, err
	}

	uploaded, err := o.runStage(ctx, start, 7, func() (any, error) {
		return o.UploadEmbeddings(ctx, res.EmbeddedChunks, transcriptName)
	})
	if err != nil {
		return res, err
	}
	res.UploadedVectors = uploaded.(int)

	return res, nil
}

// runStage executes fn, reports progress on success, and wraps any error
// into a *types.PipelineError identifying the failing stage.
func (o *Orchestrator) runStage(ctx context.Context, start time.Time, stage int, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, &types.PipelineError{Stage: stage, StageName: stageNames[stage-1], Message: err.Error()}
	}
	out, err := fn()
	if err != nil {
		o.logger.Error("pipeline stage failed", "stage", stage, "name", stageNames[stage-1], "error", err)
		return nil, &types.PipelineError{Stage: stage, StageName: stageNames[stage-1], Message: err.Error()}
	}
	o.logger.Debug("pipeline stage complete", "stage", stage, "name", stageNames[stage-1], "elapsed", time.Since(start))
	if o.progress != nil {
		o.progress(ProgressEvent{
			StageIndex:  stage,
			TotalStages: totalStages,
			StageName:   stageNames[stage-1],
			Percentage:  float64(stage) / float64(totalStages) * 100,
			Elapsed:     time.Since(start),
		})
	}
	return out, nil
}

// embedChunks computes an embedding for every chunk's content, fanning out
// across defaultEmbedFanOut concurrent batch calls bounded by a weighted
// semaphore.
func (o *Orchestrator) embedChunks(ctx context.Context, chunks []types.Chunk) ([]types.EmbeddedChunk, error) {
	out := make([]types.EmbeddedChunk, len(chunks))
	sem := semaphore.NewWeighted(defaultEmbedFanOut)
	g, gctx := errgroup.WithContext(ctx)

	for start := 0; start < len(chunks); start += defaultEmbedBatch {
		end := start + defaultEmbedBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		offset := start

		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Content
			}
			vectors, err := o.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed batch at offset %d: %w", offset, err)
			}
			for i, v := range vectors {
				out[offset+i] = types.EmbeddedChunk{
					Chunk:     batch[i],
					Embedding: v,
					EmbeddingMetadata: types.EmbeddingMetadata{
						Provider:   o.providerLabel(),
						Model:      o.embedder.ModelID(),
						Dimensions: o.embedder.Dimensions(),
						Timestamp:  time.Now(),
					},
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadEmbeddings ensures the configured index exists and upserts every
// embedded chunk under the configured namespace. Exposed separately so the
// re-upload entry point can run stage 7 alone against a saved
// 06-embeddings.json artefact.
func (o *Orchestrator) UploadEmbeddings(ctx context.Context, embedded []types.EmbeddedChunk, transcriptName string) (int, error) {
	if len(embedded) == 0 {
		return 0, nil
	}
	dim := embedded[0].EmbeddingMetadata.Dimensions
	if err := o.index.EnsureIndex(ctx, o.indexName, dim); err != nil {
		return 0, fmt.Errorf("ensure index: %w", err)
	}

	vectors := make([]types.Vector, len(embedded))
	for i, ec := range embedded {
		vectors[i] = types.Vector{
			ID:       ec.ChunkID,
			Values:   ec.Embedding,
			Metadata: flattenMetadata(ec.Content, ec.Metadata, transcriptName),
		}
	}

	if err := o.index.Upsert(ctx, vectors, vectorindex.UpsertOptions{
		Namespace: o.namespace,
		BatchSize: defaultUpsertBatch,
	}); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(vectors), nil
}

func flattenMetadata(content string, m types.ChunkMetadata, transcriptName string) map[string]string {
	out := map[string]string{
		"content":        content,
		"topic":          m.Topic,
		"knowledgeId":    m.KnowledgeID,
		"importance":     string(m.Importance),
		"category":       m.Category,
		"language":       m.Language,
		"people":         joinStrings(m.People),
		"concepts":       joinStrings(m.Concepts),
		"orgs":           joinStrings(m.Organizations),
		"keywords":       joinStrings(m.Keywords),
		"startTime":      m.Timestamp.Start,
		"endTime":        m.Timestamp.End,
		"transcriptFile": transcriptName,
	}
	if m.ContextBefore != nil {
		out["contextBefore"] = *m.ContextBefore
	}
	if m.ContextAfter != nil {
		out["contextAfter"] = *m.ContextAfter
	}
	if m.PartIndex != nil {
		out["partIndex"] = strconv.Itoa(*m.PartIndex)
		out["totalParts"] = strconv.Itoa(*m.TotalParts)
	}
	return out
}

func joinStrings(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func (o *Orchestrator) writeArtifact(stage int, label string, v any) error {
	if o.artifactDir == "" {
		return nil
	}
	if err := os.MkdirAll(o.artifactDir, 0o755); err != nil {
		return fmt.Errorf("artifact dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s artefact: %w", label, err)
	}
	name := fmt.Sprintf("%02d-%s.json", stage, label)
	if err := os.WriteFile(filepath.Join(o.artifactDir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s artefact: %w", label, err)
	}
	return nil
}

// providerLabel derives a short provider name from the embedder's concrete
// type (e.g. "*huggingface.Provider" -> "huggingface"), for recording in
// embedding metadata without requiring providers to implement a Name method.
func (o *Orchestrator) providerLabel() string {
	full := fmt.Sprintf("%T", o.embedder)
	full = strings.TrimPrefix(full, "*")
	if dot := strings.Index(full, "."); dot >= 0 {
		full = full[:dot]
	}
	return full
}

func transcriptNameFromPath(path string) string {
	base := filepath.Base(path)
	return base[:len(base)-len(filepath.Ext(base))]
}
