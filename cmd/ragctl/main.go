// Command ragctl is the operator CLI for transcript ingestion and vector
// index maintenance: run the ingestion pipeline against a subtitle file,
// re-upload a previously computed set of embeddings, wipe a namespace, or
// inspect index stats.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kotodama-ai/transcript-rag/internal/config"
	"github.com/kotodama-ai/transcript-rag/internal/ingest/pipeline"
	"github.com/kotodama-ai/transcript-rag/internal/ingestcli"
	"github.com/kotodama-ai/transcript-rag/internal/providerwiring"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "ingest":
		return runIngest(rest)
	case "reupload":
		return runReupload(rest)
	case "cleanup":
		return runCleanup(rest)
	case "describe":
		return runDescribe(rest)
	case "models":
		return runModels(rest)
	case "-h", "--help", "help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "ragctl: unknown command %q\n\n", cmd)
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `ragctl — transcript ingestion and index maintenance

Usage:
  ragctl ingest -config <path> [-namespace <ns>] <transcript.srt>
  ragctl reupload -config <path> <embeddings.json>
  ragctl cleanup -config <path> -namespace <ns>
  ragctl describe -config <path> [-index <name>]
  ragctl models -provider <name>`)
}

// loadDeps loads cfg from configPath, wires the provider registry, and
// returns the embeddings/vector-index pair ragctl's façade functions need.
// Both providers must be configured — ragctl has no standalone embeddings-
// or vector-index-only mode.
func loadDeps(configPath string) (ingestcli.Deps, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return ingestcli.Deps{}, nil, fmt.Errorf("load config %q: %w", configPath, err)
	}

	reg := config.NewRegistry()
	providerwiring.RegisterBuiltins(reg)

	providers, err := providerwiring.Build(cfg, reg)
	if err != nil {
		return ingestcli.Deps{}, nil, fmt.Errorf("build providers: %w", err)
	}
	if providers.Embeddings == nil {
		return ingestcli.Deps{}, nil, errors.New("no embeddings provider configured")
	}
	if providers.VectorDB == nil {
		return ingestcli.Deps{}, nil, errors.New("no vector_db provider configured")
	}

	return ingestcli.Deps{Embedder: providers.Embeddings, Index: providers.VectorDB}, cfg, nil
}

func runIngest(args []string) int {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	namespace := fs.String("namespace", "", "vector-index namespace to upload into (defaults to config.yaml's index.namespace)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "ragctl ingest: exactly one transcript path is required")
		return 1
	}
	path := fs.Arg(0)

	d, cfg, err := loadDeps(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}

	var opts []pipeline.Option
	if cfg.Index.Name != "" {
		opts = append(opts, pipeline.WithIndexName(cfg.Index.Name))
	}
	if cfg.Pipeline.ArtifactDir != "" {
		opts = append(opts, pipeline.WithArtifactDir(cfg.Pipeline.ArtifactDir))
	}
	ns := *namespace
	if ns == "" {
		ns = cfg.Index.Namespace
	}

	ctx := context.Background()
	var res *pipeline.Result
	if ns != "" {
		res, err = ingestcli.ProcessWithNamespace(ctx, d, path, ns, opts...)
	} else {
		res, err = ingestcli.ProcessTranscript(ctx, d, path, opts...)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}

	slog.Info("ingestion complete",
		"transcript", path,
		"segments", len(res.Segments),
		"chunks", len(res.Chunks),
		"uploaded_vectors", res.UploadedVectors,
	)
	return 0
}

func runReupload(args []string) int {
	fs := flag.NewFlagSet("reupload", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	name := fs.String("name", "reupload", "transcript name recorded on each uploaded vector")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "ragctl reupload: exactly one embeddings JSON path is required")
		return 1
	}

	embedded, err := readEmbeddedChunks(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}

	d, cfg, err := loadDeps(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}

	var opts []pipeline.Option
	if cfg.Index.Name != "" {
		opts = append(opts, pipeline.WithIndexName(cfg.Index.Name))
	}
	if cfg.Index.Namespace != "" {
		opts = append(opts, pipeline.WithNamespace(cfg.Index.Namespace))
	}

	n, err := ingestcli.ReuploadEmbeddings(context.Background(), d, embedded, *name, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}
	slog.Info("reupload complete", "uploaded_vectors", n)
	return 0
}

func runCleanup(args []string) int {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	namespace := fs.String("namespace", "", "vector-index namespace to delete (required)")
	fs.Parse(args)

	if *namespace == "" {
		fmt.Fprintln(os.Stderr, "ragctl cleanup: -namespace is required")
		return 1
	}

	d, _, err := loadDeps(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}

	if err := ingestcli.CleanupNamespace(context.Background(), d, *namespace); err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}
	slog.Info("namespace deleted", "namespace", *namespace)
	return 0
}

func runDescribe(args []string) int {
	fs := flag.NewFlagSet("describe", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to the YAML configuration file")
	indexName := fs.String("index", "", "index name to describe (defaults to config.yaml's index.name)")
	fs.Parse(args)

	d, cfg, err := loadDeps(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}

	name := *indexName
	if name == "" {
		name = cfg.Index.Name
	}

	stats, err := ingestcli.DescribeIndex(context.Background(), d, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ragctl: %v\n", err)
		return 1
	}

	fmt.Printf("index:            %s\n", name)
	fmt.Printf("dimension:        %d\n", stats.Dimension)
	fmt.Printf("total vectors:    %d\n", stats.TotalVectorCount)
	for ns, s := range stats.Namespaces {
		fmt.Printf("  namespace %-20s records=%d vectors=%d\n", ns, s.RecordCount, s.VectorCount)
	}
	return 0
}

// readEmbeddedChunks decodes a JSON array of [types.EmbeddedChunk] from path,
// as produced by a prior ingestion run's artifact directory.
func readEmbeddedChunks(path string) ([]types.EmbeddedChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read embeddings file %q: %w", path, err)
	}
	var embedded []types.EmbeddedChunk
	if err := json.Unmarshal(data, &embedded); err != nil {
		return nil, fmt.Errorf("parse embeddings file %q: %w", path, err)
	}
	return embedded, nil
}

func runModels(args []string) int {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	provider := fs.String("provider", "", "embedding provider name (required)")
	fs.Parse(args)

	if *provider == "" {
		fmt.Fprintln(os.Stderr, "ragctl models: -provider is required")
		return 1
	}

	models := ingestcli.ListEmbeddingModels(*provider)
	if models == nil {
		fmt.Fprintf(os.Stderr, "ragctl: no known models for provider %q\n", *provider)
		return 1
	}
	for _, m := range models {
		fmt.Println(m)
	}
	return 0
}
