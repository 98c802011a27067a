package config_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kotodama-ai/transcript-rag/internal/config"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/llm"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/tts"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info

providers:
  llm:
    name: openai
    api_key: sk-test
    model: gpt-4o
  tts:
    name: elevenlabs
    api_key: el-test
  embeddings:
    name: huggingface
    model: multilingual-e5-large
  vector_db:
    name: pinecone
    api_key: pc-test

pipeline:
  artifact_dir: /tmp/artifacts
  embed_batch_size: 50
  embed_fan_out: 8

index:
  name: transcripts
  namespace: honda-ken
  top_k: 5

admission:
  mode: production
  api_keys:
    - secret-1
  allowed_origins:
    - https://example.com
  rate_limit_window_seconds: 60
  answer_max_per_window: 10
  health_max_per_window: 30
`

// ── YAML loading ──────────────────────────────────────────────────────────────

func TestLoadFromReader_Valid(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("server.listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server.log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Providers.LLM.Name != "openai" {
		t.Errorf("providers.llm.name: got %q, want %q", cfg.Providers.LLM.Name, "openai")
	}
	if cfg.Providers.Embeddings.Model != "multilingual-e5-large" {
		t.Errorf("providers.embeddings.model: got %q", cfg.Providers.Embeddings.Model)
	}
	if cfg.Pipeline.EmbedBatchSize != 50 {
		t.Errorf("pipeline.embed_batch_size: got %d, want 50", cfg.Pipeline.EmbedBatchSize)
	}
	if cfg.Index.Namespace != "honda-ken" {
		t.Errorf("index.namespace: got %q", cfg.Index.Namespace)
	}
	if len(cfg.Admission.APIKeys) != 1 || cfg.Admission.APIKeys[0] != "secret-1" {
		t.Errorf("admission.api_keys: got %v", cfg.Admission.APIKeys)
	}
}

func TestLoadFromReader_EmptyIsValid(t *testing.T) {
	// An empty config should succeed (no required top-level fields).
	_, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("unexpected error for empty config: %v", err)
	}
}

// ── Validation ────────────────────────────────────────────────────────────────

func TestValidate_InvalidLogLevel(t *testing.T) {
	yaml := `
server:
  log_level: verbose
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log_level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_InvalidAdmissionMode(t *testing.T) {
	yaml := `
admission:
  mode: yolo
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid admission.mode, got nil")
	}
	if !strings.Contains(err.Error(), "admission.mode") {
		t.Errorf("error should mention admission.mode, got: %v", err)
	}
}

func TestValidate_NegativeTopK(t *testing.T) {
	yaml := `
index:
  top_k: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative top_k, got nil")
	}
}

func TestValidate_NegativeEmbedBatchSize(t *testing.T) {
	yaml := `
pipeline:
  embed_batch_size: -5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative embed_batch_size, got nil")
	}
}

func TestValidate_NegativeRateLimitWindow(t *testing.T) {
	yaml := `
admission:
  rate_limit_window_seconds: -1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative rate_limit_window_seconds, got nil")
	}
}

// ── Registry ─────────────────────────────────────────────────────────────────

func TestRegistry_UnknownLLM(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateLLM(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

func TestRegistry_UnknownTTS(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateTTS(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

func TestRegistry_UnknownEmbeddings(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateEmbeddings(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

func TestRegistry_UnknownVectorDB(t *testing.T) {
	reg := config.NewRegistry()
	_, err := reg.CreateVectorDB(config.ProviderEntry{Name: "nonexistent"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Errorf("expected ErrProviderNotRegistered, got: %v", err)
	}
}

// ── Registry with registered factories ───────────────────────────────────────

func TestRegistry_RegisteredLLM(t *testing.T) {
	reg := config.NewRegistry()
	want := &stubLLM{}
	reg.RegisterLLM("stub", func(e config.ProviderEntry) (llm.Provider, error) {
		return want, nil
	})
	got, err := reg.CreateLLM(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned provider is not the expected instance")
	}
}

func TestRegistry_RegisteredTTS(t *testing.T) {
	reg := config.NewRegistry()
	want := &stubTTS{}
	reg.RegisterTTS("stub", func(e config.ProviderEntry) (tts.Provider, error) {
		return want, nil
	})
	got, err := reg.CreateTTS(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned provider is not the expected instance")
	}
}

func TestRegistry_RegisteredEmbeddings(t *testing.T) {
	reg := config.NewRegistry()
	want := &stubEmbeddings{}
	reg.RegisterEmbeddings("stub", func(e config.ProviderEntry) (embeddings.Provider, error) {
		return want, nil
	})
	got, err := reg.CreateEmbeddings(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned provider is not the expected instance")
	}
}

func TestRegistry_RegisteredVectorDB(t *testing.T) {
	reg := config.NewRegistry()
	want := &stubVectorDB{}
	reg.RegisterVectorDB("stub", func(e config.ProviderEntry) (vectorindex.Provider, error) {
		return want, nil
	})
	got, err := reg.CreateVectorDB(config.ProviderEntry{Name: "stub"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("returned provider is not the expected instance")
	}
}

func TestRegistry_FactoryError(t *testing.T) {
	reg := config.NewRegistry()
	wantErr := errors.New("factory boom")
	reg.RegisterLLM("broken", func(e config.ProviderEntry) (llm.Provider, error) {
		return nil, wantErr
	})
	_, err := reg.CreateLLM(config.ProviderEntry{Name: "broken"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected factory error %v, got %v", wantErr, err)
	}
}

// ── Stub implementations (satisfy interfaces for the compiler) ────────────────

type stubLLM struct{}

func (s *stubLLM) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return &llm.CompletionResponse{}, nil
}
func (s *stubLLM) ModelID() string { return "stub" }

type stubTTS struct{}

func (s *stubTTS) Synthesize(_ context.Context, _ string, _ string) ([]byte, error) { return nil, nil }

type stubEmbeddings struct{}

func (s *stubEmbeddings) Embed(_ context.Context, _ string) ([]float32, error) { return nil, nil }
func (s *stubEmbeddings) EmbedBatch(_ context.Context, _ []string) ([][]float32, error) {
	return nil, nil
}
func (s *stubEmbeddings) Dimensions() int { return 0 }
func (s *stubEmbeddings) ModelID() string { return "stub" }

type stubVectorDB struct{}

func (s *stubVectorDB) EnsureIndex(_ context.Context, _ string, _ int) error { return nil }
func (s *stubVectorDB) Upsert(_ context.Context, _ []types.Vector, _ vectorindex.UpsertOptions) error {
	return nil
}
func (s *stubVectorDB) Query(_ context.Context, _ []float32, _ vectorindex.QueryOptions) ([]types.Match, error) {
	return nil, nil
}
func (s *stubVectorDB) DeleteAll(_ context.Context, _ string) error             { return nil }
func (s *stubVectorDB) DeleteMany(_ context.Context, _ []string, _ string) error { return nil }
func (s *stubVectorDB) Describe(_ context.Context, _ string) (*vectorindex.IndexStats, error) {
	return nil, nil
}
