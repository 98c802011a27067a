package providerwiring_test

import (
	"errors"
	"testing"

	"github.com/kotodama-ai/transcript-rag/internal/config"
	"github.com/kotodama-ai/transcript-rag/internal/providerwiring"
)

func TestRegisterBuiltins_RegistersEveryKnownName(t *testing.T) {
	reg := config.NewRegistry()
	providerwiring.RegisterBuiltins(reg)

	cases := []struct {
		kind string
		name string
	}{
		{"llm", "openai"},
		{"llm", "openrouter"},
		{"tts", "elevenlabs"},
		{"embeddings", "openai"},
		{"embeddings", "huggingface"},
		{"vector_db", "pinecone"},
		{"vector_db", "upstash"},
	}

	for _, c := range cases {
		var err error
		switch c.kind {
		case "llm":
			_, err = reg.CreateLLM(config.ProviderEntry{Name: c.name, APIKey: "test-key"})
		case "tts":
			_, err = reg.CreateTTS(config.ProviderEntry{Name: c.name, APIKey: "test-key"})
		case "embeddings":
			_, err = reg.CreateEmbeddings(config.ProviderEntry{Name: c.name, APIKey: "test-key"})
		case "vector_db":
			_, err = reg.CreateVectorDB(config.ProviderEntry{Name: c.name, APIKey: "test-key", BaseURL: "https://example.invalid"})
		}
		if errors.Is(err, config.ErrProviderNotRegistered) {
			t.Errorf("%s/%s: factory not registered", c.kind, c.name)
		}
	}
}

func TestBuild_LeavesUnconfiguredKindsNil(t *testing.T) {
	reg := config.NewRegistry()
	providerwiring.RegisterBuiltins(reg)

	cfg := &config.Config{}
	cfg.Providers.Embeddings = config.ProviderEntry{Name: "openai", APIKey: "test-key"}

	ps, err := providerwiring.Build(cfg, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.Embeddings == nil {
		t.Error("expected embeddings provider to be built")
	}
	if ps.LLM != nil || ps.TTS != nil || ps.VectorDB != nil {
		t.Error("expected unconfigured provider kinds to remain nil")
	}
}

func TestBuild_UnregisteredProviderNameIsSkippedNotFatal(t *testing.T) {
	reg := config.NewRegistry()
	providerwiring.RegisterBuiltins(reg)

	cfg := &config.Config{}
	cfg.Providers.LLM = config.ProviderEntry{Name: "anthropic", APIKey: "test-key"}

	ps, err := providerwiring.Build(cfg, reg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.LLM != nil {
		t.Error("expected nil LLM provider for an unregistered name")
	}
}
