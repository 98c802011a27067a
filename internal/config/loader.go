package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm":        {"openai", "openrouter", "anthropic", "ollama", "gemini", "deepseek", "mistral", "groq"},
	"tts":        {"elevenlabs"},
	"embeddings": {"openai", "ollama", "huggingface"},
	"vector_db":  {"pinecone", "upstash", "qdrant", "weaviate"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)
	validateProviderName("vector_db", cfg.Providers.VectorDB.Name)

	if cfg.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured; /chat will not be able to generate responses")
	}
	if cfg.Providers.Embeddings.Name == "" {
		slog.Warn("no embeddings provider configured; ingestion and retrieval will not work")
	}
	if cfg.Providers.VectorDB.Name == "" {
		slog.Warn("no vector_db provider configured; ingestion and retrieval will not work")
	}

	// Index
	if cfg.Index.Name == "" {
		slog.Warn("index.name is empty; defaulting to \"transcripts\"")
	}
	if cfg.Index.TopK < 0 {
		errs = append(errs, fmt.Errorf("index.top_k %d must not be negative", cfg.Index.TopK))
	}

	// Admission
	if cfg.Admission.Mode != "" && cfg.Admission.Mode != "production" && cfg.Admission.Mode != "development" {
		errs = append(errs, fmt.Errorf("admission.mode %q is invalid; valid values: production, development", cfg.Admission.Mode))
	}
	if cfg.Admission.Mode == "production" && len(cfg.Admission.APIKeys) == 0 {
		slog.Warn("admission.mode is production but no api_keys are configured; all requests will be rejected")
	}
	if cfg.Admission.RateLimitWindowSeconds < 0 {
		errs = append(errs, fmt.Errorf("admission.rate_limit_window_seconds %d must not be negative", cfg.Admission.RateLimitWindowSeconds))
	}

	// Pipeline
	if cfg.Pipeline.EmbedBatchSize < 0 {
		errs = append(errs, fmt.Errorf("pipeline.embed_batch_size %d must not be negative", cfg.Pipeline.EmbedBatchSize))
	}
	if cfg.Pipeline.EmbedFanOut < 0 {
		errs = append(errs, fmt.Errorf("pipeline.embed_fan_out %d must not be negative", cfg.Pipeline.EmbedFanOut))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
