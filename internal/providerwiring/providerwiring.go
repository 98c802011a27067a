// Package providerwiring builds the runtime provider instances named in a
// [config.Config] and registers the factory functions that ship with this
// module. It is shared by every command that needs live providers —
// ragserver for serving /chat, ragctl for ingestion and maintenance — so the
// two binaries never drift on which provider names are supported.
package providerwiring

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kotodama-ai/transcript-rag/internal/config"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings"
	embeddingshuggingface "github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings/huggingface"
	embeddingsopenai "github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings/openai"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/llm"
	llmopenai "github.com/kotodama-ai/transcript-rag/pkg/provider/llm/openai"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/llm/openrouter"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/tts"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/tts/elevenlabs"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex/pinecone"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex/upstash"
)

// Providers holds the provider instances a command needs for the lifetime
// of the process. Any field may be nil if the corresponding provider kind
// was not configured.
type Providers struct {
	LLM        llm.Provider
	TTS        tts.Provider
	Embeddings embeddings.Provider
	VectorDB   vectorindex.Provider
}

// RegisterBuiltins wires the factory functions that ship with this module
// into reg.
func RegisterBuiltins(reg *config.Registry) {
	reg.RegisterLLM("openai", func(e config.ProviderEntry) (llm.Provider, error) {
		var opts []llmopenai.Option
		if e.BaseURL != "" {
			opts = append(opts, llmopenai.WithBaseURL(e.BaseURL))
		}
		return llmopenai.New(e.APIKey, e.Model, opts...)
	})
	reg.RegisterLLM("openrouter", func(e config.ProviderEntry) (llm.Provider, error) {
		var opts []openrouter.Option
		if e.BaseURL != "" {
			opts = append(opts, openrouter.WithBaseURL(e.BaseURL))
		}
		return openrouter.New(e.APIKey, e.Model, opts...)
	})

	reg.RegisterTTS("elevenlabs", func(e config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if e.Model != "" {
			opts = append(opts, elevenlabs.WithModel(e.Model))
		}
		return elevenlabs.New(e.APIKey, opts...)
	})

	reg.RegisterEmbeddings("openai", func(e config.ProviderEntry) (embeddings.Provider, error) {
		var opts []embeddingsopenai.Option
		if e.BaseURL != "" {
			opts = append(opts, embeddingsopenai.WithBaseURL(e.BaseURL))
		}
		return embeddingsopenai.New(e.APIKey, e.Model, opts...)
	})
	reg.RegisterEmbeddings("huggingface", func(e config.ProviderEntry) (embeddings.Provider, error) {
		var opts []embeddingshuggingface.Option
		if e.BaseURL != "" {
			opts = append(opts, embeddingshuggingface.WithBaseURL(e.BaseURL))
		}
		return embeddingshuggingface.New(e.APIKey, e.Model, opts...)
	})

	reg.RegisterVectorDB("pinecone", func(e config.ProviderEntry) (vectorindex.Provider, error) {
		var opts []pinecone.Option
		if e.BaseURL != "" {
			opts = append(opts, pinecone.WithDataPlaneURL(e.BaseURL))
		}
		return pinecone.New(e.APIKey, opts...)
	})
	reg.RegisterVectorDB("upstash", func(e config.ProviderEntry) (vectorindex.Provider, error) {
		return upstash.New(e.BaseURL, e.APIKey)
	})
}

// Build instantiates every provider named in cfg using reg. A provider kind
// left unnamed in cfg is left nil in the result rather than erroring, so
// that ragctl can run with only an embeddings+vector_db pair configured.
func Build(cfg *config.Config, reg *config.Registry) (*Providers, error) {
	ps := &Providers{}

	if name := cfg.Providers.LLM.Name; name != "" {
		p, err := reg.CreateLLM(cfg.Providers.LLM)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not registered — skipping", "kind", "llm", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create llm provider %q: %w", name, err)
		} else {
			ps.LLM = p
			slog.Info("provider created", "kind", "llm", "name", name)
		}
	}

	if name := cfg.Providers.TTS.Name; name != "" {
		p, err := reg.CreateTTS(cfg.Providers.TTS)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not registered — skipping", "kind", "tts", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create tts provider %q: %w", name, err)
		} else {
			ps.TTS = p
			slog.Info("provider created", "kind", "tts", "name", name)
		}
	}

	if name := cfg.Providers.Embeddings.Name; name != "" {
		p, err := reg.CreateEmbeddings(cfg.Providers.Embeddings)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not registered — skipping", "kind", "embeddings", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create embeddings provider %q: %w", name, err)
		} else {
			ps.Embeddings = p
			slog.Info("provider created", "kind", "embeddings", "name", name)
		}
	}

	if name := cfg.Providers.VectorDB.Name; name != "" {
		p, err := reg.CreateVectorDB(cfg.Providers.VectorDB)
		if errors.Is(err, config.ErrProviderNotRegistered) {
			slog.Debug("provider not registered — skipping", "kind", "vector_db", "name", name)
		} else if err != nil {
			return nil, fmt.Errorf("create vector_db provider %q: %w", name, err)
		} else {
			ps.VectorDB = p
			slog.Info("provider created", "kind", "vector_db", "name", name)
		}
	}

	return ps, nil
}
