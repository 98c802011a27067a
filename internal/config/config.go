// Package config provides the configuration schema, loader, and provider
// registry for the transcript-rag answering service.
package config

// Config is the root configuration structure for the service.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Index     IndexConfig     `yaml:"index"`
	Admission AdmissionConfig `yaml:"admission"`
}

// ServerConfig holds network and logging settings for the HTTP server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity. Valid values: "debug", "info", "warn", "error".
	LogLevel LogLevel `yaml:"log_level"`
}

// LogLevel selects the verbosity of the structured logger.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is one of the recognised log levels.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	default:
		return false
	}
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the [Registry].
type ProvidersConfig struct {
	LLM        ProviderEntry `yaml:"llm"`
	TTS        ProviderEntry `yaml:"tts"`
	Embeddings ProviderEntry `yaml:"embeddings"`
	VectorDB   ProviderEntry `yaml:"vector_db"`
}

// ProviderEntry is the common configuration block shared by all provider types.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "pinecone").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider (e.g., "gpt-4o", "multilingual-e5-large").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above. Values may be strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// PipelineConfig holds ingestion pipeline tuning knobs.
type PipelineConfig struct {
	// ArtifactDir, if set, causes every stage's output to be persisted as a
	// numbered JSON file under this directory.
	ArtifactDir string `yaml:"artifact_dir"`

	// EmbedBatchSize is read and validated by the loader. The ingestion
	// pipeline does not use it: it always embeds 50 chunks per provider call.
	EmbedBatchSize int `yaml:"embed_batch_size"`

	// EmbedFanOut is read and validated by the loader. The ingestion pipeline
	// does not use it: it always runs at most 8 concurrent embedding batch
	// calls.
	EmbedFanOut int `yaml:"embed_fan_out"`
}

// IndexConfig names the target vector index and namespace used by both
// ingestion and retrieval.
type IndexConfig struct {
	// Name is the vector index name passed to EnsureIndex.
	Name string `yaml:"name"`

	// Namespace partitions vectors within the index (e.g., per transcript set).
	Namespace string `yaml:"namespace"`

	// TopK is the default number of passages the retriever returns per query.
	TopK int `yaml:"top_k"`
}

// AdmissionConfig controls rate limiting, API key, and origin checks applied
// to inbound HTTP requests.
type AdmissionConfig struct {
	// Mode is "production" or "development". Development mode skips the
	// origin check and lets an empty APIKeys list through with a logged
	// warning instead of rejecting every request.
	Mode string `yaml:"mode"`

	// APIKeys is the set of accepted values for X-API-Key / Bearer auth.
	APIKeys []string `yaml:"api_keys"`

	// AllowedOrigins lists exact origins or "*.domain" wildcard patterns
	// permitted to call the API in production mode.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// RateLimitWindowSeconds is the fixed-window duration in seconds.
	RateLimitWindowSeconds int `yaml:"rate_limit_window_seconds"`

	// AnswerMaxPerWindow caps /chat requests per client IP per window.
	AnswerMaxPerWindow int `yaml:"answer_max_per_window"`

	// HealthMaxPerWindow caps requests per client IP per window for the
	// health category of admission checks. cmd/ragserver serves /healthz and
	// /readyz without running admission, so this cap does not apply to them.
	HealthMaxPerWindow int `yaml:"health_max_per_window"`
}
