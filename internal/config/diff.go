package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	AdmissionChanged bool
	AdmissionDiff    AdmissionDiff

	IndexChanged bool
	NewTopK      int
}

// AdmissionDiff describes what changed in AdmissionConfig between two configs.
type AdmissionDiff struct {
	ModeChanged           bool
	APIKeysChanged        bool
	AllowedOriginsChanged bool
	RateLimitsChanged     bool
}

func (d AdmissionDiff) changed() bool {
	return d.ModeChanged || d.APIKeysChanged || d.AllowedOriginsChanged || d.RateLimitsChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart — provider
// wiring (LLM/TTS/embeddings/vector_db) always requires a full restart and
// is intentionally not tracked here.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	ad := diffAdmission(&old.Admission, &new.Admission)
	if ad.changed() {
		d.AdmissionChanged = true
		d.AdmissionDiff = ad
	}

	if old.Index.TopK != new.Index.TopK {
		d.IndexChanged = true
		d.NewTopK = new.Index.TopK
	}

	return d
}

func diffAdmission(old, new *AdmissionConfig) AdmissionDiff {
	return AdmissionDiff{
		ModeChanged:           old.Mode != new.Mode,
		APIKeysChanged:        !slices.Equal(old.APIKeys, new.APIKeys),
		AllowedOriginsChanged: !slices.Equal(old.AllowedOrigins, new.AllowedOrigins),
		RateLimitsChanged: old.RateLimitWindowSeconds != new.RateLimitWindowSeconds ||
			old.AnswerMaxPerWindow != new.AnswerMaxPerWindow ||
			old.HealthMaxPerWindow != new.HealthMaxPerWindow,
	}
}
