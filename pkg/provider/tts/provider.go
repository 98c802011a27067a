// Package tts defines the Provider interface for Text-to-Speech backends
// used by the answering core's best-effort audio step.
//
// A TTS provider wraps a speech synthesis service and presents a single
// blocking call: the full response text in, complete synthesised audio
// bytes out. There is no streaming surface — the answering core always has
// the complete response text before synthesis starts, and the /chat
// contract returns audio as one base64 field, never a stream.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"
)

// ErrProviderNotConfigured is returned by a provider constructor when
// required credentials are missing.
var ErrProviderNotConfigured = errors.New("tts: provider not configured")

// ErrEmptyText is returned when Synthesize is called with blank text.
var ErrEmptyText = errors.New("tts: text must not be empty")

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders text to speech using voice and returns the
	// complete encoded audio bytes (MP3 or provider-equivalent). Returns
	// ErrEmptyText if text is blank after trimming.
	Synthesize(ctx context.Context, text string, voice string) ([]byte, error)
}
