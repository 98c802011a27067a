// Package service composes retrieval, prompting, the LLM, and best-effort
// speech synthesis into the /chat request/response contract.
package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/kotodama-ai/transcript-rag/internal/answer/prompt"
	"github.com/kotodama-ai/transcript-rag/internal/answer/retriever"
	"github.com/kotodama-ai/transcript-rag/internal/cache/audiocache"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/llm"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/tts"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const (
	maxMessageLength   = 1000
	sourcePreviewChars = 200
	defaultConcurrency = 8
	defaultVoiceID     = "default"
)

const noMatchAnswer = "申し訳ございませんが、その質問に関する情報が見つかりませんでした。"

// ValidationError indicates a malformed request; callers should respond 400.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// Option configures a Service.
type Option func(*Service)

// WithVoiceID overrides the TTS voice identifier used for synthesis.
func WithVoiceID(voice string) Option { return func(s *Service) { s.voiceID = voice } }

// WithLogger overrides the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithConcurrency overrides the number of concurrent outbound calls
// (embedding + LLM + TTS) permitted across all requests. Defaults to 8.
func WithConcurrency(n int) Option {
	return func(s *Service) { s.sem = semaphore.NewWeighted(int64(n)) }
}

// Service answers /chat requests by retrieving grounding passages, building
// a prompt, calling the LLM, and best-effort synthesising audio.
type Service struct {
	retriever *retriever.Retriever
	prompt    *prompt.Builder
	llmClient llm.Provider
	tts       tts.Provider
	cache     *audiocache.Cache

	voiceID string
	logger  *slog.Logger
	sem     *semaphore.Weighted
}

// New returns a Service. tts and cache may be nil to disable speech
// synthesis entirely.
func New(r *retriever.Retriever, llmClient llm.Provider, ttsClient tts.Provider, cache *audiocache.Cache, opts ...Option) *Service {
	s := &Service{
		retriever: r,
		prompt:    prompt.New(),
		llmClient: llmClient,
		tts:       ttsClient,
		cache:     cache,
		voiceID:   defaultVoiceID,
		logger:    slog.Default(),
		sem:       semaphore.NewWeighted(defaultConcurrency),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer processes req and returns the /chat response. Retrieval and LLM
// failures are fatal; TTS failures are logged and the response is returned
// without audio.
func (s *Service) Answer(ctx context.Context, req types.Request) (*types.Response, error) {
	start := time.Now()

	if err := validate(req); err != nil {
		return nil, err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("answer: acquire concurrency slot: %w", err)
	}
	defer s.sem.Release(1)

	sources, err := s.retriever.Retrieve(ctx, req.Message)
	if err != nil {
		return nil, fmt.Errorf("answer: retrieve: %w", err)
	}

	if len(sources) == 0 {
		return &types.Response{
			Response:       noMatchAnswer,
			Sources:        []types.Source{},
			ConversationID: conversationID,
			Metadata: types.ResponseMetadata{
				RetrievedChunks: 0,
				ProcessingTime:  int(time.Since(start).Milliseconds()),
			},
		}, nil
	}

	completionReq := s.prompt.Build(req.Message, req.ConversationHistory, sources)
	completion, err := s.llmClient.Complete(ctx, completionReq)
	if err != nil {
		return nil, fmt.Errorf("answer: llm completion: %w", err)
	}

	resp := &types.Response{
		Response:       completion.Content,
		Sources:        previewSources(sources),
		ConversationID: conversationID,
		Metadata: types.ResponseMetadata{
			RetrievedChunks: len(sources),
		},
	}

	s.attachAudio(ctx, completion.Content, resp)

	resp.Metadata.ProcessingTime = int(time.Since(start).Milliseconds())
	return resp, nil
}

func (s *Service) attachAudio(ctx context.Context, text string, resp *types.Response) {
	if s.tts == nil {
		return
	}

	if s.cache != nil {
		if audio, ok := s.cache.Get(text); ok {
			resp.Audio = base64.StdEncoding.EncodeToString(audio)
			resp.Metadata.AudioGenerated = true
			resp.Metadata.AudioFromCache = true
			return
		}
	}

	audio, err := s.tts.Synthesize(ctx, text, s.voiceID)
	if err != nil {
		s.logger.Warn("answer: speech synthesis failed, returning text-only response", "error", err)
		return
	}

	if s.cache != nil {
		s.cache.Put(text, audio)
	}
	resp.Audio = base64.StdEncoding.EncodeToString(audio)
	resp.Metadata.AudioGenerated = true
}

func validate(req types.Request) error {
	trimmed := strings.TrimSpace(req.Message)
	if trimmed == "" {
		return &ValidationError{Message: "message must not be empty"}
	}
	if len([]rune(trimmed)) > maxMessageLength {
		return &ValidationError{Message: fmt.Sprintf("message exceeds maximum length of %d characters", maxMessageLength)}
	}
	return nil
}

func previewSources(sources []types.Source) []types.Source {
	out := make([]types.Source, len(sources))
	for i, src := range sources {
		out[i] = src
		out[i].Text = truncate(src.Text, sourcePreviewChars)
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
