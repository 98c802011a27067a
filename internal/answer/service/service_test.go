package service

import (
	"context"
	"strings"
	"testing"

	"github.com/kotodama-ai/transcript-rag/internal/answer/retriever"
	"github.com/kotodama-ai/transcript-rag/internal/cache/audiocache"
	embeddingsmock "github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings/mock"
	"github.com/kotodama-ai/transcript-rag/pkg/provider/llm"
	llmmock "github.com/kotodama-ai/transcript-rag/pkg/provider/llm/mock"
	ttsmock "github.com/kotodama-ai/transcript-rag/pkg/provider/tts/mock"
	vectorindexmock "github.com/kotodama-ai/transcript-rag/pkg/provider/vectorindex/mock"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

func sampleMatches() []types.Match {
	return []types.Match{
		{ID: "chunk-1", Score: 0.91, Metadata: map[string]string{"content": "黄金率についての話", "startTime": "00:01:00", "topic": "golden rule"}},
	}
}

func newTestRetriever(matches []types.Match) *retriever.Retriever {
	embedder := &embeddingsmock.Provider{EmbedResult: []float32{1, 0}, DimensionsValue: 2}
	index := &vectorindexmock.Provider{QueryResult: matches}
	return retriever.New(embedder, index)
}

func TestAnswer_HappyPathReturnsLLMResponseWithSources(t *testing.T) {
	llmClient := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "黄金率とは与えることから始まります。"}}
	ttsClient := &ttsmock.Provider{SynthesizeResult: []byte("audio-bytes")}

	svc := New(newTestRetriever(sampleMatches()), llmClient, ttsClient, nil)

	resp, err := svc.Answer(context.Background(), types.Request{Message: "黄金率とは何ですか"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.Response != "黄金率とは与えることから始まります。" {
		t.Errorf("Response = %q", resp.Response)
	}
	if len(resp.Sources) != 1 {
		t.Fatalf("Sources = %d, want 1", len(resp.Sources))
	}
	if resp.ConversationID == "" {
		t.Error("expected a generated conversationId")
	}
	if !resp.Metadata.AudioGenerated {
		t.Error("expected AudioGenerated true")
	}
	if resp.Audio == "" {
		t.Error("expected non-empty base64 audio")
	}
}

func TestAnswer_PreservesSuppliedConversationID(t *testing.T) {
	llmClient := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "回答"}}
	svc := New(newTestRetriever(sampleMatches()), llmClient, nil, nil)

	resp, err := svc.Answer(context.Background(), types.Request{Message: "質問", ConversationID: "conv-42"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.ConversationID != "conv-42" {
		t.Errorf("ConversationID = %q, want conv-42", resp.ConversationID)
	}
}

func TestAnswer_NoMatchesReturnsCannedAnswer(t *testing.T) {
	llmClient := &llmmock.Provider{}
	svc := New(newTestRetriever(nil), llmClient, nil, nil)

	resp, err := svc.Answer(context.Background(), types.Request{Message: "無関係な質問"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if resp.Response != noMatchAnswer {
		t.Errorf("Response = %q, want canned no-match answer", resp.Response)
	}
	if len(llmClient.CompleteCalls) != 0 {
		t.Error("LLM should not be called when there are no matches")
	}
}

func TestAnswer_EmptyMessageIsValidationError(t *testing.T) {
	svc := New(newTestRetriever(sampleMatches()), &llmmock.Provider{}, nil, nil)

	_, err := svc.Answer(context.Background(), types.Request{Message: "   "})
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestAnswer_OverlongMessageIsValidationError(t *testing.T) {
	svc := New(newTestRetriever(sampleMatches()), &llmmock.Provider{}, nil, nil)

	_, err := svc.Answer(context.Background(), types.Request{Message: strings.Repeat("あ", maxMessageLength+1)})
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}

func TestAnswer_LLMFailureIsFatal(t *testing.T) {
	llmClient := &llmmock.Provider{CompleteErr: context.DeadlineExceeded}
	svc := New(newTestRetriever(sampleMatches()), llmClient, nil, nil)

	_, err := svc.Answer(context.Background(), types.Request{Message: "質問"})
	if err == nil {
		t.Fatal("expected error when LLM call fails")
	}
}

func TestAnswer_TTSFailureIsNonFatalAndOmitsAudio(t *testing.T) {
	llmClient := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "回答"}}
	ttsClient := &ttsmock.Provider{SynthesizeErr: context.DeadlineExceeded}
	svc := New(newTestRetriever(sampleMatches()), llmClient, ttsClient, nil)

	resp, err := svc.Answer(context.Background(), types.Request{Message: "質問"})
	if err != nil {
		t.Fatalf("Answer() error = %v, want nil (TTS failure must not be fatal)", err)
	}
	if resp.Audio != "" {
		t.Error("expected no audio when synthesis fails")
	}
	if resp.Metadata.AudioGenerated {
		t.Error("expected AudioGenerated false on synthesis failure")
	}
}

func TestAnswer_SourceTextTruncatedAtPreviewLength(t *testing.T) {
	longText := strings.Repeat("あ", sourcePreviewChars+50)
	matches := []types.Match{{ID: "c1", Score: 0.5, Metadata: map[string]string{"content": longText}}}
	llmClient := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "回答"}}
	svc := New(newTestRetriever(matches), llmClient, nil, nil)

	resp, err := svc.Answer(context.Background(), types.Request{Message: "質問"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	got := []rune(resp.Sources[0].Text)
	if len(got) != sourcePreviewChars+1 {
		t.Errorf("truncated length = %d, want %d (+ellipsis)", len(got), sourcePreviewChars+1)
	}
	if !strings.HasSuffix(resp.Sources[0].Text, "…") {
		t.Error("expected ellipsis suffix on truncated source text")
	}
}

func TestAnswer_AudioCacheHitSetsAudioFromCache(t *testing.T) {
	llmClient := &llmmock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "キャッシュされた回答"}}
	cache := audiocache.New()
	cache.Put("キャッシュされた回答", []byte("cached-audio"))
	ttsClient := &ttsmock.Provider{SynthesizeResult: []byte("fresh-audio")}

	svc := New(newTestRetriever(sampleMatches()), llmClient, ttsClient, cache)
	resp, err := svc.Answer(context.Background(), types.Request{Message: "質問"})
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if !resp.Metadata.AudioFromCache {
		t.Error("expected AudioFromCache true")
	}
	if len(ttsClient.SynthesizeCalls) != 0 {
		t.Error("TTS should not be called on a cache hit")
	}
}
