package knowledge

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kotodama-ai/transcript-rag/pkg/provider/llm"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const interCallDelay = 200 * time.Millisecond

const enhancePrompt = `Given the following transcript excerpt, respond with JSON only:
{"summary": "...", "keyTakeaway": "...", "category": "...", "sentiment": "...", "themes": ["..."]}`

type enhancement struct {
	Summary     string   `json:"summary"`
	KeyTakeaway string   `json:"keyTakeaway"`
	Category    string   `json:"category"`
	Sentiment   string   `json:"sentiment"`
	Themes      []string `json:"themes"`
}

// Enhancer calls an LLM to overwrite a KnowledgeObject's summary,
// keyTakeaway, category, sentiment, and themes. Disabled by default;
// attach via WithEnhancer. Per-object failures are logged and the original
// object is left untouched.
type Enhancer struct {
	provider llm.Provider
}

// NewEnhancer returns an Enhancer backed by provider.
func NewEnhancer(provider llm.Provider) *Enhancer {
	return &Enhancer{provider: provider}
}

// EnhanceAll enhances each object in place, observing interCallDelay between
// calls.
func (e *Enhancer) EnhanceAll(ctx context.Context, objects []types.KnowledgeObject) {
	for i := range objects {
		if err := e.enhanceOne(ctx, &objects[i]); err != nil {
			slog.Warn("knowledge: AI enhancement failed, keeping original",
				"knowledge_id", objects[i].KnowledgeID, "error", err)
		}
		if i < len(objects)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(interCallDelay):
			}
		}
	}
}

func (e *Enhancer) enhanceOne(ctx context.Context, obj *types.KnowledgeObject) error {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: enhancePrompt,
		Messages:     []llm.ChatMessage{{Role: "user", Content: obj.Content.Context}},
		MaxTokens:    500,
	})
	if err != nil {
		return err
	}

	var parsed enhancement
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return err
	}

	if parsed.Summary != "" {
		obj.Content.Main = parsed.Summary
	}
	if parsed.KeyTakeaway != "" {
		obj.Content.KeyTakeaway = parsed.KeyTakeaway
	}
	if parsed.Category != "" {
		obj.Metadata.Category = parsed.Category
	}
	if parsed.Sentiment != "" {
		obj.Metadata.Sentiment = parsed.Sentiment
	}
	if len(parsed.Themes) > 0 {
		obj.Metadata.Themes = parsed.Themes
	}
	return nil
}
