package prompt

import (
	"strings"
	"testing"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

func TestBuild_UserMessageIsLastEntry(t *testing.T) {
	history := []types.HistoryTurn{
		{Role: types.RoleUser, Content: "こんにちは"},
		{Role: types.RoleAssistant, Content: "こんにちは、何かお手伝いできますか？"},
	}
	req := New().Build("黄金率とは何ですか", history, nil)

	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(req.Messages))
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" || last.Content != "黄金率とは何ですか" {
		t.Errorf("last message = %+v, want current user message", last)
	}
}

func TestBuild_FiltersHistoryDuplicatingCurrentMessage(t *testing.T) {
	history := []types.HistoryTurn{
		{Role: types.RoleUser, Content: "黄金率とは何ですか"},
	}
	req := New().Build("黄金率とは何ですか", history, nil)

	if len(req.Messages) != 1 {
		t.Fatalf("expected duplicate history entry filtered, got %d messages", len(req.Messages))
	}
}

func TestBuild_EmbedsNumberedSourcesWithTimestamps(t *testing.T) {
	sources := []types.Source{
		{Text: "黄金率の話", Timestamp: "00:01:23"},
		{Text: "信用について", Timestamp: "00:05:00"},
	}
	req := New().Build("質問", nil, sources)

	if !strings.Contains(req.SystemPrompt, "1. 黄金率の話 (時間: 00:01:23)") {
		t.Errorf("system prompt missing numbered source 1: %s", req.SystemPrompt)
	}
	if !strings.Contains(req.SystemPrompt, "2. 信用について (時間: 00:05:00)") {
		t.Errorf("system prompt missing numbered source 2: %s", req.SystemPrompt)
	}
}

func TestBuild_NoSourcesStillProducesGroundingInstruction(t *testing.T) {
	req := New().Build("質問", nil, nil)
	if !strings.Contains(req.SystemPrompt, noAnswerPhrase) {
		t.Errorf("system prompt missing fallback phrase: %s", req.SystemPrompt)
	}
}
