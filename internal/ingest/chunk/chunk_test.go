package chunk

import (
	"strings"
	"testing"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

func repeatSentence(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("これはテスト用の文章です。")
	}
	return b.String()
}

func knowledgeObject(id, topic, context string) types.KnowledgeObject {
	return types.KnowledgeObject{
		KnowledgeID: id,
		Topic:       topic,
		Content:     types.KnowledgeContent{Context: context},
		Metadata:    types.KnowledgeMetadata{Importance: types.ImportanceMedium, Category: topic},
	}
}

func TestChunk_ShortObjectEmitsSingleChunk(t *testing.T) {
	text := repeatSentence(10) // well under 1000 chars, above 100
	objs := []types.KnowledgeObject{knowledgeObject("k001", "人生", text)}

	chunks, err := New().Chunk(objs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ChunkID != "chunk_001" {
		t.Errorf("ChunkID = %q, want chunk_001", chunks[0].ChunkID)
	}
	if chunks[0].Metadata.PartIndex != nil {
		t.Error("expected nil PartIndex for unsplit chunk")
	}
}

func TestChunk_LongObjectSplitsOnSentenceBoundary(t *testing.T) {
	text := repeatSentence(150) // well over 1000 chars
	objs := []types.KnowledgeObject{knowledgeObject("k001", "人生", text)}

	chunks, err := New().Chunk(objs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected split into multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !strings.HasPrefix(c.ChunkID, "chunk_001_") {
			t.Errorf("chunk %d id = %q, want chunk_001_* prefix", i, c.ChunkID)
		}
		if c.Metadata.PartIndex == nil || *c.Metadata.PartIndex != i {
			t.Errorf("chunk %d PartIndex = %v, want %d", i, c.Metadata.PartIndex, i)
		}
		if c.Metadata.TotalParts == nil || *c.Metadata.TotalParts != len(chunks) {
			t.Errorf("chunk %d TotalParts = %v, want %d", i, c.Metadata.TotalParts, len(chunks))
		}
		if !strings.HasSuffix(c.Content, "。") {
			t.Errorf("chunk %d does not end on a sentence boundary: %q", i, c.Content[max(0, len(c.Content)-10):])
		}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func TestChunk_ContextBeforeAfter(t *testing.T) {
	objs := []types.KnowledgeObject{
		knowledgeObject("k001", "お金", repeatSentence(10)),
		knowledgeObject("k002", "健康", repeatSentence(10)),
		knowledgeObject("k003", "人生", repeatSentence(10)),
	}

	chunks, err := New().Chunk(objs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Metadata.ContextBefore != nil {
		t.Error("expected nil ContextBefore for first chunk")
	}
	if chunks[1].Metadata.ContextBefore == nil || *chunks[1].Metadata.ContextBefore != "お金" {
		t.Errorf("ContextBefore = %v, want お金", chunks[1].Metadata.ContextBefore)
	}
	if chunks[1].Metadata.ContextAfter == nil || *chunks[1].Metadata.ContextAfter != "人生" {
		t.Errorf("ContextAfter = %v, want 人生", chunks[1].Metadata.ContextAfter)
	}
	if chunks[2].Metadata.ContextAfter != nil {
		t.Error("expected nil ContextAfter for last chunk")
	}
}

func TestChunk_KeywordsUnionEntitiesAndLexicon(t *testing.T) {
	obj := knowledgeObject("k001", "信用", repeatSentence(10)+"信用と感謝が大切です。")
	obj.Entities.People = []string{"本田健"}

	chunks, err := New().Chunk([]types.KnowledgeObject{obj})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kw := chunks[0].Metadata.Keywords
	hasHonda, hasShinyo, hasKansha := false, false, false
	for _, k := range kw {
		switch k {
		case "本田健":
			hasHonda = true
		case "信用":
			hasShinyo = true
		case "感謝":
			hasKansha = true
		}
	}
	if !hasHonda || !hasShinyo || !hasKansha {
		t.Errorf("keywords missing expected terms: %+v", kw)
	}
}

func TestChunk_RejectsEmptyTopic(t *testing.T) {
	obj := knowledgeObject("k001", "", repeatSentence(10))
	_, err := New().Chunk([]types.KnowledgeObject{obj})
	if err == nil {
		t.Fatal("expected validation error for empty topic")
	}
}

func TestChunk_SkipsTooShortObjectInsteadOfAborting(t *testing.T) {
	objs := []types.KnowledgeObject{
		knowledgeObject("k001", "短い話題", "短い。"),
		knowledgeObject("k002", "人生", repeatSentence(10)),
	}

	chunks, err := New().Chunk(objs)
	if err != nil {
		t.Fatalf("expected the short object to be skipped, not aborted: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 surviving chunk, got %d", len(chunks))
	}
	if chunks[0].Metadata.Topic != "人生" {
		t.Errorf("surviving chunk topic = %q, want 人生", chunks[0].Metadata.Topic)
	}
}
