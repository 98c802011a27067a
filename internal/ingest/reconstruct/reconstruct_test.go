package reconstruct

import (
	"strings"
	"testing"
	"time"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

func seg(id, startMs, endMs int, text string) types.Segment {
	return types.Segment{ID: id, StartMs: startMs, EndMs: endMs, Text: text,
		StartTime: time.Duration(startMs * int(time.Millisecond)).String(),
		EndTime:   time.Duration(endMs * int(time.Millisecond)).String()}
}

func TestReconstruct_SentenceEndsOnTerminator(t *testing.T) {
	r := New()
	segs := []types.Segment{
		seg(1, 0, 1000, "こんにちは。"),
		seg(2, 1000, 2000, "元気ですか？"),
	}
	paragraphs := r.Reconstruct(segs)
	if len(paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paragraphs))
	}
	if len(paragraphs[0].Sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(paragraphs[0].Sentences))
	}
}

func TestReconstruct_SilenceGapForcesBoundary(t *testing.T) {
	r := New()
	segs := []types.Segment{
		seg(1, 0, 1000, "no terminator here"),
		seg(2, 5000, 6000, "next sentence"), // 4s gap > 2s
	}
	paragraphs := r.Reconstruct(segs)
	if len(paragraphs) != 1 || len(paragraphs[0].Sentences) != 2 {
		t.Fatalf("expected 1 paragraph with 2 sentences from silence gap, got %+v", paragraphs)
	}
}

func TestReconstruct_ParagraphClosesAtFiveSentences(t *testing.T) {
	r := New()
	var segs []types.Segment
	for i := 0; i < 6; i++ {
		segs = append(segs, seg(i+1, i*1000, i*1000+500, "文。"))
	}
	paragraphs := r.Reconstruct(segs)
	if len(paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs (5+1), got %d", len(paragraphs))
	}
	if len(paragraphs[0].Sentences) != 5 {
		t.Errorf("first paragraph should have 5 sentences, got %d", len(paragraphs[0].Sentences))
	}
	if len(paragraphs[1].Sentences) != 1 {
		t.Errorf("second paragraph should have 1 sentence, got %d", len(paragraphs[1].Sentences))
	}
}

func TestReconstruct_NoCharacterLoss(t *testing.T) {
	r := New()
	segs := []types.Segment{
		seg(1, 0, 1000, "hello"),
		seg(2, 1000, 2000, "world."),
	}
	paragraphs := r.Reconstruct(segs)
	var rebuilt []string
	for _, p := range paragraphs {
		for _, s := range p.Sentences {
			rebuilt = append(rebuilt, s.Text)
		}
	}
	got := strings.Join(rebuilt, " ")
	want := "hello world."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestReconstruct_SegmentIDsAreUnionOfSentenceIDs(t *testing.T) {
	r := New()
	segs := []types.Segment{
		seg(1, 0, 1000, "a"),
		seg(2, 1000, 2000, "b。"),
		seg(3, 2000, 3000, "c。"),
	}
	paragraphs := r.Reconstruct(segs)
	if len(paragraphs) != 1 {
		t.Fatalf("expected 1 paragraph, got %d", len(paragraphs))
	}
	var want []int
	for _, s := range paragraphs[0].Sentences {
		want = append(want, s.SegmentIDs...)
	}
	got := paragraphs[0].SegmentIDs
	if len(got) != len(want) {
		t.Fatalf("segmentIDs length mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segmentIDs[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestReconstruct_EmptyInput(t *testing.T) {
	r := New()
	paragraphs := r.Reconstruct(nil)
	if len(paragraphs) != 0 {
		t.Errorf("expected zero paragraphs for empty input, got %d", len(paragraphs))
	}
}
