package subtitle

import "testing"

func TestParse_Empty(t *testing.T) {
	p := New(nil)
	segs, err := p.Parse([]byte(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("expected zero segments, got %d", len(segs))
	}
}

func TestParse_SingleBlock(t *testing.T) {
	p := New(nil)
	data := []byte("1\n00:00:01,000 --> 00:00:03,500\nこんにちは\n世界\n")
	segs, err := p.Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	s := segs[0]
	if s.ID != 1 {
		t.Errorf("id = %d, want 1", s.ID)
	}
	if s.StartMs != 1000 || s.EndMs != 3500 {
		t.Errorf("startMs=%d endMs=%d, want 1000/3500", s.StartMs, s.EndMs)
	}
	if s.Text != "こんにちは 世界" {
		t.Errorf("text = %q", s.Text)
	}
}

func TestParse_MultipleBlocksSeparatedByBlankLines(t *testing.T) {
	p := New(nil)
	data := []byte("1\n00:00:00,000 --> 00:00:01,000\nfirst\n\n\n2\n00:00:01,000 --> 00:00:02,000\nsecond\n")
	segs, err := p.Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].ID != 1 || segs[1].ID != 2 {
		t.Errorf("unexpected ids: %d, %d", segs[0].ID, segs[1].ID)
	}
}

func TestParse_SkipsMalformedBlockWithTooFewLines(t *testing.T) {
	p := New(nil)
	data := []byte("1\n00:00:00,000 --> 00:00:01,000\n\n2\ntoo short\n")
	segs, err := p.Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both blocks have fewer than 3 non-empty lines after trimming; nothing to parse.
	if len(segs) != 0 {
		t.Errorf("expected 0 segments, got %d", len(segs))
	}
}

func TestParse_StartAfterEndIsError(t *testing.T) {
	p := New(nil)
	data := []byte("1\n00:00:05,000 --> 00:00:01,000\ntext\nmore\n")
	if _, err := p.Parse(data); err == nil {
		t.Fatal("expected error for start > end")
	}
}

func TestParse_SegmentInvariantStartLEEnd(t *testing.T) {
	p := New(nil)
	data := []byte("1\n00:00:00,000 --> 00:00:02,000\na\nb\n\n2\n00:00:02,000 --> 00:00:04,000\nc\nd\n")
	segs, err := p.Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range segs {
		if s.StartMs > s.EndMs {
			t.Errorf("segment %d: startMs %d > endMs %d", s.ID, s.StartMs, s.EndMs)
		}
	}
}
