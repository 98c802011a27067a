package huggingface

import "testing"

func TestModelDimensions(t *testing.T) {
	cases := []struct {
		model string
		want  int
	}{
		{"intfloat/multilingual-e5-large", 1024},
		{"intfloat/multilingual-e5-base", 768},
		{"intfloat/multilingual-e5-small", 384},
		{"sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2", 384},
		{"ibm-granite/granite-embedding-278m-multilingual", 768},
		{"some-future-model", 768},
	}
	for _, c := range cases {
		if got := modelDimensions(c.model); got != c.want {
			t.Errorf("modelDimensions(%q) = %d, want %d", c.model, got, c.want)
		}
	}
}

func TestRequiresQueryPrefix(t *testing.T) {
	if !RequiresQueryPrefix("intfloat/multilingual-e5-base") {
		t.Error("expected e5 model to require query prefix")
	}
	if RequiresQueryPrefix("ibm-granite/granite-embedding-278m-multilingual") {
		t.Error("granite model should not require query prefix")
	}
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New("", "intfloat/multilingual-e5-base")
	if err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestNew_MissingModel(t *testing.T) {
	_, err := New("hf_test", "")
	if err == nil {
		t.Fatal("expected error for empty model")
	}
}

func TestNew_DimensionsResolved(t *testing.T) {
	p, err := New("hf_test", "intfloat/multilingual-e5-large")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Dimensions() != 1024 {
		t.Errorf("Dimensions() = %d, want 1024", p.Dimensions())
	}
	if p.ModelID() != "intfloat/multilingual-e5-large" {
		t.Errorf("ModelID() = %q", p.ModelID())
	}
}
