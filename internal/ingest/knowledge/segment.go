package knowledge

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const (
	defaultSimilarityThreshold = 0.5
	defaultTopicCharLimit      = 2000
	labelPrefixChars           = 500
)

// topicGroup is one contiguous run of paragraphs sharing a topic label.
type topicGroup struct {
	label      string
	paragraphs []types.CleanedParagraph
}

func (g *topicGroup) charCount() int {
	total := 0
	for _, p := range g.paragraphs {
		total += utf8.RuneCountInString(p.CleanedText)
	}
	return total
}

// segmenter walks paragraphs left-to-right accumulating them into
// topicGroups, either via embedding similarity against a fixed keyword
// catalogue or via substring matching.
type segmenter struct {
	provider  embeddings.Provider
	threshold float64
	charLimit int

	keywordVectors [][]float32 // nil when running in keyword-fallback mode
}

// newEmbeddingSegmenter embeds the fixed topic keyword catalogue once via
// provider and returns a segmenter that labels paragraphs by cosine
// similarity.
func newEmbeddingSegmenter(ctx context.Context, provider embeddings.Provider) (*segmenter, error) {
	vectors, err := provider.EmbedBatch(ctx, topicKeywords)
	if err != nil {
		return nil, err
	}
	return &segmenter{
		provider:       provider,
		threshold:      defaultSimilarityThreshold,
		charLimit:      defaultTopicCharLimit,
		keywordVectors: vectors,
	}, nil
}

// newKeywordFallbackSegmenter returns a segmenter that labels paragraphs by
// substring match against the topic catalogue, with no embedding calls.
func newKeywordFallbackSegmenter() *segmenter {
	return &segmenter{charLimit: defaultTopicCharLimit}
}

// segment walks paragraphs in order, returning the resulting topic groups.
func (s *segmenter) segment(ctx context.Context, paragraphs []types.CleanedParagraph) []topicGroup {
	var groups []topicGroup
	var current *topicGroup

	for _, p := range paragraphs {
		label := s.label(ctx, p)

		if current == nil {
			groups = append(groups, topicGroup{paragraphs: []types.CleanedParagraph{p}, label: label})
			current = &groups[len(groups)-1]
			continue
		}

		wouldExceedLimit := current.charCount()+utf8.RuneCountInString(p.CleanedText) > s.charLimit
		labelConflict := label != "" && current.label != "" && label != current.label

		if wouldExceedLimit || labelConflict {
			groups = append(groups, topicGroup{paragraphs: []types.CleanedParagraph{p}, label: label})
			current = &groups[len(groups)-1]
			continue
		}

		current.paragraphs = append(current.paragraphs, p)
		if current.label == "" {
			current.label = label
		}
	}
	return groups
}

// label returns the topic label for p, or "" if none applies.
func (s *segmenter) label(ctx context.Context, p types.CleanedParagraph) string {
	if s.keywordVectors != nil {
		return s.embeddingLabel(ctx, p)
	}
	return s.substringLabel(p)
}

func (s *segmenter) substringLabel(p types.CleanedParagraph) string {
	for _, kw := range topicKeywords {
		if strings.Contains(p.CleanedText, kw) {
			return kw
		}
	}
	return ""
}

func (s *segmenter) embeddingLabel(ctx context.Context, p types.CleanedParagraph) string {
	prefix := p.CleanedText
	if len([]rune(prefix)) > labelPrefixChars {
		prefix = string([]rune(prefix)[:labelPrefixChars])
	}

	vec, err := s.provider.Embed(ctx, prefix)
	if err != nil {
		slog.Warn("knowledge: paragraph embedding failed, leaving unlabelled",
			"paragraph_id", p.ParagraphID, "error", err)
		return ""
	}

	bestIdx := -1
	bestScore := -1.0
	for i, kwVec := range s.keywordVectors {
		score := cosineSimilarity(vec, kwVec)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestScore < s.threshold {
		return ""
	}
	return topicKeywords[bestIdx]
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
