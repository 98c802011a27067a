// Package knowledge extracts topic-scoped KnowledgeObjects from a cleaned
// transcript: topic segmentation (embedding or keyword-fallback), entity and
// quote extraction, type classification, and importance scoring.
package knowledge

import (
	"context"
	"fmt"

	"github.com/kotodama-ai/transcript-rag/pkg/provider/embeddings"
	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const mainSummaryChars = 200

// Option configures an Extractor.
type Option func(*Extractor)

// WithEnhancer attaches an optional AI enhancement pass. Disabled by
// default; when set, Extract calls it once per produced KnowledgeObject.
func WithEnhancer(e *Enhancer) Option {
	return func(ex *Extractor) {
		ex.enhancer = e
	}
}

// Extractor turns cleaned paragraphs into KnowledgeObjects.
type Extractor struct {
	provider embeddings.Provider // nil selects keyword-fallback mode
	enhancer *Enhancer
}

// New constructs an Extractor. When provider is non-nil, topic segmentation
// runs in embedding mode; otherwise it falls back to substring matching.
func New(provider embeddings.Provider, opts ...Option) *Extractor {
	ex := &Extractor{provider: provider}
	for _, o := range opts {
		o(ex)
	}
	return ex
}

// Extract segments paragraphs into topics and builds one KnowledgeObject per
// topic group.
func (ex *Extractor) Extract(ctx context.Context, paragraphs []types.CleanedParagraph) ([]types.KnowledgeObject, error) {
	seg, err := ex.newSegmenter(ctx)
	if err != nil {
		return nil, fmt.Errorf("knowledge: build segmenter: %w", err)
	}
	groups := seg.segment(ctx, paragraphs)

	people := newNameFolder()
	orgs := newNameFolder()

	objects := make([]types.KnowledgeObject, 0, len(groups))
	for i, g := range groups {
		obj := buildKnowledgeObject(i+1, g, people, orgs)
		objects = append(objects, obj)
	}

	if ex.enhancer != nil {
		ex.enhancer.EnhanceAll(ctx, objects)
	}

	return objects, nil
}

func (ex *Extractor) newSegmenter(ctx context.Context) (*segmenter, error) {
	if ex.provider == nil {
		return newKeywordFallbackSegmenter(), nil
	}
	return newEmbeddingSegmenter(ctx, ex.provider)
}

func buildKnowledgeObject(index int, g topicGroup, people, orgs *nameFolder) types.KnowledgeObject {
	fullText := concatParagraphs(g.paragraphs)
	entities := extractEntities(fullText)
	entities.People = people.foldAll(entities.People)
	entities.Organizations = orgs.foldAll(entities.Organizations)

	quotes := extractQuotes(fullText)
	topQuotes := quotes
	if len(topQuotes) > 3 {
		topQuotes = topQuotes[:3]
	}

	main := truncateRunes(fullText, mainSummaryChars) + "…"
	keyTakeaway := truncateRunes(fullText, 100)
	if len(quotes) > 0 {
		keyTakeaway = quotes[0]
	}

	importance := scoreImportance(quotes, entities, fullText)

	segmentIDs := unionSegmentIDs(g.paragraphs)

	topic := g.label
	if topic == "" {
		topic = "general"
	}

	return types.KnowledgeObject{
		KnowledgeID: fmt.Sprintf("k%03d", index),
		Topic:       topic,
		Type:        classifyType(fullText),
		Content: types.KnowledgeContent{
			Main:        main,
			Context:     fullText,
			Quotes:      topQuotes,
			KeyTakeaway: keyTakeaway,
		},
		Entities: entities,
		Timestamp: types.TimestampBounds{
			Start: g.paragraphs[0].StartTime,
			End:   g.paragraphs[len(g.paragraphs)-1].EndTime,
		},
		Metadata: types.KnowledgeMetadata{
			Importance: importance,
			Category:   categoryFor(topic),
			Themes:     []string{topic},
			SegmentIDs: segmentIDs,
		},
	}
}

func concatParagraphs(paragraphs []types.CleanedParagraph) string {
	var out string
	for i, p := range paragraphs {
		if i > 0 {
			out += "\n"
		}
		out += p.CleanedText
	}
	return out
}

func unionSegmentIDs(paragraphs []types.CleanedParagraph) []int {
	seen := make(map[int]bool)
	var ids []int
	for _, p := range paragraphs {
		for _, id := range p.SegmentIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// categoryFor derives a coarse category label from the topic keyword. When
// the topic is unlabelled, "general" is used.
func categoryFor(label string) string {
	if label == "" {
		return "general"
	}
	return label
}
