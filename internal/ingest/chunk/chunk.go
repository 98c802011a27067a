// Package chunk splits KnowledgeObjects into storage-ready Chunks of
// 200-1000 characters, never splitting mid-sentence, and attaches
// neighbouring-topic context and keyword metadata.
package chunk

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

const (
	defaultMaxChunkSize = 1000
	defaultMinChunkSize = 200
	validationMinChars  = 100
	validationMaxChars  = 1200
)

// Option configures a Chunker.
type Option func(*Chunker)

// WithMaxChunkSize overrides the default 1000-character split ceiling.
func WithMaxChunkSize(n int) Option {
	return func(c *Chunker) { c.maxChunkSize = n }
}

// WithMinChunkSize overrides the default 200-character accumulation floor.
func WithMinChunkSize(n int) Option {
	return func(c *Chunker) { c.minChunkSize = n }
}

// Chunker splits KnowledgeObjects into Chunks.
type Chunker struct {
	maxChunkSize int
	minChunkSize int
}

// New constructs a Chunker with default size bounds.
func New(opts ...Option) *Chunker {
	c := &Chunker{maxChunkSize: defaultMaxChunkSize, minChunkSize: defaultMinChunkSize}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chunk converts objects into an ordered slice of validated Chunks.
func (c *Chunker) Chunk(objects []types.KnowledgeObject) ([]types.Chunk, error) {
	var chunks []types.Chunk
	counter := 0

	for i, obj := range objects {
		before := adjacentTopic(objects, i-1)
		after := adjacentTopic(objects, i+1)

		parts := c.split(obj.Content.Context)
		counter++
		for partIdx, content := range parts {
			ch := buildChunk(counter, partIdx, len(parts), obj, content, before, after)
			if err := validateChunk(ch); err != nil {
				if errors.Is(err, errChunkLengthOutOfBounds) {
					slog.Warn("chunk: skipping out-of-bounds chunk", "chunk_id", ch.ChunkID, "topic", obj.Topic, "err", err)
					continue
				}
				return nil, fmt.Errorf("chunk: %s: %w", ch.ChunkID, err)
			}
			chunks = append(chunks, ch)
		}
	}
	return chunks, nil
}

// split divides content into sentence-safe pieces. A piece is flushed once
// it holds at least c.minChunkSize characters and the next sentence would
// push it past c.maxChunkSize, so a piece still below the floor keeps
// growing and can exceed the ceiling. Content within the ceiling is emitted
// whole, and the trailing remainder is emitted regardless of size.
func (c *Chunker) split(content string) []string {
	if len([]rune(content)) <= c.maxChunkSize {
		return []string{content}
	}

	sentences := splitSentences(content)
	var parts []string
	var acc strings.Builder

	for _, s := range sentences {
		accLen := len([]rune(acc.String()))
		sLen := len([]rune(s))

		if accLen > 0 && accLen+sLen > c.maxChunkSize && accLen >= c.minChunkSize {
			parts = append(parts, acc.String())
			acc.Reset()
		}
		acc.WriteString(s)
	}
	if acc.Len() > 0 {
		parts = append(parts, acc.String())
	}
	return parts
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		switch r {
		case '。', '！', '？':
			sentences = append(sentences, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		sentences = append(sentences, b.String())
	}
	return sentences
}

func buildChunk(counter, partIdx, totalParts int, obj types.KnowledgeObject, content string, before, after *string) types.Chunk {
	id := fmt.Sprintf("chunk_%03d", counter)
	var partIndexPtr, totalPartsPtr *int
	if totalParts > 1 {
		id = fmt.Sprintf("chunk_%03d_%d", counter, partIdx)
		pi := partIdx
		tp := totalParts
		partIndexPtr = &pi
		totalPartsPtr = &tp
	}

	return types.Chunk{
		ChunkID: id,
		Type:    "knowledge",
		Content: content,
		Metadata: types.ChunkMetadata{
			Topic:         obj.Topic,
			KnowledgeID:   obj.KnowledgeID,
			People:        obj.Entities.People,
			Concepts:      obj.Entities.Concepts,
			Organizations: obj.Entities.Organizations,
			Timestamp:     obj.Timestamp,
			Importance:    obj.Metadata.Importance,
			Category:      obj.Metadata.Category,
			Keywords:      keywordsFor(obj, content),
			ContextBefore: before,
			ContextAfter:  after,
			SegmentIDs:    obj.Metadata.SegmentIDs,
			Language:      "ja",
			PartIndex:     partIndexPtr,
			TotalParts:    totalPartsPtr,
		},
	}
}

// keywordsFor is the union of the object's entity names and any occurring
// terms from the fixed importance lexicon.
func keywordsFor(obj types.KnowledgeObject, content string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(term string) {
		if term != "" && !seen[term] {
			seen[term] = true
			out = append(out, term)
		}
	}

	for _, p := range obj.Entities.People {
		add(p)
	}
	for _, c := range obj.Entities.Concepts {
		add(c)
	}
	for _, o := range obj.Entities.Organizations {
		add(o)
	}
	for _, term := range importanceLexicon {
		if strings.Contains(content, term) {
			add(term)
		}
	}
	return out
}

func adjacentTopic(objects []types.KnowledgeObject, idx int) *string {
	if idx < 0 || idx >= len(objects) {
		return nil
	}
	label := objects[idx].Topic
	return &label
}

// errChunkLengthOutOfBounds marks a validateChunk failure as a per-chunk
// filtering decision rather than a structural defect: callers skip and warn
// instead of aborting the run.
var errChunkLengthOutOfBounds = errors.New("content length out of bounds")

func validateChunk(c types.Chunk) error {
	if c.ChunkID == "" {
		return fmt.Errorf("empty chunkId")
	}
	if c.Metadata.Topic == "" {
		return fmt.Errorf("empty metadata.topic")
	}
	n := len([]rune(c.Content))
	if n < validationMinChars || n > validationMaxChars {
		return fmt.Errorf("%w: %d not in [%d, %d]", errChunkLengthOutOfBounds, n, validationMinChars, validationMaxChars)
	}
	return nil
}
