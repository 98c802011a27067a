// Package reconstruct merges subtitle [types.Segment] cues into
// [types.Sentence] and [types.Paragraph] values, following punctuation and
// silence-gap rules. It is a pure regrouping: no character is dropped or
// duplicated.
package reconstruct

import (
	"strings"
	"time"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

// defaultSilenceGap is the silence from one segment's end to the next
// segment's start that forces a sentence boundary even without terminal
// punctuation.
const defaultSilenceGap = 2 * time.Second

// defaultMaxSentencesPerParagraph closes a paragraph once it holds this many
// sentences.
const defaultMaxSentencesPerParagraph = 5

var sentenceTerminators = []rune{'。', '！', '？', '!', '?', '.'}

// Reconstructor regroups segments into sentences and paragraphs.
type Reconstructor struct {
	// SilenceGap is the maximum gap between segments before a sentence is
	// forced to end. Zero selects the 2s default.
	SilenceGap time.Duration

	// MaxSentencesPerParagraph closes the current paragraph once it
	// accumulates this many sentences. Zero selects the default of 5.
	MaxSentencesPerParagraph int
}

// New returns a Reconstructor configured with the spec defaults.
func New() *Reconstructor {
	return &Reconstructor{
		SilenceGap:               defaultSilenceGap,
		MaxSentencesPerParagraph: defaultMaxSentencesPerParagraph,
	}
}

func (r *Reconstructor) silenceGap() time.Duration {
	if r.SilenceGap > 0 {
		return r.SilenceGap
	}
	return defaultSilenceGap
}

func (r *Reconstructor) maxSentences() int {
	if r.MaxSentencesPerParagraph > 0 {
		return r.MaxSentencesPerParagraph
	}
	return defaultMaxSentencesPerParagraph
}

// Reconstruct walks segments linearly, closing a sentence when the current
// segment's text ends in a terminator, or the gap to the next segment
// exceeds the silence gap, or at end-of-input; and closing a paragraph once
// it accumulates MaxSentencesPerParagraph sentences or at end-of-input.
func (r *Reconstructor) Reconstruct(segments []types.Segment) []types.Paragraph {
	sentences := r.toSentences(segments)
	return r.toParagraphs(sentences)
}

func (r *Reconstructor) toSentences(segments []types.Segment) []types.Sentence {
	var sentences []types.Sentence

	var textParts []string
	var segIDs []int
	var startSeg, endSeg *types.Segment

	flush := func() {
		if len(segIDs) == 0 {
			return
		}
		text := strings.Join(textParts, " ")
		if strings.TrimSpace(text) != "" {
			sentences = append(sentences, types.Sentence{
				Text:       text,
				SegmentIDs: append([]int(nil), segIDs...),
				StartTime:  startSeg.StartTime,
				EndTime:    endSeg.EndTime,
			})
		}
		textParts = nil
		segIDs = nil
		startSeg = nil
		endSeg = nil
	}

	for i := range segments {
		seg := segments[i]
		if startSeg == nil {
			startSeg = &segments[i]
		}
		endSeg = &segments[i]
		textParts = append(textParts, seg.Text)
		segIDs = append(segIDs, seg.ID)

		terminated := endsWithTerminator(seg.Text)
		gapExceeded := false
		if i+1 < len(segments) {
			gap := segments[i+1].StartMs - seg.EndMs
			if time.Duration(gap)*time.Millisecond > r.silenceGap() {
				gapExceeded = true
			}
		}
		if terminated || gapExceeded || i == len(segments)-1 {
			flush()
		}
	}
	return sentences
}

func (r *Reconstructor) toParagraphs(sentences []types.Sentence) []types.Paragraph {
	var paragraphs []types.Paragraph

	var current []types.Sentence
	paragraphID := 1

	flush := func() {
		if len(current) == 0 {
			return
		}
		var segIDs []int
		var textParts []string
		for _, s := range current {
			segIDs = append(segIDs, s.SegmentIDs...)
			textParts = append(textParts, s.Text)
		}
		paragraphs = append(paragraphs, types.Paragraph{
			ParagraphID: paragraphID,
			Sentences:   append([]types.Sentence(nil), current...),
			FullText:    strings.Join(textParts, " "),
			StartTime:   current[0].StartTime,
			EndTime:     current[len(current)-1].EndTime,
			SegmentIDs:  segIDs,
		})
		paragraphID++
		current = nil
	}

	for i, s := range sentences {
		current = append(current, s)
		if len(current) >= r.maxSentences() || i == len(sentences)-1 {
			flush()
		}
	}
	return paragraphs
}

func endsWithTerminator(text string) bool {
	trimmed := strings.TrimRight(text, " \t")
	if trimmed == "" {
		return false
	}
	runes := []rune(trimmed)
	last := runes[len(runes)-1]
	for _, t := range sentenceTerminators {
		if last == t {
			return true
		}
	}
	return false
}
