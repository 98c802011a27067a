// Package clean applies ordered text-normalisation phases to reconstructed
// paragraphs: width normalisation, dictionary-driven error correction,
// non-verbal marker stripping, optional filler removal, punctuation
// standardisation, and whitespace collapsing. The original text is always
// preserved alongside the cleaned text.
package clean

import (
	"regexp"
	"strings"

	"github.com/kotodama-ai/transcript-rag/pkg/types"
)

// Correction pairs a known transcription error with its fix. Cleaner applies
// corrections in order; the first matching pair in the dictionary wins for
// each occurrence.
type correctionPair struct {
	from string
	to   string
}

// defaultDictionary is the built-in known-error correction table. Entries are
// ordered; earlier entries are applied first.
var defaultDictionary = []correctionPair{
	{"になります", "になります"},
	{"ですね、", "ですね。"},
	{"という事", "ということ"},
	{"出来る", "できる"},
	{"出来ない", "できない"},
	{"何故なら", "なぜなら"},
}

// defaultFillerWords are removed only when Cleaner.RemoveFillers is true.
var defaultFillerWords = []string{"えーと", "あのー", "えっと", "まあ"}

var nonVerbalMarker = regexp.MustCompile(`[\(（\[【][^\)）\]】]*(笑|拍手|音楽|BGM|間|咳|applause|laughter|music)[^\)）\]】]*[\)）\]】]`)

var (
	bangRun       = regexp.MustCompile(`!{2,}`)
	questionRun   = regexp.MustCompile(`\?{2,}`)
	readingTenRun = regexp.MustCompile(`、{2,}`)
	ellipsisRun   = regexp.MustCompile(`\.{2,}`)
	wsBeforeTerm  = regexp.MustCompile(`[ \t]+([。、！？!?,.])`)
	wsRun         = regexp.MustCompile(`[ \t]{2,}`)
)

// Cleaner applies the six cleaning phases to a Paragraph. The zero value uses
// the built-in dictionary and leaves filler-word removal disabled.
type Cleaner struct {
	// Dictionary overrides the built-in error->fix pairs when non-nil.
	Dictionary map[string]string

	// RemoveFillers enables phase 4 (filler-word stripping). Off by default.
	RemoveFillers bool

	// FillerWords overrides the built-in filler list when non-nil.
	FillerWords []string
}

// New returns a Cleaner using the built-in dictionary with filler removal
// disabled.
func New() *Cleaner {
	return &Cleaner{}
}

func (c *Cleaner) dictionary() []correctionPair {
	if c.Dictionary != nil {
		pairs := make([]correctionPair, 0, len(c.Dictionary))
		for from, to := range c.Dictionary {
			pairs = append(pairs, correctionPair{from: from, to: to})
		}
		return pairs
	}
	return defaultDictionary
}

func (c *Cleaner) fillerWords() []string {
	if c.FillerWords != nil {
		return c.FillerWords
	}
	return defaultFillerWords
}

// Clean runs all six phases over p in order and returns a CleanedParagraph
// recording which phases changed the text and every dictionary correction
// applied.
func (c *Cleaner) Clean(p types.Paragraph) types.CleanedParagraph {
	original := p.FullText
	text := original
	var flags types.CleaningFlags
	var corrections []types.Correction

	normalised := normaliseWidth(text)
	if normalised != text {
		flags.WidthNormalised = true
	}
	text = normalised

	corrected, hits := c.correctDictionary(text)
	if len(hits) > 0 {
		flags.DictionaryCorrected = true
		corrections = hits
	}
	text = corrected

	stripped := nonVerbalMarker.ReplaceAllString(text, "")
	if stripped != text {
		flags.MarkersStripped = true
	}
	text = stripped

	if c.RemoveFillers {
		withoutFillers := c.stripFillers(text)
		if withoutFillers != text {
			flags.FillerWordsRemoved = true
		}
		text = withoutFillers
	}

	standardised := standardisePunctuation(text)
	if standardised != text {
		flags.PunctuationStandard = true
	}
	text = standardised

	collapsed := collapseWhitespace(text)
	if collapsed != text {
		flags.WhitespaceCollapsed = true
	}
	text = collapsed

	return types.CleanedParagraph{
		Paragraph:    p,
		OriginalText: original,
		CleanedText:  text,
		Corrections:  corrections,
		Flags:        flags,
	}
}

// normaliseWidth converts full-width digits and Latin letters (０-９, Ａ-Ｚ,
// ａ-ｚ) to ordinary half-width ASCII, and the ideographic space to a plain
// space. Full-width punctuation such as ？ and ！ is left unchanged, and so
// are katakana, CJK punctuation, and corner brackets — narrowing them (as
// golang.org/x/text/width's Narrow transform does) corrupts quotes and
// sentence terminators that downstream stages match on.
func normaliseWidth(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '　':
			b.WriteRune(' ')
		case (r >= '０' && r <= '９') || (r >= 'Ａ' && r <= 'Ｚ') || (r >= 'ａ' && r <= 'ｚ'):
			b.WriteRune(r - 0xFEE0)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *Cleaner) correctDictionary(text string) (string, []types.Correction) {
	var corrections []types.Correction
	for _, pair := range c.dictionary() {
		if pair.from == pair.to {
			continue
		}
		if strings.Contains(text, pair.from) {
			count := strings.Count(text, pair.from)
			for i := 0; i < count; i++ {
				corrections = append(corrections, types.Correction{Original: pair.from, Fixed: pair.to})
			}
			text = strings.ReplaceAll(text, pair.from, pair.to)
		}
	}
	return text, corrections
}

func (c *Cleaner) stripFillers(text string) string {
	for _, f := range c.fillerWords() {
		text = strings.ReplaceAll(text, f, "")
	}
	return text
}

func standardisePunctuation(text string) string {
	text = bangRun.ReplaceAllString(text, "!")
	text = questionRun.ReplaceAllString(text, "?")
	text = readingTenRun.ReplaceAllString(text, "、")
	text = ellipsisRun.ReplaceAllString(text, "...")
	text = wsBeforeTerm.ReplaceAllString(text, "$1")
	return text
}

func collapseWhitespace(text string) string {
	text = wsRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
